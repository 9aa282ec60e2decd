package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-depgraph/repository"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/g/a/1.0/a-1.0.jar":
			_, _ = w.Write([]byte("jar-bytes"))
		case "/g/a/1.0/a-1.0.jar.sha1":
			_, _ = w.Write([]byte("0123456789abcdef0123456789abcdef01234567  a-1.0.jar\n"))
		case "/secure/a.jar":
			user, pass, ok := r.BasicAuth()
			if !ok || user != "u" || pass != "p" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte("secret"))
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte("late"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPGet(t *testing.T) {
	server := newTestServer(t)
	repo := repository.New("test", server.URL)
	h := NewHTTP(WithCredentials("test", Credentials{Username: "u", Password: "p"}))

	var buf bytes.Buffer
	require.NoError(t, h.Get(context.Background(), repo, "g/a/1.0/a-1.0.jar", &buf))
	assert.Equal(t, "jar-bytes", buf.String())

	buf.Reset()
	require.NoError(t, h.Get(context.Background(), repo, "/secure/a.jar", &buf))
	assert.Equal(t, "secret", buf.String())
}

func TestHTTPErrors(t *testing.T) {
	server := newTestServer(t)
	repo := repository.New("test", server.URL)
	h := NewHTTP()

	tests := []struct {
		resource string
		kind     Kind
		sentinel error
		status   int
	}{
		{"missing.jar", KindNotFound, ErrNotFound, http.StatusNotFound},
		{"secure/a.jar", KindStatus, ErrUnauthorized, http.StatusUnauthorized},
		{"limited", KindStatus, ErrRateLimited, http.StatusTooManyRequests},
		{"broken", KindStatus, nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.resource, func(t *testing.T) {
			err := h.Get(context.Background(), repo, tt.resource, &bytes.Buffer{})
			var te *Error
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.kind, te.Kind)
			assert.Equal(t, tt.status, te.StatusCode)
			assert.Equal(t, "test", te.Repository)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			assert.Equal(t, tt.kind == KindNotFound, IsNotFound(err))
		})
	}
}

func TestHTTPTimeoutIsNetworkError(t *testing.T) {
	server := newTestServer(t)
	repo := repository.New("test", server.URL)
	h := NewHTTP(WithTimeout(20 * time.Millisecond))

	err := h.Get(context.Background(), repo, "slow", &bytes.Buffer{})
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, KindNetwork, te.Kind)
	assert.False(t, IsNotFound(err))
}

func TestFileGet(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "g", "a", "1.0")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "a-1.0.pom"), []byte("<project/>"), 0o644))

	repo := repository.New("local-mirror", FileURL(dir))
	f := NewFile()

	var buf bytes.Buffer
	require.NoError(t, f.Get(context.Background(), repo, "g/a/1.0/a-1.0.pom", &buf))
	assert.Equal(t, "<project/>", buf.String())

	err := f.Get(context.Background(), repo, "g/a/2.0/a-2.0.pom", &buf)
	assert.True(t, IsNotFound(err))

	err = f.Get(context.Background(), repo, "../outside", &buf)
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, KindUnsupported, te.Kind)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = f.Get(ctx, repo, "g/a/1.0/a-1.0.pom", &buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFileURL(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	got, err := ParseFileURL("file:///tmp/repo/")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/repo", got)

	got, err = ParseFileURL("file:///C:/Users/repo")
	require.NoError(t, err)
	assert.Equal(t, "C:/Users/repo", got)

	_, err = ParseFileURL("https://example.com")
	assert.Error(t, err)

	assert.Equal(t, "file:///tmp/repo", FileURL("/tmp/repo"))
}

func TestParseS3URL(t *testing.T) {
	bucket, prefix, err := ParseS3URL("s3://artifacts/maven/releases/")
	require.NoError(t, err)
	assert.Equal(t, "artifacts", bucket)
	assert.Equal(t, "maven/releases", prefix)

	bucket, prefix, err = ParseS3URL("s3://artifacts")
	require.NoError(t, err)
	assert.Equal(t, "artifacts", bucket)
	assert.Empty(t, prefix)

	_, _, err = ParseS3URL("s3:///nobucket")
	assert.Error(t, err)
	_, _, err = ParseS3URL("https://artifacts")
	assert.Error(t, err)
}

func TestNewS3Validation(t *testing.T) {
	_, err := NewS3(S3Config{})
	assert.Error(t, err)

	_, err = NewS3(S3Config{Endpoint: "localhost:9000", AccessKey: "only-access"})
	assert.Error(t, err)

	s, err := NewS3(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestMux(t *testing.T) {
	server := newTestServer(t)
	m := NewMux()

	var buf bytes.Buffer
	require.NoError(t, m.Get(context.Background(), repository.New("test", server.URL), "g/a/1.0/a-1.0.jar", &buf))

	err := m.Get(context.Background(), repository.New("ftp", "ftp://example.com"), "x", &buf)
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, KindUnsupported, te.Kind)

	calls := 0
	m.Register("mem", Func(func(ctx context.Context, repo repository.Repository, resource string, w io.Writer) error {
		calls++
		_, err := w.Write([]byte("mem"))
		return err
	}))
	buf.Reset()
	require.NoError(t, m.Get(context.Background(), repository.New("m", "mem://x"), "y", &buf))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "mem", buf.String())
}

func TestVerify(t *testing.T) {
	server := newTestServer(t)
	repo := repository.New("test", server.URL)
	h := NewHTTP()
	ctx := context.Background()

	good := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef, 0x01, 0x23, 0x45, 0x67}
	assert.NoError(t, Verify(ctx, h, repo, "g/a/1.0/a-1.0.jar", good, ChecksumFail))

	bad := make([]byte, 20)
	err := Verify(ctx, h, repo, "g/a/1.0/a-1.0.jar", bad, ChecksumFail)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, KindChecksum, te.Kind)

	assert.NoError(t, Verify(ctx, h, repo, "g/a/1.0/a-1.0.jar", bad, ChecksumIgnore))
	// No sidecar published.
	assert.NoError(t, Verify(ctx, h, repo, "missing.jar", bad, ChecksumFail))
}
