package depgraph

import (
	"context"
	"crypto/sha1" //nolint:gosec // matches repository sidecars
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/descriptor"
	"github.com/albertocavalcante/go-depgraph/graph"
	"github.com/albertocavalcante/go-depgraph/repository"
	"github.com/albertocavalcante/go-depgraph/version"
)

// fakeSource is an in-memory MetadataSource that counts its calls.
type fakeSource struct {
	mu           sync.Mutex
	descriptors  map[string]*descriptor.Descriptor
	versions     map[string][]string
	reads        map[string]int
	versionCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		descriptors: make(map[string]*descriptor.Descriptor),
		versions:    make(map[string][]string),
		reads:       make(map[string]int),
	}
}

// add registers a descriptor for coord ("g:a:v") declaring deps.
func (f *fakeSource) add(coord string, deps ...artifact.Dependency) *descriptor.Descriptor {
	c := artifact.MustParseCoordinate(coord)
	d := &descriptor.Descriptor{Artifact: c.WithExtension("pom"), Packaging: "jar", Dependencies: deps}
	f.descriptors[gav(c)] = d
	return d
}

func (f *fakeSource) ReadDescriptor(_ context.Context, c artifact.Coordinate, _ []repository.Repository) (*descriptor.Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[gav(c)]++
	d, ok := f.descriptors[gav(c)]
	if !ok {
		return nil, fmt.Errorf("descriptor %s: %w", gav(c), ErrNotFound)
	}
	return d, nil
}

func (f *fakeSource) ResolveVersion(_ context.Context, c artifact.Coordinate, _ []repository.Repository) (VersionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versionCalls++
	available, ok := f.versions[c.Key().Versionless()]
	if !ok {
		return VersionResult{}, fmt.Errorf("versions of %s: %w", c.Key().Versionless(), ErrNotFound)
	}
	constraint, err := version.MavenScheme{}.ParseConstraint(c.Version)
	if err != nil {
		return VersionResult{}, err
	}
	v, err := version.Select(version.MavenScheme{}, constraint, available)
	return VersionResult{Version: v, Repository: "fake"}, err
}

func (f *fakeSource) readCount(coord string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[coord]
}

func gav(c artifact.Coordinate) string {
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Version
}

// dep declares a compile dependency on coord ("g:a:v").
func dep(coord string) artifact.Dependency {
	return artifact.NewDependency(artifact.MustParseCoordinate(coord), artifact.ScopeDefault)
}

func scoped(coord string, scope artifact.Scope) artifact.Dependency {
	return artifact.NewDependency(artifact.MustParseCoordinate(coord), scope)
}

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func rootArtifact(coord string) *artifact.Coordinate {
	c := artifact.MustParseCoordinate(coord)
	return &c
}

// children returns "artifactId:version" for each child of n.
func children(n *graph.Node) []string {
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c.Artifact.ArtifactID+":"+c.Artifact.Version)
	}
	return out
}

func child(t *testing.T, n *graph.Node, artifactID string) *graph.Node {
	t.Helper()
	for _, c := range n.Children {
		if c.Artifact.ArtifactID == artifactID {
			return c
		}
	}
	t.Fatalf("%s has no child %q; children = %v", n.Artifact, artifactID, children(n))
	return nil
}

// pomXML renders a minimal POM. Each dependency is "g:a:v[:scope]".
func pomXML(coord string, deps ...string) string {
	c := artifact.MustParseCoordinate(coord)
	var b strings.Builder
	fmt.Fprintf(&b, "<project>\n  <groupId>%s</groupId>\n  <artifactId>%s</artifactId>\n  <version>%s</version>\n",
		c.GroupID, c.ArtifactID, c.Version)
	if len(deps) > 0 {
		b.WriteString("  <dependencies>\n")
		for _, d := range deps {
			parts := strings.Split(d, ":")
			fmt.Fprintf(&b, "    <dependency><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version>",
				parts[0], parts[1], parts[2])
			if len(parts) > 3 {
				fmt.Fprintf(&b, "<scope>%s</scope>", parts[3])
			}
			b.WriteString("</dependency>\n")
		}
		b.WriteString("  </dependencies>\n")
	}
	b.WriteString("</project>\n")
	return b.String()
}

// writeRepo lays files out under dir, creating parent directories.
func writeRepo(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// repoServer serves files over HTTP and counts requests per path.
type repoServer struct {
	*httptest.Server
	mu    sync.Mutex
	files map[string]string
	hits  map[string]int
}

func newRepoServer(t *testing.T, files map[string]string) *repoServer {
	t.Helper()
	rs := &repoServer{files: files, hits: make(map[string]int)}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		rs.mu.Lock()
		rs.hits[path]++
		content, ok := rs.files[path]
		rs.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(content))
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *repoServer) hitCount(path string) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.hits[path]
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // test fixture
	return hex.EncodeToString(sum[:])
}
