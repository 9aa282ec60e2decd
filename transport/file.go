package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/albertocavalcante/go-depgraph/repository"
)

// File serves repositories laid out on a local or mounted file system.
//
// Create repositories with file:// URLs:
//
//	repository.New("mirror", "file:///srv/maven")     // Unix
//	repository.New("mirror", "file:///C:/srv/maven")  // Windows
type File struct{}

// NewFile creates a file transport.
func NewFile() *File {
	return &File{}
}

// Get implements Transport.
func (f *File) Get(ctx context.Context, repo repository.Repository, resource string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return &Error{Kind: KindNetwork, Repository: repo.ID, Resource: resource, Err: err}
	}
	root, err := ParseFileURL(repo.URL)
	if err != nil {
		return &Error{Kind: KindUnsupported, Repository: repo.ID, Resource: resource, Err: err}
	}

	clean := filepath.FromSlash(strings.TrimPrefix(resource, "/"))
	if !filepath.IsLocal(clean) {
		return &Error{Kind: KindUnsupported, Repository: repo.ID, Resource: resource, Err: fmt.Errorf("resource escapes repository root")}
	}

	file, err := os.Open(filepath.Join(root, clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(repo, resource, 0)
		}
		return &Error{Kind: KindNetwork, Repository: repo.ID, Resource: resource, Err: err}
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(w, file); err != nil {
		return &Error{Kind: KindNetwork, Repository: repo.ID, Resource: resource, Err: err}
	}
	return nil
}

// ParseFileURL extracts the path from a file:// URL.
// Handles both Unix (file:///path) and Windows (file:///C:/path) formats.
//
// Examples:
//
//	Unix:    file:///tmp/repo      -> /tmp/repo
//	Windows: file:///C:/Users/repo -> C:/Users/repo
func ParseFileURL(url string) (string, error) {
	path, ok := strings.CutPrefix(url, "file://")
	if !ok {
		return "", fmt.Errorf("not a file:// URL: %s", url)
	}

	// file:///C:/path -> C:/path
	if len(path) >= 3 && path[0] == '/' && isWindowsDriveLetter(path[1]) && path[2] == ':' {
		path = path[1:]
	}

	return filepath.Clean(path), nil
}

func isWindowsDriveLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// FileURL converts a native directory path into a file:// URL.
// The URL uses forward slashes regardless of OS, per RFC 8089.
func FileURL(dir string) string {
	p := filepath.ToSlash(dir)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file://" + p
}
