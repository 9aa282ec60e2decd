// Package transport fetches repository resources (artifact files, POMs,
// version listings and checksums) over the protocols a repository URL can
// name: http(s)://, file:// and s3://.
//
// Every failure is reported as an *[Error] carrying the repository id, the
// resource path and a [Kind], so callers can tell a missing file from a
// broken network without inspecting protocol-specific error types.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/albertocavalcante/go-depgraph/repository"
)

// Sentinel errors wrapped by *Error.
var (
	// ErrNotFound indicates the resource does not exist in the repository.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited indicates the repository is rate limiting requests.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized indicates authentication is required or failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrChecksumMismatch indicates downloaded content failed verification.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrOffline indicates a remote fetch was needed while working offline.
	ErrOffline = errors.New("offline")
)

// Transport downloads one resource from one repository.
type Transport interface {
	// Get copies the resource at the slash-separated path resource, relative
	// to the repository root, into w.
	Get(ctx context.Context, repo repository.Repository, resource string, w io.Writer) error
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, repo repository.Repository, resource string, w io.Writer) error

// Get implements Transport.
func (f Func) Get(ctx context.Context, repo repository.Repository, resource string, w io.Writer) error {
	return f(ctx, repo, resource, w)
}

// Kind classifies transport failures.
type Kind int

const (
	KindNetwork Kind = iota
	KindNotFound
	KindStatus
	KindChecksum
	KindUnsupported
	KindOffline
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindStatus:
		return "bad status"
	case KindChecksum:
		return "checksum"
	case KindUnsupported:
		return "unsupported"
	case KindOffline:
		return "offline"
	default:
		return "network"
	}
}

// Error reports a failed transfer.
type Error struct {
	Kind       Kind
	Repository string
	Resource   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s from %s", e.Kind, e.Resource, e.Repository)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil && !errors.Is(e.Err, ErrNotFound) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the resource is absent, as opposed
// to the repository being unreachable.
func IsNotFound(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == KindNotFound
	}
	return errors.Is(err, ErrNotFound)
}

func notFound(repo repository.Repository, resource string, code int) *Error {
	return &Error{Kind: KindNotFound, Repository: repo.ID, Resource: resource, StatusCode: code, Err: ErrNotFound}
}

// Mux dispatches to a Transport by repository URL scheme.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]Transport
}

// NewMux returns a Mux serving http, https and file repositories.
func NewMux(opts ...HTTPOption) *Mux {
	h := NewHTTP(opts...)
	m := &Mux{handlers: make(map[string]Transport)}
	m.Register("http", h)
	m.Register("https", h)
	m.Register("file", NewFile())
	return m
}

// Register installs t for a URL scheme, replacing any previous handler.
func (m *Mux) Register(scheme string, t Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[scheme] = t
}

// Get implements Transport.
func (m *Mux) Get(ctx context.Context, repo repository.Repository, resource string, w io.Writer) error {
	scheme := repo.Scheme()
	m.mu.RLock()
	t, ok := m.handlers[scheme]
	m.mu.RUnlock()
	if !ok {
		return &Error{
			Kind:       KindUnsupported,
			Repository: repo.ID,
			Resource:   resource,
			Err:        fmt.Errorf("no transport for scheme %q", scheme),
		}
	}
	return t.Get(ctx, repo, resource, w)
}
