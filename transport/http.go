package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/albertocavalcante/go-depgraph/repository"
)

// HTTP client defaults.
const (
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 15 * time.Second
	DefaultUserAgent           = "go-depgraph"
)

// HTTP fetches resources from http(s) repositories.
type HTTP struct {
	client    *http.Client
	userAgent string
	auth      map[string]Credentials // keyed by repository id
}

// Credentials authenticate against a repository with HTTP basic auth.
type Credentials struct {
	Username string
	Password string
}

// HTTPOption configures HTTP.
type HTTPOption func(*HTTP)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		if client != nil {
			h.client = client
		}
	}
}

// WithTimeout sets the overall request timeout.
// Zero or negative values fall back to DefaultRequestTimeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(h *HTTP) {
		if timeout > 0 {
			h.client.Timeout = timeout
		} else {
			h.client.Timeout = DefaultRequestTimeout
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTP) {
		h.userAgent = ua
	}
}

// WithCredentials authenticates requests to the repository with the given id.
func WithCredentials(repoID string, c Credentials) HTTPOption {
	return func(h *HTTP) {
		h.auth[repoID] = c
	}
}

// NewHTTP creates an HTTP transport with a pooled connection setup.
func NewHTTP(opts ...HTTPOption) *HTTP {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}
	h := &HTTP{
		client: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
		userAgent: DefaultUserAgent,
		auth:      make(map[string]Credentials),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Get implements Transport.
func (h *HTTP) Get(ctx context.Context, repo repository.Repository, resource string, w io.Writer) error {
	url := strings.TrimSuffix(repo.URL, "/") + "/" + strings.TrimPrefix(resource, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return &Error{Kind: KindNetwork, Repository: repo.ID, Resource: resource, Err: err}
	}
	req.Header.Set("User-Agent", h.userAgent)
	if c, ok := h.auth[repo.ID]; ok {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Repository: repo.ID, Resource: resource, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return notFound(repo, resource, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &Error{Kind: KindStatus, Repository: repo.ID, Resource: resource, StatusCode: resp.StatusCode, Err: ErrUnauthorized}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Error{Kind: KindStatus, Repository: repo.ID, Resource: resource, StatusCode: resp.StatusCode, Err: ErrRateLimited}
	default:
		return &Error{
			Kind:       KindStatus,
			Repository: repo.ID,
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, url),
		}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &Error{Kind: KindNetwork, Repository: repo.ID, Resource: resource, Err: fmt.Errorf("read body: %w", err)}
	}
	return nil
}
