package depgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/repository"
	"github.com/albertocavalcante/go-depgraph/transport"
	"github.com/albertocavalcante/go-depgraph/version"
)

// Option configures a Session.
type Option func(*sessionConfig) error

// DescriptorPolicy decides how the collector treats a dependency whose
// descriptor cannot be read.
type DescriptorPolicy int

const (
	// DescriptorStrict records every descriptor failure and omits the node.
	DescriptorStrict DescriptorPolicy = iota
	// DescriptorIgnoreMissing keeps nodes whose descriptor does not exist,
	// treating them as having no dependencies.
	DescriptorIgnoreMissing
	// DescriptorIgnoreErrors keeps nodes whose descriptor is missing or
	// unreadable.
	DescriptorIgnoreErrors
)

const (
	defaultTimeout     = 30 * time.Second
	defaultCacheSize   = 4096
	defaultConcurrency = 5
)

// sessionConfig holds all session configuration.
type sessionConfig struct {
	repositories     []repository.Repository
	offline          bool
	timeout          time.Duration
	transport        transport.Transport
	metadata         MetadataSource
	scheme           version.Scheme
	types            *artifact.TypeRegistry
	checksumPolicy   transport.ChecksumPolicy
	updatePolicy     repository.UpdatePolicy
	descriptorPolicy DescriptorPolicy
	ignoreDescRepos  bool
	relocations      []Relocation
	cacheSize        int
	concurrency      int
	registerer       prometheus.Registerer
	now              func() time.Time

	// logger is the structured logger for debug/info output.
	// If nil, logging is disabled (silent mode).
	logger *slog.Logger
}

// WithRepositories appends remote repositories, in priority order.
func WithRepositories(repos ...repository.Repository) Option {
	return func(c *sessionConfig) error {
		for _, r := range repos {
			if err := r.Validate(); err != nil {
				return err
			}
		}
		c.repositories = append(c.repositories, repos...)
		return nil
	}
}

// WithOffline forbids remote access. Only the local repository is read.
func WithOffline(offline bool) Option {
	return func(c *sessionConfig) error {
		c.offline = offline
		return nil
	}
}

// WithTimeout bounds every remote attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *sessionConfig) error {
		c.timeout = d
		return nil
	}
}

// WithTransport replaces the default transport, which serves http(s) and
// file repositories.
func WithTransport(t transport.Transport) Option {
	return func(c *sessionConfig) error {
		c.transport = t
		return nil
	}
}

// WithMetadataSource replaces the source of version listings and
// descriptors. By default they are read from the session's repositories.
func WithMetadataSource(m MetadataSource) Option {
	return func(c *sessionConfig) error {
		c.metadata = m
		return nil
	}
}

// WithVersionScheme sets the version ordering used for ranges, mediation
// explanations and diffs. The default is the maven scheme.
func WithVersionScheme(s version.Scheme) Option {
	return func(c *sessionConfig) error {
		c.scheme = s
		return nil
	}
}

// WithTypeRegistry sets the registry that maps dependency types to
// extensions and classifiers.
func WithTypeRegistry(r *artifact.TypeRegistry) Option {
	return func(c *sessionConfig) error {
		c.types = r
		return nil
	}
}

// WithChecksumPolicy sets how downloaded content is verified. The default is
// transport.ChecksumWarn.
func WithChecksumPolicy(p transport.ChecksumPolicy) Option {
	return func(c *sessionConfig) error {
		c.checksumPolicy = p
		return nil
	}
}

// WithUpdatePolicy overrides the update policy of every repository.
func WithUpdatePolicy(p repository.UpdatePolicy) Option {
	return func(c *sessionConfig) error {
		if _, err := repository.ParseUpdatePolicy(string(p)); err != nil {
			return err
		}
		c.updatePolicy = p
		return nil
	}
}

// WithDescriptorPolicy sets how unreadable descriptors are handled.
func WithDescriptorPolicy(p DescriptorPolicy) Option {
	return func(c *sessionConfig) error {
		c.descriptorPolicy = p
		return nil
	}
}

// WithIgnoreDescriptorRepositories stops the collector from adding the
// repositories declared in descriptors to the search path of their subtree.
func WithIgnoreDescriptorRepositories(ignore bool) Option {
	return func(c *sessionConfig) error {
		c.ignoreDescRepos = ignore
		return nil
	}
}

// WithRelocations configures user relocations from a comma-separated list
// of entries such as "g:a:*>g2:a2:*" (project scope) or "g:a:1.0>>" (global,
// banned). See ParseRelocations.
func WithRelocations(entries string) Option {
	return func(c *sessionConfig) error {
		rs, err := ParseRelocations(entries)
		if err != nil {
			return err
		}
		c.relocations = append(c.relocations, rs...)
		return nil
	}
}

// WithCacheSize sets the number of metadata and descriptor entries each
// session cache keeps.
func WithCacheSize(n int) Option {
	return func(c *sessionConfig) error {
		c.cacheSize = n
		return nil
	}
}

// WithConcurrency bounds the number of artifacts downloaded at once.
func WithConcurrency(n int) Option {
	return func(c *sessionConfig) error {
		c.concurrency = n
		return nil
	}
}

// WithRegisterer registers resolver metrics on reg. Metrics are not
// collected when no registerer is set.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *sessionConfig) error {
		c.registerer = reg
		return nil
	}
}

// WithLogger sets a structured logger for resolution diagnostics.
// If not set, logging is disabled (silent mode).
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "depgraph")
//	session, err := depgraph.NewSession(dir, depgraph.WithLogger(logger))
func WithLogger(l *slog.Logger) Option {
	return func(c *sessionConfig) error {
		c.logger = l
		return nil
	}
}

// withClock replaces time.Now in tests.
func withClock(now func() time.Time) Option {
	return func(c *sessionConfig) error {
		c.now = now
		return nil
	}
}

// validate checks the configuration for logical consistency.
func (c *sessionConfig) validate() error {
	if c.timeout < 0 {
		return errors.New("timeout must be positive")
	}
	if c.cacheSize <= 0 {
		return fmt.Errorf("cache size must be positive, got %d", c.cacheSize)
	}
	if c.concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.concurrency)
	}
	switch c.checksumPolicy {
	case transport.ChecksumFail, transport.ChecksumWarn, transport.ChecksumIgnore:
	default:
		return fmt.Errorf("unknown checksum policy %q", c.checksumPolicy)
	}
	if c.descriptorPolicy < DescriptorStrict || c.descriptorPolicy > DescriptorIgnoreErrors {
		return fmt.Errorf("unknown descriptor policy %d", c.descriptorPolicy)
	}
	seen := make(map[string]bool, len(c.repositories))
	for _, r := range c.repositories {
		if seen[r.ID] {
			return fmt.Errorf("duplicate repository id %q", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
// This allows internal code to call logging methods without nil checks.
func (c *sessionConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// newSessionConfig applies opts over the defaults and validates the result.
func newSessionConfig(opts ...Option) (*sessionConfig, error) {
	c := &sessionConfig{
		timeout:        defaultTimeout,
		scheme:         version.MavenScheme{},
		types:          artifact.NewTypeRegistry(),
		checksumPolicy: transport.ChecksumWarn,
		cacheSize:      defaultCacheSize,
		concurrency:    defaultConcurrency,
		now:            time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	if c.transport == nil {
		c.transport = transport.NewMux(transport.WithTimeout(c.timeout))
	}
	return c, nil
}
