package depgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/descriptor"
	"github.com/albertocavalcante/go-depgraph/repository"
	"github.com/albertocavalcante/go-depgraph/transport"
	"github.com/albertocavalcante/go-depgraph/version"
)

// Session is the configuration and cache scope of resolution requests. It
// owns a local repository directory and caches version listings and
// descriptors for its lifetime.
//
// A Session is safe for concurrent use.
type Session struct {
	id        string
	localRepo string
	cfg       *sessionConfig
	source    MetadataSource
	logger    *slog.Logger
	metrics   *metrics

	versions    *lru.Cache[string, versionEntry]
	descriptors *lru.Cache[string, descriptorEntry]
	downloads   singleflight.Group

	// installMu serializes updates of installed version listings.
	installMu sync.Mutex
}

type versionEntry struct {
	result VersionResult
	err    error
}

type descriptorEntry struct {
	desc *descriptor.Descriptor
	err  error
}

// NewSession creates a session that stores downloaded files under localRepo.
func NewSession(localRepo string, opts ...Option) (*Session, error) {
	cfg, err := newSessionConfig(opts...)
	if err != nil {
		return nil, err
	}
	m, err := newMetrics(cfg.registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return newSession(localRepo, cfg, m)
}

func newSession(localRepo string, cfg *sessionConfig, m *metrics) (*Session, error) {
	if localRepo == "" {
		return nil, fmt.Errorf("%w: local repository directory is required", ErrInvalidRequest)
	}
	dir, err := filepath.Abs(localRepo)
	if err != nil {
		return nil, fmt.Errorf("invalid local repository %q: %w", localRepo, err)
	}
	versions, err := lru.New[string, versionEntry](cfg.cacheSize)
	if err != nil {
		return nil, err
	}
	descriptors, err := lru.New[string, descriptorEntry](cfg.cacheSize)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:          uuid.NewString(),
		localRepo:   dir,
		cfg:         cfg,
		source:      cfg.metadata,
		metrics:     m,
		versions:    versions,
		descriptors: descriptors,
	}
	s.logger = cfg.log().With(slog.String("session", s.id))
	if s.source == nil {
		s.source = &repositorySource{s: s}
	}
	return s, nil
}

// WithLocalRepository returns a session with the same configuration that
// stores files under dir. The new session starts with empty caches.
func (s *Session) WithLocalRepository(dir string) (*Session, error) {
	return newSession(dir, s.cfg, s.metrics)
}

// ID returns the unique id attached to the session's log records.
func (s *Session) ID() string { return s.id }

// LocalRepository returns the absolute path of the local repository.
func (s *Session) LocalRepository() string { return s.localRepo }

// Repositories returns the session's remote repositories in priority order.
func (s *Session) Repositories() []repository.Repository {
	return append([]repository.Repository(nil), s.cfg.repositories...)
}

// Offline reports whether remote access is disabled.
func (s *Session) Offline() bool { return s.cfg.offline }

// VersionScheme returns the version ordering of the session.
func (s *Session) VersionScheme() version.Scheme { return s.cfg.scheme }

// Types returns the artifact type registry of the session.
func (s *Session) Types() *artifact.TypeRegistry { return s.cfg.types }

// LocalPath returns where c is stored in the local repository.
func (s *Session) LocalPath(c artifact.Coordinate) string {
	return filepath.Join(s.localRepo, filepath.FromSlash(repository.ArtifactPath(c)))
}

// resolveVersion resolves a range or meta version through the metadata
// source, caching successes and misses.
func (s *Session) resolveVersion(ctx context.Context, c artifact.Coordinate, repos []repository.Repository) (VersionResult, error) {
	key := c.Key().String() + ":" + c.Version + "|" + repositoryKey(repos)
	if e, ok := s.versions.Get(key); ok {
		s.metrics.cacheHit("version")
		return e.result, e.err
	}
	res, err := s.source.ResolveVersion(ctx, c, repos)
	if cacheable(err) {
		s.versions.Add(key, versionEntry{result: res, err: err})
	}
	return res, err
}

// readDescriptor reads the descriptor of c through the metadata source,
// caching successes and misses.
func (s *Session) readDescriptor(ctx context.Context, c artifact.Coordinate, repos []repository.Repository) (*descriptor.Descriptor, error) {
	key := c.String() + "|" + repositoryKey(repos)
	if e, ok := s.descriptors.Get(key); ok {
		s.metrics.cacheHit("descriptor")
		return e.desc, e.err
	}
	d, err := s.source.ReadDescriptor(ctx, c, repos)
	if cacheable(err) {
		s.descriptors.Add(key, descriptorEntry{desc: d, err: err})
	}
	return d, err
}

// cacheable reports whether a lookup outcome may be remembered. Transient
// failures are retried on the next lookup.
func cacheable(err error) bool {
	return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, version.ErrNoMatch)
}

func repositoryKey(repos []repository.Repository) string {
	ids := make([]string, len(repos))
	for i, r := range repos {
		ids[i] = r.ID
	}
	return strings.Join(ids, ",")
}

// updatePolicy returns the policy deciding when a cached file from repo
// must be refreshed.
func (s *Session) updatePolicy(repo repository.Repository, snapshot bool) repository.UpdatePolicy {
	if s.cfg.updatePolicy != "" {
		return s.cfg.updatePolicy
	}
	return repo.PolicyFor(snapshot).Update
}

// fetch downloads resource to dest from the first repository that has it.
// Concurrent fetches of the same destination share one download. The shared
// download is detached from the caller's cancellation and bounded by the
// per-attempt timeout; each caller stops waiting when its own ctx is done.
func (s *Session) fetch(ctx context.Context, c artifact.Coordinate, resource, dest string, repos []repository.Repository) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ch := s.downloads.DoChan(dest, func() (any, error) {
		return s.download(context.WithoutCancel(ctx), c, resource, dest, repos)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	}
}

// download tries repos in order and returns the id of the repository that
// served the resource. Every failed repository is recorded as an Attempt.
func (s *Session) download(ctx context.Context, c artifact.Coordinate, resource, dest string, repos []repository.Repository) (string, error) {
	if len(repos) == 0 {
		return "", &ArtifactResolutionError{Coordinate: c, Attempts: []Attempt{{
			Repository: repository.LocalID,
			Err:        &transport.Error{Kind: transport.KindNotFound, Repository: repository.LocalID, Resource: resource, Err: ErrNotFound},
		}}}
	}

	var attempts []Attempt
	for _, repo := range repos {
		err := s.fetchFrom(ctx, repo, resource, dest)
		if err == nil {
			s.metrics.transfer(repo.ID, "ok")
			s.logger.LogAttrs(ctx, slog.LevelDebug, "downloaded",
				slog.String("repository", repo.ID),
				slog.String("resource", resource))
			return repo.ID, nil
		}
		s.metrics.transfer(repo.ID, outcome(err))
		attempts = append(attempts, Attempt{Repository: repo.ID, Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return "", &ArtifactResolutionError{Coordinate: c, Attempts: attempts}
}

func outcome(err error) string {
	var te *transport.Error
	if errors.As(err, &te) {
		switch te.Kind {
		case transport.KindNotFound:
			return "not_found"
		case transport.KindChecksum:
			return "checksum"
		}
	}
	return "error"
}

// fetchFrom downloads one resource from one repository into a temporary
// file next to dest and renames it into place once verified.
func (s *Session) fetchFrom(ctx context.Context, repo repository.Repository, resource, dest string) error {
	if s.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.timeout)
		defer cancel()
	}

	return publish(dest, func(w io.Writer) error {
		digest := transport.NewDigest()
		if err := s.cfg.transport.Get(ctx, repo, resource, io.MultiWriter(w, digest)); err != nil {
			return err
		}
		if err := transport.Verify(ctx, s.cfg.transport, repo, resource, digest.Sum(nil), s.cfg.checksumPolicy); err != nil {
			if s.cfg.checksumPolicy != transport.ChecksumWarn {
				return err
			}
			s.logger.LogAttrs(ctx, slog.LevelWarn, "checksum verification failed, keeping content",
				slog.String("repository", repo.ID),
				slog.String("resource", resource),
				slog.String("error", err.Error()))
		}
		return nil
	})
}

// publish writes dest atomically. write fills a temporary file in the same
// directory, which replaces dest only when write succeeds, so readers never
// see a partial file.
func publish(dest string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+"-*.part")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	writeErr := write(tmp)
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return writeErr
	}
	return os.Rename(tmp.Name(), dest)
}
