package depgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/graph"
	"github.com/albertocavalcante/go-depgraph/repository"
	"github.com/albertocavalcante/go-depgraph/transport"
	"github.com/albertocavalcante/go-depgraph/version"
)

// SystemRepositoryID is reported for artifacts served from their declared
// system path.
const SystemRepositoryID = "system"

// ArtifactRequest asks for one artifact file.
type ArtifactRequest struct {
	Artifact artifact.Coordinate

	// Repositories to search, in priority order. Nil means the session's
	// repositories.
	Repositories []repository.Repository

	// SystemPath, when set, is returned instead of consulting any
	// repository. It must name an existing file.
	SystemPath string

	// Node is the tree node the request was made for, if any.
	Node *graph.Node
}

// ArtifactResult is the outcome of an ArtifactRequest.
type ArtifactResult struct {
	Request ArtifactRequest

	// Path is the local file, empty on failure.
	Path string

	// Repository is the id of the repository that supplied the file:
	// repository.LocalID for a cache hit, SystemRepositoryID for system
	// paths.
	Repository string

	Err error
}

// ResolveArtifact returns the local path of one artifact, downloading it
// when the local repository has no usable copy.
//
// A release in the local repository is always used. A snapshot is used
// while the update policy of the first repository serving snapshots says it
// is fresh. Offline sessions use any local copy and fail otherwise. When a
// refresh fails, an existing stale copy is returned.
func ResolveArtifact(ctx context.Context, s *Session, req ArtifactRequest) (ArtifactResult, error) {
	start := time.Now()
	defer s.metrics.observeResolve(start)

	res := ArtifactResult{Request: req}
	c := req.Artifact.Normalize()

	if req.SystemPath != "" {
		if _, err := os.Stat(req.SystemPath); err != nil {
			res.Err = &ArtifactResolutionError{Coordinate: c, Attempts: []Attempt{{
				Repository: SystemRepositoryID,
				Err:        &transport.Error{Kind: transport.KindNotFound, Repository: SystemRepositoryID, Resource: req.SystemPath, Err: ErrNotFound},
			}}}
			return res, res.Err
		}
		res.Path, res.Repository = req.SystemPath, SystemRepositoryID
		return res, nil
	}

	if err := c.Validate(); err != nil {
		res.Err = fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		return res, res.Err
	}
	if version.NeedsMetadata(c.Version) {
		res.Err = fmt.Errorf("%w: %s has no concrete version", ErrInvalidRequest, c)
		return res, res.Err
	}

	repos := req.Repositories
	if repos == nil {
		repos = s.cfg.repositories
	}
	res.Path, res.Repository, res.Err = s.resolveFile(ctx, c, repos)
	return res, res.Err
}

// resolveFile implements the local-then-remote lookup of ResolveArtifact.
func (s *Session) resolveFile(ctx context.Context, c artifact.Coordinate, repos []repository.Repository) (string, string, error) {
	dest := s.LocalPath(c)
	resource := repository.ArtifactPath(c)
	snapshot := c.IsSnapshot()

	info, statErr := os.Stat(dest)
	cached := statErr == nil
	if cached && (s.cfg.offline || !s.isStale(repos, snapshot, info.ModTime())) {
		s.metrics.localLookup("hit")
		return dest, repository.LocalID, nil
	}
	if s.cfg.offline {
		s.metrics.localLookup("miss")
		return "", "", &ArtifactResolutionError{Coordinate: c, Attempts: []Attempt{{
			Repository: repository.LocalID,
			Err:        offlineError(repository.LocalID, resource),
		}}}
	}
	if cached {
		s.metrics.localLookup("stale")
	} else {
		s.metrics.localLookup("miss")
	}

	var serving []repository.Repository
	for _, r := range repos {
		if r.Serves(snapshot) {
			serving = append(serving, r)
		}
	}

	repoID, err := s.fetch(ctx, c, resource, dest, serving)
	if err != nil {
		if cached && ctx.Err() == nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "using stale local copy",
				slog.String("artifact", c.String()),
				slog.String("error", err.Error()))
			return dest, repository.LocalID, nil
		}
		return "", "", err
	}
	return dest, repoID, nil
}

// isStale reports whether a local copy last written at modified must be
// refreshed. Releases never go stale.
func (s *Session) isStale(repos []repository.Repository, snapshot bool, modified time.Time) bool {
	if !snapshot {
		return false
	}
	for _, r := range repos {
		if r.Serves(true) {
			return s.updatePolicy(r, true).IsStale(modified, s.cfg.now())
		}
	}
	return false
}

// ResolveArtifacts resolves requests concurrently, at most the session's
// concurrency limit at a time. Every request gets a result in the same
// position; failures are recorded in ArtifactResult.Err and joined into the
// returned error, so successful results are usable even when err != nil.
func ResolveArtifacts(ctx context.Context, s *Session, reqs []ArtifactRequest) ([]ArtifactResult, error) {
	results := make([]ArtifactResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.cfg.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			results[i], _ = ResolveArtifact(ctx, s, req)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	if len(errs) > 0 {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "some artifacts could not be resolved",
			slog.Int("failed", len(errs)),
			slog.Int("total", len(reqs)))
	}
	return results, errors.Join(errs...)
}
