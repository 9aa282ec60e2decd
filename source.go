package depgraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/descriptor"
	"github.com/albertocavalcante/go-depgraph/repository"
	"github.com/albertocavalcante/go-depgraph/transport"
	"github.com/albertocavalcante/go-depgraph/version"
)

// MetadataSource supplies the version listings and descriptors the
// collector needs. Implementations report absent data with errors that
// match ErrNotFound, so that a miss can be told apart from a broken
// repository.
type MetadataSource interface {
	// ResolveVersion resolves the range or meta version in c.Version to a
	// concrete version.
	ResolveVersion(ctx context.Context, c artifact.Coordinate, repos []repository.Repository) (VersionResult, error)

	// ReadDescriptor returns the descriptor of the artifact c.
	ReadDescriptor(ctx context.Context, c artifact.Coordinate, repos []repository.Repository) (*descriptor.Descriptor, error)
}

// VersionResult is a resolved version and the repository whose listing
// produced it.
type VersionResult struct {
	Version    string
	Repository string
}

// repositorySource reads maven-metadata.xml listings and POM descriptors
// from the session's repositories, keeping copies in the local repository.
//
// Repositories are consulted in order. A repository that fails for any
// reason is recorded and the next one is tried.
type repositorySource struct {
	s *Session
}

// installed describes the versions installed into the local repository.
var installed = repository.New(repository.LocalID, "").WithSnapshots(repository.UpdateNever)

// ResolveVersion implements MetadataSource. The first repository that has a
// listing for the artifact decides the version. When none has one, the
// versions installed into the local repository are used.
func (r *repositorySource) ResolveVersion(ctx context.Context, c artifact.Coordinate, repos []repository.Repository) (VersionResult, error) {
	scheme := r.s.cfg.scheme
	constraint, err := scheme.ParseConstraint(c.Version)
	if err != nil {
		return VersionResult{}, err
	}
	if v, ok := constraint.Recommended(); ok {
		return VersionResult{Version: v}, nil
	}

	var attempts []Attempt
	for _, repo := range repos {
		if !repo.Releases.Enabled && !repo.Snapshots.Enabled {
			continue
		}
		md, err := r.metadata(ctx, c, repo)
		if err != nil {
			attempts = append(attempts, Attempt{Repository: repo.ID, Err: err})
			if ctx.Err() != nil {
				break
			}
			continue
		}
		v, err := pickVersion(scheme, constraint, md, repo)
		if err != nil {
			return VersionResult{}, fmt.Errorf("%s %s in %s: %w", c.Key().Versionless(), c.Version, repo.ID, err)
		}
		return VersionResult{Version: v, Repository: repo.ID}, nil
	}
	if ctx.Err() == nil {
		if md, err := readListing(r.s.installedListingPath(c.GroupID, c.ArtifactID)); err == nil {
			if v, err := pickVersion(scheme, constraint, md, installed); err == nil {
				return VersionResult{Version: v, Repository: repository.LocalID}, nil
			}
		}
	}
	if len(attempts) == 0 {
		attempts = append(attempts, Attempt{
			Repository: repository.LocalID,
			Err:        &transport.Error{Kind: transport.KindNotFound, Repository: repository.LocalID, Resource: repository.MetadataPath(c.GroupID, c.ArtifactID), Err: ErrNotFound},
		})
	}
	return VersionResult{}, &ArtifactResolutionError{Coordinate: c, Attempts: attempts}
}

// pickVersion selects from a listing. LATEST and RELEASE use the listing's
// own markers when present; snapshots are only eligible from repositories
// that serve them.
func pickVersion(scheme version.Scheme, c version.Constraint, md *repository.Metadata, repo repository.Repository) (string, error) {
	switch c.String() {
	case version.Latest:
		if v := md.Versioning.Latest; v != "" && (repo.Snapshots.Enabled || !version.IsSnapshot(v)) {
			return v, nil
		}
	case version.Release:
		if v := md.Versioning.Release; v != "" {
			return v, nil
		}
	}
	available := make([]string, 0, len(md.Versioning.Versions))
	for _, v := range md.Versioning.Versions {
		if repo.Serves(version.IsSnapshot(v)) {
			available = append(available, v)
		}
	}
	return version.Select(scheme, c, available)
}

// metadata returns the listing of c's artifact from repo, refreshing the
// local copy when the release update policy says it is stale. A stale copy
// is still used when the refresh fails.
func (r *repositorySource) metadata(ctx context.Context, c artifact.Coordinate, repo repository.Repository) (*repository.Metadata, error) {
	s := r.s
	resource := repository.MetadataPath(c.GroupID, c.ArtifactID)
	dest := filepath.Join(s.localRepo, filepath.FromSlash(repository.LocalMetadataPath(c.GroupID, c.ArtifactID, repo.ID)))

	info, statErr := os.Stat(dest)
	cached := statErr == nil
	fresh := cached && (s.cfg.offline || !s.updatePolicy(repo, false).IsStale(info.ModTime(), s.cfg.now()))

	switch {
	case fresh:
		s.metrics.localLookup("hit")
	case s.cfg.offline:
		s.metrics.localLookup("miss")
		return nil, offlineError(repo.ID, resource)
	default:
		if cached {
			s.metrics.localLookup("stale")
		} else {
			s.metrics.localLookup("miss")
		}
		if _, err := s.fetch(ctx, c, resource, dest, []repository.Repository{repo}); err != nil {
			if !cached {
				return nil, unwrapSingle(err)
			}
			s.logger.LogAttrs(ctx, slog.LevelWarn, "using stale version listing",
				slog.String("repository", repo.ID),
				slog.String("artifact", c.Key().Versionless()),
				slog.String("error", err.Error()))
		}
	}

	f, err := os.Open(dest)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return repository.ParseMetadata(f)
}

// ReadDescriptor implements MetadataSource by resolving the POM artifact of
// c like any other artifact and parsing it.
func (r *repositorySource) ReadDescriptor(ctx context.Context, c artifact.Coordinate, repos []repository.Repository) (*descriptor.Descriptor, error) {
	pom := artifact.Coordinate{GroupID: c.GroupID, ArtifactID: c.ArtifactID, Version: c.Version, Extension: "pom"}
	path, _, err := r.s.resolveFile(ctx, pom, repos)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	d, err := descriptor.ParsePOM(f, descriptor.WithTypeRegistry(r.s.cfg.types))
	if err != nil {
		return nil, fmt.Errorf("invalid descriptor for %s: %w", c, err)
	}
	return d, nil
}

func offlineError(repoID, resource string) error {
	return &transport.Error{Kind: transport.KindOffline, Repository: repoID, Resource: resource, Err: ErrOffline}
}

// unwrapSingle returns the only attempt error of a single-repository fetch.
func unwrapSingle(err error) error {
	if are, ok := err.(*ArtifactResolutionError); ok && len(are.Attempts) == 1 {
		return are.Attempts[0].Err
	}
	return err
}
