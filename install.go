package depgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/repository"
	"github.com/albertocavalcante/go-depgraph/version"
)

// InstallArtifact is a file to install under a coordinate.
type InstallArtifact struct {
	Artifact artifact.Coordinate
	File     string
}

// Install copies file into the local repository as c, so that later
// resolutions in any session sharing the local repository find it without
// contacting a remote repository. The version of c is added to the
// installed version listing of its groupId:artifactId, which range and
// meta versions fall back to when no remote repository has a listing.
//
// The copy is published atomically. Install returns the installed path.
func (s *Session) Install(ctx context.Context, c artifact.Coordinate, file string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if version.NeedsMetadata(c.Version) {
		return "", fmt.Errorf("%w: cannot install %s without a concrete version", ErrInvalidRequest, c)
	}

	dest := s.LocalPath(c)
	if err := s.copyInto(dest, file); err != nil {
		return "", fmt.Errorf("failed to install %s: %w", c, err)
	}
	if err := s.recordInstalled(c); err != nil {
		return "", fmt.Errorf("failed to update installed versions of %s: %w", c.Key().Versionless(), err)
	}
	s.forget(c)

	s.logger.LogAttrs(ctx, slog.LevelInfo, "installed",
		slog.String("artifact", c.String()),
		slog.String("path", dest))
	return dest, nil
}

// InstallAll installs artifacts in order, typically a project's descriptor
// followed by its main and attached artifacts. It stops at the first
// failure; artifacts installed before it stay installed.
func (s *Session) InstallAll(ctx context.Context, artifacts []InstallArtifact) ([]string, error) {
	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		p, err := s.Install(ctx, a.Artifact, a.File)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (s *Session) copyInto(dest, file string) error {
	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", file)
	}
	if same, err := sameFile(info, dest); err != nil || same {
		return err
	}
	return publish(dest, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
}

// sameFile reports whether dest already is the file described by info.
func sameFile(info fs.FileInfo, dest string) (bool, error) {
	existing, err := os.Stat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return os.SameFile(info, existing), nil
}

// recordInstalled merges the version of c into the installed listing.
func (s *Session) recordInstalled(c artifact.Coordinate) error {
	s.installMu.Lock()
	defer s.installMu.Unlock()

	path := s.installedListingPath(c.GroupID, c.ArtifactID)
	md := repository.NewMetadata(c.GroupID, c.ArtifactID, []string{c.Version}, s.cfg.now())
	if existing, err := readListing(path); err == nil {
		existing.Merge(md)
		md = existing
	} else if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("replacing unreadable installed listing",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
	return publish(path, md.Encode)
}

func (s *Session) installedListingPath(groupID, artifactID string) string {
	return filepath.Join(s.localRepo, filepath.FromSlash(repository.LocalMetadataPath(groupID, artifactID, repository.LocalID)))
}

func readListing(path string) (*repository.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return repository.ParseMetadata(f)
}

// forget drops cached version and descriptor lookups of c's
// groupId:artifactId, which may predate the install.
func (s *Session) forget(c artifact.Coordinate) {
	prefix := c.GroupID + ":" + c.ArtifactID + ":"
	for _, k := range s.versions.Keys() {
		if strings.HasPrefix(k, prefix) {
			s.versions.Remove(k)
		}
	}
	for _, k := range s.descriptors.Keys() {
		if strings.HasPrefix(k, prefix) {
			s.descriptors.Remove(k)
		}
	}
}
