package depgraph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/repository"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInstallThenResolveFromSharedLocalRepository(t *testing.T) {
	local := t.TempDir()
	producer, err := NewSession(local)
	if err != nil {
		t.Fatal(err)
	}

	paths, err := producer.InstallAll(context.Background(), []InstallArtifact{
		{Artifact: artifact.MustParseCoordinate("g:lib:pom:1.0"), File: writeFile(t, "pom.xml", pomXML("g:lib:1.0"))},
		{Artifact: artifact.MustParseCoordinate("g:lib:1.0"), File: writeFile(t, "lib.jar", "lib-bytes")},
	})
	if err != nil {
		t.Fatalf("InstallAll() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}

	empty := newRepoServer(t, map[string]string{})
	consumer, err := NewSession(local, WithRepositories(repository.New("remote", empty.URL)))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Resolve(context.Background(), consumer, resolveRequest(dep("g:lib:[1.0,2.0)")))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(res.Artifacts) != 1 {
		t.Fatalf("Artifacts = %+v", res.Artifacts)
	}
	got := res.Artifacts[0]
	if got.Request.Artifact.Version != "1.0" || got.Repository != repository.LocalID {
		t.Errorf("artifact = %s from %q, want 1.0 from the local repository", got.Request.Artifact, got.Repository)
	}
	if content, err := os.ReadFile(got.Path); err != nil || string(content) != "lib-bytes" {
		t.Errorf("installed file = %q, %v", content, err)
	}
	if n := empty.hitCount("g/lib/1.0/lib-1.0.jar"); n != 0 {
		t.Errorf("remote asked for the installed jar %d times", n)
	}
}

func TestInstallMergesVersionListing(t *testing.T) {
	s := newTestSession(t)
	jar := writeFile(t, "lib.jar", "x")

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Install(context.Background(), artifact.MustParseCoordinate(fmt.Sprintf("g:lib:%d.0", i+1)), jar)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatalf("Install() error = %v", err)
		}
	}

	md, err := readListing(s.installedListingPath("g", "lib"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"1.0", "2.0", "3.0", "4.0", "5.0"}; !slices.Equal(md.Versioning.Versions, want) {
		t.Errorf("versions = %v, want %v", md.Versioning.Versions, want)
	}
	if md.Versioning.Release != "5.0" {
		t.Errorf("release = %q, want 5.0", md.Versioning.Release)
	}
}

func TestInstallForgetsCachedMisses(t *testing.T) {
	empty := newRepoServer(t, map[string]string{})
	repos := []repository.Repository{repository.New("remote", empty.URL)}
	s := newTestSession(t, WithRepositories(repos...))
	ctx := context.Background()
	ranged := artifact.MustParseCoordinate("g:lib:[1.0,)")

	if _, err := s.resolveVersion(ctx, ranged, repos); !errors.Is(err, ErrNotFound) {
		t.Fatalf("resolveVersion() before install error = %v, want ErrNotFound", err)
	}
	if _, err := s.Install(ctx, artifact.MustParseCoordinate("g:lib:1.2"), writeFile(t, "lib.jar", "x")); err != nil {
		t.Fatal(err)
	}
	vr, err := s.resolveVersion(ctx, ranged, repos)
	if err != nil {
		t.Fatalf("resolveVersion() after install error = %v", err)
	}
	if vr.Version != "1.2" || vr.Repository != repository.LocalID {
		t.Errorf("resolveVersion() = %+v, want 1.2 from the local repository", vr)
	}
}

func TestInstallRejectsBadInput(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	jar := writeFile(t, "lib.jar", "x")

	if _, err := s.Install(ctx, artifact.MustParseCoordinate("g:lib:[1.0,2.0)"), jar); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("range version error = %v, want ErrInvalidRequest", err)
	}
	if _, err := s.Install(ctx, artifact.Coordinate{GroupID: "g", ArtifactID: "lib"}, jar); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("missing version error = %v, want ErrInvalidRequest", err)
	}
	if _, err := s.Install(ctx, artifact.MustParseCoordinate("g:lib:1.0"), filepath.Join(t.TempDir(), "absent.jar")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
	if _, err := s.Install(ctx, artifact.MustParseCoordinate("g:lib:1.0"), t.TempDir()); err == nil {
		t.Error("installing a directory succeeded")
	}
	if _, err := os.Stat(s.LocalPath(artifact.MustParseCoordinate("g:lib:1.0"))); !os.IsNotExist(err) {
		t.Errorf("failed installs left a file behind: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Install(cancelled, artifact.MustParseCoordinate("g:lib:1.0"), jar); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled install error = %v, want context.Canceled", err)
	}
}

func TestInstallOverExistingFile(t *testing.T) {
	s := newTestSession(t)
	c := artifact.MustParseCoordinate("g:lib:1.0")

	first, err := s.Install(context.Background(), c, writeFile(t, "v1.jar", "one"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Install(context.Background(), c, first); err != nil {
		t.Fatalf("reinstalling the installed file: %v", err)
	}
	if _, err := s.Install(context.Background(), c, writeFile(t, "v2.jar", "two")); err != nil {
		t.Fatal(err)
	}
	if content, _ := os.ReadFile(first); string(content) != "two" {
		t.Errorf("content = %q, want the newer install", content)
	}
}
