package depgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/transport"
)

// Sentinel errors for common resolution failures.
var (
	// ErrNotFound indicates an artifact, descriptor or version listing does
	// not exist in any repository.
	ErrNotFound = transport.ErrNotFound

	// ErrOffline indicates remote access was needed in an offline session.
	ErrOffline = transport.ErrOffline

	// ErrInvalidRequest indicates a request that cannot be processed, such
	// as a collect request without exactly one root.
	ErrInvalidRequest = errors.New("invalid request")
)

// CollectionError reports a dependency that could not be collected. The
// dependency and its subtree are missing from the result.
type CollectionError struct {
	// Dependency is the edge that failed, after management was applied.
	Dependency artifact.Dependency

	// Path lists the artifacts from the root down to the failing edge's
	// parent.
	Path []artifact.Coordinate

	Err error
}

func (e *CollectionError) Error() string {
	var b strings.Builder
	b.WriteString("failed to collect ")
	b.WriteString(e.Dependency.Artifact.String())
	if len(e.Path) > 0 {
		b.WriteString(" via ")
		for i, c := range e.Path {
			if i > 0 {
				b.WriteString(" -> ")
			}
			b.WriteString(c.Key().Versionless())
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// DependencyCollectionError is returned when collection cannot proceed at
// all, for example because the root descriptor is unavailable. Result holds
// whatever was collected before the failure.
type DependencyCollectionError struct {
	Result *CollectResult
	Err    error
}

func (e *DependencyCollectionError) Error() string {
	return "dependency collection failed: " + e.Err.Error()
}

func (e *DependencyCollectionError) Unwrap() error {
	return e.Err
}

// Attempt records one failed try to fetch an artifact.
type Attempt struct {
	// Repository is the id of the repository tried, or "local".
	Repository string
	Err        error
}

// ArtifactResolutionError reports an artifact that no repository could
// supply. It matches ErrNotFound only when every attempt was a miss.
type ArtifactResolutionError struct {
	Coordinate artifact.Coordinate
	Attempts   []Attempt
}

func (e *ArtifactResolutionError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("could not resolve %s: no repositories", e.Coordinate)
	}
	if len(e.Attempts) == 1 {
		return fmt.Sprintf("could not resolve %s: %s: %v", e.Coordinate, e.Attempts[0].Repository, e.Attempts[0].Err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "could not resolve %s from %d repositories:", e.Coordinate, len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %s: %v", a.Repository, a.Err)
	}
	return b.String()
}

// Unwrap returns the attempt errors. When some repository failed for a
// reason other than a miss, only those failures are returned, so that
// errors.Is(err, ErrNotFound) holds only when the artifact is absent
// everywhere.
func (e *ArtifactResolutionError) Unwrap() []error {
	var misses, failures []error
	for _, a := range e.Attempts {
		if transport.IsNotFound(a.Err) {
			misses = append(misses, a.Err)
		} else {
			failures = append(failures, a.Err)
		}
	}
	if len(failures) > 0 {
		return failures
	}
	return misses
}
