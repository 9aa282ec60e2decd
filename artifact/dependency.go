package artifact

import (
	"fmt"
	"strings"
)

// Wildcard matches any groupId or artifactId in an Exclusion.
const Wildcard = "*"

// Exclusion removes a groupId:artifactId pair, and everything below it, from
// the subtree of the dependency that declares it.
type Exclusion struct {
	GroupID    string
	ArtifactID string
}

// ParseExclusion parses "groupId:artifactId". Either side may be "*".
func ParseExclusion(s string) (Exclusion, error) {
	g, a, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || g == "" || a == "" || strings.Contains(a, ":") {
		return Exclusion{}, fmt.Errorf("invalid exclusion %q: expected groupId:artifactId", s)
	}
	return Exclusion{GroupID: g, ArtifactID: a}, nil
}

// Matches reports whether the exclusion applies to the given key.
func (e Exclusion) Matches(k Key) bool {
	return matchSegment(e.GroupID, k.GroupID) && matchSegment(e.ArtifactID, k.ArtifactID)
}

func (e Exclusion) String() string {
	return e.GroupID + ":" + e.ArtifactID
}

func matchSegment(pattern, value string) bool {
	return pattern == Wildcard || pattern == value
}

// Dependency is a declared edge to an artifact.
type Dependency struct {
	// Artifact is the target. Its Version may hold a range or meta version
	// until the collector resolves it.
	Artifact Coordinate

	// Type is the declared packaging type (jar, test-jar, pom, ...). Empty
	// means the extension doubles as the type.
	Type string

	Scope      Scope
	Optional   bool
	Exclusions []Exclusion

	// SystemPath locates the file of a system-scoped dependency.
	SystemPath string
}

// NewDependency creates a dependency on the coordinate with the given scope.
func NewDependency(c Coordinate, scope Scope) Dependency {
	return Dependency{Artifact: c, Scope: scope}
}

// Key returns the identity key of the target artifact.
func (d Dependency) Key() Key {
	return d.Artifact.Key()
}

// ArtifactType returns the declared type, falling back to the extension.
func (d Dependency) ArtifactType() string {
	if d.Type != "" {
		return d.Type
	}
	return d.Artifact.Key().Extension
}

// Excludes reports whether any of the dependency's exclusions match k.
func (d Dependency) Excludes(k Key) bool {
	for _, e := range d.Exclusions {
		if e.Matches(k) {
			return true
		}
	}
	return false
}

// WithArtifact returns a copy of d pointing at a different coordinate.
func (d Dependency) WithArtifact(c Coordinate) Dependency {
	d.Artifact = c
	return d
}

// WithScope returns a copy of d with the scope replaced.
func (d Dependency) WithScope(s Scope) Dependency {
	d.Scope = s
	return d
}

// WithExclusions returns a copy of d with extra exclusions appended. The
// receiver's slice is never shared with the copy.
func (d Dependency) WithExclusions(extra ...Exclusion) Dependency {
	merged := make([]Exclusion, 0, len(d.Exclusions)+len(extra))
	merged = append(merged, d.Exclusions...)
	for _, e := range extra {
		if !containsExclusion(merged, e) {
			merged = append(merged, e)
		}
	}
	d.Exclusions = merged
	return d
}

func containsExclusion(list []Exclusion, e Exclusion) bool {
	for _, x := range list {
		if x == e {
			return true
		}
	}
	return false
}

func (d Dependency) String() string {
	s := d.Artifact.String()
	if d.Scope != ScopeDefault {
		s += " (" + string(d.Scope)
		if d.Optional {
			s += ", optional"
		}
		s += ")"
	} else if d.Optional {
		s += " (optional)"
	}
	return s
}
