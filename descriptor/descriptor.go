// Package descriptor reads artifact descriptors: the declared dependencies,
// managed dependencies, relocation and repositories of a single artifact.
//
// Two formats are supported:
//   - POM XML, as published next to artifacts in maven2 repositories ([ParsePOM]).
//   - Starlark project files, used to describe a root project
//     without writing XML ([ParseProjectFile]).
//
// Descriptors are already-effective models. Parent inheritance beyond
// groupId/version defaults, profile activation and BOM imports are the job of
// a model builder and are not performed here.
package descriptor

import (
	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/repository"
)

// Descriptor is the dependency-relevant content of one artifact's model.
type Descriptor struct {
	Artifact  artifact.Coordinate
	Packaging string

	// Dependencies are the declared dependencies in declaration order.
	Dependencies []artifact.Dependency

	// Management holds dependencyManagement entries in declaration order.
	Management []artifact.Dependency

	// Relocation names the artifact this one moved to. Empty fields keep
	// the value of the relocated artifact.
	Relocation *Relocation

	// Repositories declared by the model, in priority order.
	Repositories []repository.Repository

	Properties map[string]string
}

// Relocation redirects consumers of an artifact to a new coordinate.
type Relocation struct {
	GroupID    string
	ArtifactID string
	Version    string
	Message    string
}

// Apply returns c moved to the relocation target.
func (r Relocation) Apply(c artifact.Coordinate) artifact.Coordinate {
	if r.GroupID != "" {
		c.GroupID = r.GroupID
	}
	if r.ArtifactID != "" {
		c.ArtifactID = r.ArtifactID
	}
	if r.Version != "" {
		c.Version = r.Version
	}
	return c
}

// Managed looks up the first management entry for key.
func (d *Descriptor) Managed(key artifact.Key) (artifact.Dependency, bool) {
	for _, m := range d.Management {
		if m.Key() == key {
			return m, true
		}
	}
	return artifact.Dependency{}, false
}
