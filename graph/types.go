package graph

import (
	"fmt"

	"github.com/albertocavalcante/go-depgraph/artifact"
)

// Graph is an index over a dependency tree keyed by artifact identity.
// It supports bidirectional traversal (dependencies and dependents) and
// provides query methods for explaining version selections.
type Graph struct {
	// Root is the key of the root artifact.
	Root artifact.Key

	// Vertices contains all artifacts in the graph.
	Vertices map[artifact.Key]*Vertex
}

// Vertex is one artifact in the graph.
type Vertex struct {
	Key     artifact.Key
	Version string
	Scope   artifact.Scope

	// Dependencies are the direct dependencies in declaration order.
	Dependencies []artifact.Key

	// Dependents are artifacts that directly depend on this one.
	Dependents []artifact.Key

	// RequestedVersions maps each dependent to the version specification it declared.
	RequestedVersions map[artifact.Key]string

	// Selection explains how the version was chosen, if mediation ran.
	Selection *SelectionInfo

	IsRoot   bool
	Optional bool

	// File is the resolved local path, if any.
	File string
}

// Coordinate returns the vertex as a coordinate.
func (v *Vertex) Coordinate() artifact.Coordinate {
	return artifact.Coordinate{
		GroupID:    v.Key.GroupID,
		ArtifactID: v.Key.ArtifactID,
		Classifier: v.Key.Classifier,
		Extension:  v.Key.Extension,
		Version:    v.Version,
	}
}

// SelectionInfo explains why a particular version was selected.
type SelectionInfo struct {
	// Strategy is how the version was selected.
	Strategy SelectionStrategy

	// SelectedVersion is the version that was selected.
	SelectedVersion string

	// SelectedScope is the effective scope after scope mediation.
	SelectedScope artifact.Scope

	// Candidates are all occurrences considered during selection, in
	// breadth-first order.
	Candidates []VersionCandidate

	// DecidingFactor explains what determined the selection.
	DecidingFactor string
}

// SelectionStrategy indicates how a version was selected.
type SelectionStrategy string

const (
	// StrategyNearest indicates the shallowest occurrence won.
	StrategyNearest SelectionStrategy = "nearest"

	// StrategyFirstDeclared indicates occurrences tied on depth and the one
	// declared first won.
	StrategyFirstDeclared SelectionStrategy = "first_declared"

	// StrategyUnique indicates there was a single occurrence.
	StrategyUnique SelectionStrategy = "unique"

	// StrategyRoot indicates this is the root artifact (no selection needed).
	StrategyRoot SelectionStrategy = "root"
)

// VersionCandidate is one occurrence of an artifact considered during selection.
type VersionCandidate struct {
	Version string

	// Depth is the distance of the occurrence from the root.
	Depth int

	// RequestedBy is the parent that declared this occurrence.
	RequestedBy artifact.Key

	Scope artifact.Scope

	Selected bool

	// RejectionReason explains why this occurrence lost (if applicable).
	RejectionReason string
}

// Explanation provides a detailed explanation of why an artifact is at its current version.
type Explanation struct {
	Artifact artifact.Key
	Version  string

	Selection *SelectionInfo

	// DependencyChains shows all paths from the root to this artifact.
	DependencyChains []DependencyChain

	// RequestSummary summarizes all version requests for this artifact.
	RequestSummary string
}

// DependencyChain represents a path of dependencies from root to an artifact.
type DependencyChain struct {
	Path []artifact.Key

	// RequestedVersion is the version requested at the end of this chain.
	RequestedVersion string
}

// String returns a human-readable representation of the chain.
func (c DependencyChain) String() string {
	if len(c.Path) == 0 {
		return ""
	}
	result := c.Path[0].Versionless()
	for i := 1; i < len(c.Path); i++ {
		result += " -> " + c.Path[i].Versionless()
	}
	if c.RequestedVersion != "" {
		result += fmt.Sprintf(" (requested %s)", c.RequestedVersion)
	}
	return result
}

// Stats provides statistics about the graph.
type Stats struct {
	TotalArtifacts         int
	DirectDependencies     int
	TransitiveDependencies int
	MaxDepth               int
	OptionalDependencies   int

	// ByScope counts non-root artifacts per effective scope.
	ByScope map[artifact.Scope]int
}
