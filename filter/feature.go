package filter

import (
	"strings"

	"github.com/albertocavalcante/go-depgraph/graph"
)

// FeatureFilter accepts nodes by one string feature of their artifact, such
// as its type or group id.
//
// When includes are set, only nodes whose feature matches an include pass.
// Nodes whose feature matches an exclude are then rejected.
type FeatureFilter struct {
	name     string
	feature  func(*graph.Node) string
	matches  func(value, pattern string) bool
	includes []string
	excludes []string
}

// Includes returns the parsed include patterns.
func (f *FeatureFilter) Includes() []string { return f.includes }

// Excludes returns the parsed exclude patterns.
func (f *FeatureFilter) Excludes() []string { return f.excludes }

// Accept implements Filter.
func (f *FeatureFilter) Accept(n *graph.Node, _ []*graph.Node) bool {
	value := f.feature(n)
	if len(f.includes) > 0 && !f.matchesAny(value, f.includes) {
		return false
	}
	return !f.matchesAny(value, f.excludes)
}

func (f *FeatureFilter) matchesAny(value string, patterns []string) bool {
	for _, p := range patterns {
		if f.matches(value, p) {
			return true
		}
	}
	return false
}

func (f *FeatureFilter) String() string {
	return f.name + "{includes=" + strings.Join(f.includes, ",") + " excludes=" + strings.Join(f.excludes, ",") + "}"
}

// SplitList parses a comma-separated list, trimming blanks and dropping
// empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newFeatureFilter(name, includes, excludes string, feature func(*graph.Node) string, matches func(string, string) bool) *FeatureFilter {
	return &FeatureFilter{
		name:     name,
		feature:  feature,
		matches:  matches,
		includes: SplitList(includes),
		excludes: SplitList(excludes),
	}
}

func equal(value, pattern string) bool { return value == pattern }

// NewTypeFilter filters on the dependency type, for example "jar,war".
func NewTypeFilter(includes, excludes string) *FeatureFilter {
	return newFeatureFilter("TypeFilter", includes, excludes, func(n *graph.Node) string {
		if n.Dependency != nil {
			return n.Dependency.ArtifactType()
		}
		return n.Key().Extension
	}, equal)
}

// NewClassifierFilter filters on the artifact classifier. Artifacts without
// a classifier never match a pattern.
func NewClassifierFilter(includes, excludes string) *FeatureFilter {
	return newFeatureFilter("ClassifierFilter", includes, excludes, func(n *graph.Node) string {
		return n.Artifact.Classifier
	}, equal)
}

// NewGroupIDFilter filters on the group id. Patterns match as prefixes, so
// "org.apache" matches "org.apache.commons".
func NewGroupIDFilter(includes, excludes string) *FeatureFilter {
	return newFeatureFilter("GroupIDFilter", includes, excludes, func(n *graph.Node) string {
		return n.Artifact.GroupID
	}, strings.HasPrefix)
}

// NewArtifactIDFilter filters on the artifact id.
func NewArtifactIDFilter(includes, excludes string) *FeatureFilter {
	return newFeatureFilter("ArtifactIDFilter", includes, excludes, func(n *graph.Node) string {
		return n.Artifact.ArtifactID
	}, equal)
}
