package filter

import (
	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/graph"
)

// ExclusionFilter rejects nodes whose artifact matches any exclusion.
type ExclusionFilter struct {
	exclusions []artifact.Exclusion
}

// NewExclusionFilter creates a filter from exclusion patterns.
func NewExclusionFilter(exclusions ...artifact.Exclusion) *ExclusionFilter {
	return &ExclusionFilter{exclusions: exclusions}
}

// ParseExclusionFilter builds an ExclusionFilter from "groupId:artifactId"
// patterns. "*" matches any segment.
func ParseExclusionFilter(patterns ...string) (*ExclusionFilter, error) {
	f := &ExclusionFilter{}
	for _, p := range patterns {
		e, err := artifact.ParseExclusion(p)
		if err != nil {
			return nil, err
		}
		f.exclusions = append(f.exclusions, e)
	}
	return f, nil
}

// Accept implements Filter.
func (f *ExclusionFilter) Accept(n *graph.Node, _ []*graph.Node) bool {
	key := n.Key()
	for _, e := range f.exclusions {
		if e.Matches(key) {
			return false
		}
	}
	return true
}

// TransitivityFilter optionally restricts a tree to the root's direct
// dependencies.
type TransitivityFilter struct {
	excludeTransitive bool
}

// NewTransitivityFilter returns a filter that rejects every node below the
// first level when excludeTransitive is set, and accepts everything otherwise.
func NewTransitivityFilter(excludeTransitive bool) *TransitivityFilter {
	return &TransitivityFilter{excludeTransitive: excludeTransitive}
}

// Accept implements Filter.
func (f *TransitivityFilter) Accept(_ *graph.Node, parents []*graph.Node) bool {
	return !f.excludeTransitive || len(parents) <= 1
}

// OptionalFilter rejects optional nodes.
func OptionalFilter() Filter {
	return Func(func(n *graph.Node, _ []*graph.Node) bool {
		return !n.Optional
	})
}
