// Package mediation selects one version and scope per artifact identity in a
// collected dependency tree.
//
// The policy is "nearest definition wins": among all occurrences of an
// identity key, the one closest to the root survives and ties at equal depth
// go to the occurrence declared first. Losing occurrences are removed
// together with their subtrees.
//
// Scopes are then mediated separately. Direct dependencies keep the scope they
// declare; every other survivor takes the narrowest scope reachable over all
// surviving paths, re-derived until no scope changes.
package mediation

import (
	"slices"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/graph"
)

// Result contains the output of mediation.
type Result struct {
	// Root is the mediated tree. Each identity key occurs at most once.
	Root *graph.Node

	// Selections records, per identity key, every occurrence that competed
	// and why the winner won.
	Selections map[artifact.Key]*graph.SelectionInfo

	// BFSOrder is the breadth-first order of the surviving nodes, root first.
	BFSOrder []artifact.Key
}

// Conflicts returns the keys, in breadth-first order, whose occurrences
// requested more than one distinct version.
func (r *Result) Conflicts() []artifact.Key {
	var out []artifact.Key
	for _, key := range r.BFSOrder {
		sel := r.Selections[key]
		if sel == nil {
			continue
		}
		seen := make([]string, 0, len(sel.Candidates))
		for _, c := range sel.Candidates {
			if !slices.Contains(seen, c.Version) {
				seen = append(seen, c.Version)
			}
		}
		if len(seen) > 1 {
			out = append(out, key)
		}
	}
	return out
}

// Graph indexes the mediated tree with its selection records.
func (r *Result) Graph() *graph.Graph {
	return graph.Build(r.Root, r.Selections)
}
