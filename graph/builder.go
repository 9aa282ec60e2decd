package graph

import (
	"slices"

	"github.com/albertocavalcante/go-depgraph/artifact"
)

// Build indexes the tree rooted at root into a Graph.
//
// The tree is normally the output of mediation, where each key occurs once.
// For an unmediated tree the first occurrence in pre-order defines a vertex's
// version and scope. Cyclic nodes contribute an edge back to the existing
// vertex. selections may be nil.
func Build(root *Node, selections map[artifact.Key]*SelectionInfo) *Graph {
	g := &Graph{
		Root:     root.Key(),
		Vertices: make(map[artifact.Key]*Vertex),
	}

	root.Walk(func(n *Node, parents []*Node) bool {
		key := n.Key()
		v, seen := g.Vertices[key]
		if !seen {
			v = &Vertex{
				Key:               key,
				Version:           n.Artifact.Version,
				Scope:             n.Scope,
				RequestedVersions: make(map[artifact.Key]string),
				IsRoot:            n.IsRoot(),
				Optional:          n.Optional,
				File:              n.File,
			}
			if sel, ok := selections[key]; ok {
				v.Selection = sel
			} else if n.IsRoot() {
				v.Selection = &SelectionInfo{
					Strategy:        StrategyRoot,
					SelectedVersion: n.Artifact.Version,
					DecidingFactor:  "root artifact",
				}
			}
			g.Vertices[key] = v
		}

		if len(parents) > 0 {
			parentKey := parents[len(parents)-1].Key()
			if parent := g.Vertices[parentKey]; parent != nil && !slices.Contains(parent.Dependencies, key) {
				parent.Dependencies = append(parent.Dependencies, key)
			}
			if !slices.Contains(v.Dependents, parentKey) {
				v.Dependents = append(v.Dependents, parentKey)
			}
			if _, ok := v.RequestedVersions[parentKey]; !ok {
				requested := n.Requested
				if requested == "" {
					requested = n.Artifact.Version
				}
				v.RequestedVersions[parentKey] = requested
			}
		}

		// Repeated keys were expanded at their first occurrence.
		return !seen && !n.Cyclic
	})

	return g
}
