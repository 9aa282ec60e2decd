package mediation

import (
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/graph"
)

// occurrence is one appearance of an identity key reached during the walk.
type occurrence struct {
	node   *graph.Node
	parent *graph.Node
	depth  int
}

// Mediate resolves version and scope conflicts in the tree rooted at root.
//
// The tree is modified in place: losing nodes are removed from their
// parents' children, and surviving nodes get their mediated depth and scope.
// The returned Result shares root. Mediate is deterministic for a given tree.
func Mediate(root *graph.Node) *Result {
	m := &mediator{
		winners:     make(map[artifact.Key]*graph.Node),
		occurrences: make(map[artifact.Key][]occurrence),
		parents:     make(map[*graph.Node]*graph.Node),
	}
	m.walk(root)
	m.prune(root)
	m.mediateScopes()

	return &Result{
		Root:       root,
		Selections: m.selections(),
		BFSOrder:   m.order,
	}
}

type mediator struct {
	winners     map[artifact.Key]*graph.Node
	occurrences map[artifact.Key][]occurrence
	parents     map[*graph.Node]*graph.Node
	order       []artifact.Key
}

// walk visits the tree breadth-first. For a tree, breadth-first order ranks
// equal-depth nodes exactly as pre-order does, so the first occurrence of a
// key reached here is both the nearest and the first declared.
func (m *mediator) walk(root *graph.Node) {
	type queueItem struct {
		node   *graph.Node
		parent *graph.Node
		depth  int
	}
	queue := []queueItem{{node: root}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		key := item.node.Key()
		m.occurrences[key] = append(m.occurrences[key], occurrence{
			node:   item.node,
			parent: item.parent,
			depth:  item.depth,
		})
		if _, ok := m.winners[key]; ok {
			continue
		}

		m.winners[key] = item.node
		m.parents[item.node] = item.parent
		m.order = append(m.order, key)
		item.node.Depth = item.depth

		if item.node.Cyclic {
			continue
		}
		for _, c := range item.node.Children {
			queue = append(queue, queueItem{node: c, parent: item.node, depth: item.depth + 1})
		}
	}
}

// prune removes every child that did not win its key. Subtrees of losers are
// dropped with them.
func (m *mediator) prune(n *graph.Node) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if m.winners[c.Key()] == c {
			kept = append(kept, c)
			m.prune(c)
		}
	}
	clear(n.Children[len(kept):])
	n.Children = kept
	if len(n.Children) == 0 {
		n.Children = nil
	}
}

// mediateScopes narrows the scope of each non-direct survivor to the
// narrowest scope derivable through any occurrence whose parent survived,
// repeating until stable.
func (m *mediator) mediateScopes() {
	// Each pass can only narrow scopes, and there are five scopes.
	for range 5 * (len(m.order) + 1) {
		changed := false
		for _, key := range m.order {
			winner := m.winners[key]
			parent := m.parents[winner]
			if parent == nil || parent.IsRoot() {
				continue
			}

			var scopes []artifact.Scope
			for _, o := range m.occurrences[key] {
				if o.parent == nil || m.winners[o.parent.Key()] != o.parent {
					continue
				}
				if s, ok := derive(o); ok {
					scopes = append(scopes, s)
				}
			}
			if len(scopes) == 0 {
				continue
			}
			if narrowest := artifact.NarrowestScope(scopes...); narrowest != winner.Scope.Effective() {
				winner.Scope = narrowest
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func derive(o occurrence) (artifact.Scope, bool) {
	if o.parent.IsRoot() {
		return o.node.Scope.Effective(), true
	}
	declared := artifact.ScopeDefault
	if o.node.Dependency != nil {
		declared = o.node.Dependency.Scope
	}
	return artifact.DeriveScope(o.parent.Scope, declared)
}

func (m *mediator) selections() map[artifact.Key]*graph.SelectionInfo {
	out := make(map[artifact.Key]*graph.SelectionInfo, len(m.order))
	for _, key := range m.order {
		winner := m.winners[key]
		occs := m.occurrences[key]

		info := &graph.SelectionInfo{
			SelectedVersion: winner.Artifact.Version,
			SelectedScope:   winner.Scope.Effective(),
			Candidates:      make([]graph.VersionCandidate, 0, len(occs)),
		}
		if winner.IsRoot() {
			info.SelectedScope = ""
		}

		var winnerDepth int
		tied := false
		for i, o := range occs {
			if i == 0 {
				winnerDepth = o.depth
			} else if o.depth == winnerDepth {
				tied = true
			}
		}

		for i, o := range occs {
			c := graph.VersionCandidate{
				Version:  o.node.Artifact.Version,
				Depth:    o.depth,
				Scope:    o.node.Scope,
				Selected: i == 0,
			}
			if o.parent != nil {
				c.RequestedBy = o.parent.Key()
			}
			if i > 0 {
				c.RejectionReason = rejectionReason(o, winnerDepth)
			}
			info.Candidates = append(info.Candidates, c)
		}

		switch {
		case winner.IsRoot():
			info.Strategy = graph.StrategyRoot
			info.DecidingFactor = "root artifact"
		case len(occs) == 1:
			info.Strategy = graph.StrategyUnique
			info.DecidingFactor = "only occurrence in the graph"
		case tied:
			info.Strategy = graph.StrategyFirstDeclared
			info.DecidingFactor = fmt.Sprintf("declared first among occurrences at depth %d", winnerDepth)
		default:
			info.Strategy = graph.StrategyNearest
			info.DecidingFactor = fmt.Sprintf("nearest to root at depth %d", winnerDepth)
		}
		out[key] = info
	}
	return out
}

func rejectionReason(o occurrence, winnerDepth int) string {
	switch {
	case o.node.Cyclic:
		return "cyclic reference to an ancestor"
	case o.depth > winnerDepth:
		return fmt.Sprintf("depth %d is farther than %d", o.depth, winnerDepth)
	default:
		return fmt.Sprintf("declared after the winner at depth %d", winnerDepth)
	}
}

// Explain returns the selection record for a key, or nil if the key did not
// survive collection.
func (r *Result) Explain(key artifact.Key) *graph.SelectionInfo {
	return r.Selections[key]
}

// Survivors returns the mediated nodes in breadth-first order, root excluded.
func (r *Result) Survivors() []*graph.Node {
	var out []*graph.Node
	queue := slices.Clone(r.Root.Children)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n)
		queue = append(queue, n.Children...)
	}
	return out
}
