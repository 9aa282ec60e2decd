package graph

import (
	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/repository"
)

// Node is a vertex of a collected dependency tree. A node owns its children.
//
// Before mediation the same artifact key may appear several times in the
// tree. After mediation each key appears at most once.
type Node struct {
	// Dependency is the edge that introduced the node, after dependency
	// management was applied. It is nil for the root.
	Dependency *artifact.Dependency

	// Artifact is the resolved coordinate. Its version is always concrete.
	Artifact artifact.Coordinate

	// Requested is the version specification as declared, before
	// management and range resolution.
	Requested string

	// Scope is the scope derived along the path from the root.
	Scope artifact.Scope

	Optional bool

	Children []*Node

	// Repositories are the repositories, in priority order, from which the
	// node's artifact may be fetched.
	Repositories []repository.Repository

	// File is the local path of the artifact once resolved.
	File string

	// Depth is the distance from the root. The root has depth 0.
	Depth int

	// Cyclic marks a node whose key already occurs on the path from the
	// root. Cyclic nodes are never expanded.
	Cyclic bool

	// Premanaged records the values dependency management replaced.
	Premanaged Premanaged

	// Relocations lists the coordinates this node was relocated from.
	Relocations []artifact.Coordinate
}

// Premanaged holds the declared values that dependency management overrode.
// Empty fields were not managed.
type Premanaged struct {
	Version string
	Scope   artifact.Scope
	Managed bool
}

// IsRoot reports whether the node is the root of the tree.
func (n *Node) IsRoot() bool {
	return n.Dependency == nil
}

// Key returns the identity key of the node's artifact.
func (n *Node) Key() artifact.Key {
	return n.Artifact.Key()
}

// Visitor is called for each node with the path of ancestors from the root.
// The parents slice is reused between calls and must not be retained.
// Returning false skips the node's children.
type Visitor func(n *Node, parents []*Node) bool

// Walk visits the tree rooted at n in pre-order.
func (n *Node) Walk(visit Visitor) {
	n.walk(visit, make([]*Node, 0, 16))
}

func (n *Node) walk(visit Visitor, parents []*Node) {
	if !visit(n, parents) {
		return
	}
	parents = append(parents, n)
	for _, c := range n.Children {
		c.walk(visit, parents)
	}
}

// Stream returns every node of the tree in pre-order, root first.
func (n *Node) Stream() []*Node {
	var out []*Node
	n.Walk(func(node *Node, _ []*Node) bool {
		out = append(out, node)
		return true
	})
	return out
}

// Filter returns the nodes, in pre-order, for which keep returns true.
func (n *Node) Filter(keep func(*Node) bool) []*Node {
	var out []*Node
	n.Walk(func(node *Node, _ []*Node) bool {
		if keep(node) {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Find returns the first node in pre-order with the given key.
func (n *Node) Find(key artifact.Key) *Node {
	var found *Node
	n.Walk(func(node *Node, _ []*Node) bool {
		if found != nil {
			return false
		}
		if node.Key() == key {
			found = node
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the tree, including n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node, []*Node) bool {
		count++
		return true
	})
	return count
}

func (n *Node) String() string {
	s := n.Artifact.String()
	if !n.IsRoot() {
		s += " [" + string(n.Scope.Effective()) + "]"
	}
	if n.Optional {
		s += " (optional)"
	}
	return s
}
