package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-depgraph/artifact"
)

const separatorWidth = 60 // Width of separator lines in text output

// TreeJSON is the JSON form of a dependency tree.
type TreeJSON struct {
	Coordinate string     `json:"coordinate"`
	Scope      string     `json:"scope,omitempty"`
	Optional   bool       `json:"optional,omitempty"`
	Requested  string     `json:"requested,omitempty"`
	Managed    bool       `json:"managed,omitempty"`
	Cyclic     bool       `json:"cyclic,omitempty"`
	File       string     `json:"file,omitempty"`
	Children   []TreeJSON `json:"children,omitempty"`
}

// TreeToJSON renders the tree rooted at n as indented JSON.
func TreeToJSON(n *Node) ([]byte, error) {
	return json.MarshalIndent(treeJSON(n), "", "  ")
}

func treeJSON(n *Node) TreeJSON {
	out := TreeJSON{
		Coordinate: n.Artifact.String(),
		Optional:   n.Optional,
		Managed:    n.Premanaged.Managed,
		Cyclic:     n.Cyclic,
		File:       n.File,
	}
	if !n.IsRoot() {
		out.Scope = n.Scope.Effective().String()
		if n.Requested != n.Artifact.Version {
			out.Requested = n.Requested
		}
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, treeJSON(c))
	}
	return out
}

// TreeToText renders the tree rooted at n in the indented form printed by
// dependency tree tools.
func TreeToText(n *Node) string {
	var buf bytes.Buffer
	printNode(&buf, n, "", true, true)
	return buf.String()
}

func printNode(buf *bytes.Buffer, n *Node, prefix string, isLast, isTop bool) {
	if isTop {
		buf.WriteString(n.Artifact.String())
	} else {
		connector := "├── "
		if isLast {
			connector = "└── "
		}
		buf.WriteString(prefix + connector + n.Artifact.String())
		buf.WriteString(" [" + n.Scope.Effective().String() + "]")
	}
	if n.Optional {
		buf.WriteString(" (optional)")
	}
	if n.Premanaged.Managed && n.Premanaged.Version != "" {
		fmt.Fprintf(buf, " (version managed from %s)", n.Premanaged.Version)
	}
	if n.Cyclic {
		buf.WriteString(" (circular)")
	}
	buf.WriteString("\n")

	childPrefix := prefix
	if !isTop {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, c := range n.Children {
		printNode(buf, c, childPrefix, i == len(n.Children)-1, false)
	}
}

// GraphJSON is the JSON form of a graph: a flat, sorted vertex list.
type GraphJSON struct {
	Root      string       `json:"root"`
	Artifacts []VertexJSON `json:"artifacts"`
}

// VertexJSON is one artifact of a GraphJSON.
type VertexJSON struct {
	Key          string   `json:"key"`
	Version      string   `json:"version"`
	Scope        string   `json:"scope,omitempty"`
	Optional     bool     `json:"optional,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Strategy     string   `json:"strategy,omitempty"`
}

// ToJSON outputs the graph as indented JSON with vertices in key order.
func (g *Graph) ToJSON() ([]byte, error) {
	out := GraphJSON{Root: g.Root.String()}
	for _, key := range g.sortedKeys() {
		v := g.Vertices[key]
		vj := VertexJSON{
			Key:      key.String(),
			Version:  v.Version,
			Optional: v.Optional,
		}
		if !v.IsRoot {
			vj.Scope = v.Scope.Effective().String()
		}
		for _, dep := range v.Dependencies {
			vj.Dependencies = append(vj.Dependencies, dep.String())
		}
		if v.Selection != nil {
			vj.Strategy = string(v.Selection.Strategy)
		}
		out.Artifacts = append(out.Artifacts, vj)
	}
	return json.MarshalIndent(out, "", "  ")
}

// ToDOT outputs the graph in Graphviz DOT format.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box];\n\n")

	keys := g.sortedKeys()
	for _, key := range keys {
		v := g.Vertices[key]
		label := fmt.Sprintf("%s\\n%s", key.Versionless(), v.Version)
		attrs := fmt.Sprintf(`label="%s"`, label) //nolint:gocritic // DOT format requires this quote style
		if v.IsRoot {
			attrs += ", style=bold"
		}
		if v.Optional {
			attrs += ", style=dashed"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", key.String(), attrs)
	}

	buf.WriteString("\n")

	for _, key := range keys {
		v := g.Vertices[key]
		for _, dep := range v.Dependencies {
			attrs := ""
			if d := g.Vertices[dep]; d != nil && !d.IsRoot {
				attrs = fmt.Sprintf(" [label=%q]", d.Scope.Effective().String())
			}
			fmt.Fprintf(&buf, "  %q -> %q%s;\n", key.String(), dep.String(), attrs)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ToText outputs a human-readable summary and tree of the graph.
func (g *Graph) ToText() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Dependency Graph (root: %s)\n", g.Root.String())
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	stats := g.Stats()
	fmt.Fprintf(&buf, "Total artifacts: %d\n", stats.TotalArtifacts)
	fmt.Fprintf(&buf, "Direct dependencies: %d\n", stats.DirectDependencies)
	fmt.Fprintf(&buf, "Transitive dependencies: %d\n", stats.TransitiveDependencies)
	fmt.Fprintf(&buf, "Max depth: %d\n", stats.MaxDepth)
	if stats.OptionalDependencies > 0 {
		fmt.Fprintf(&buf, "Optional dependencies: %d\n", stats.OptionalDependencies)
	}
	for _, s := range artifact.AllScopes {
		if n := stats.ByScope[s]; n > 0 {
			fmt.Fprintf(&buf, "Scope %s: %d\n", s, n)
		}
	}
	buf.WriteString("\n")

	buf.WriteString("Dependency Tree:\n")
	g.printTree(&buf, g.Root, "", true, make(map[artifact.Key]bool))

	return buf.String()
}

func (g *Graph) printTree(buf *bytes.Buffer, key artifact.Key, prefix string, isLast bool, visited map[artifact.Key]bool) {
	v := g.Vertices[key]
	label := key.String()
	if v != nil {
		label = v.Coordinate().String()
	}

	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if prefix == "" && key == g.Root {
		buf.WriteString(label)
	} else {
		buf.WriteString(prefix + connector + label)
	}

	if v != nil && v.Optional {
		buf.WriteString(" (optional)")
	}

	if visited[key] {
		buf.WriteString(" (circular)\n")
		return
	}
	buf.WriteString("\n")

	visited[key] = true
	defer func() { visited[key] = false }()

	if v == nil {
		return
	}

	for i, dep := range v.Dependencies {
		childPrefix := prefix
		if key != g.Root {
			if isLast {
				childPrefix += "    "
			} else {
				childPrefix += "│   "
			}
		}
		g.printTree(buf, dep, childPrefix, i == len(v.Dependencies)-1, visited)
	}
}

// ToExplainText outputs a human-readable explanation for a specific artifact.
func (g *Graph) ToExplainText(name string) (string, error) {
	explanation, err := g.Explain(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Explanation for: %s:%s\n", explanation.Artifact.String(), explanation.Version)
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	if sel := explanation.Selection; sel != nil {
		buf.WriteString("Version Selection:\n")
		fmt.Fprintf(&buf, "  Selected version: %s\n", sel.SelectedVersion)
		if sel.SelectedScope != "" {
			fmt.Fprintf(&buf, "  Selected scope: %s\n", sel.SelectedScope)
		}
		fmt.Fprintf(&buf, "  Strategy: %s\n", sel.Strategy)
		fmt.Fprintf(&buf, "  Deciding factor: %s\n", sel.DecidingFactor)

		if len(sel.Candidates) > 0 {
			buf.WriteString("\n  Candidates considered:\n")
			for _, c := range sel.Candidates {
				status := "  "
				if c.Selected {
					status = "✓ "
				}
				fmt.Fprintf(&buf, "    %s%s (depth %d) - requested by: %s\n",
					status, c.Version, c.Depth, c.RequestedBy.Versionless())
				if !c.Selected && c.RejectionReason != "" {
					fmt.Fprintf(&buf, "      Reason not selected: %s\n", c.RejectionReason)
				}
			}
		}
	}

	if len(explanation.DependencyChains) > 0 {
		buf.WriteString("\nDependency Chains (paths from root):\n")
		for i, chain := range explanation.DependencyChains {
			fmt.Fprintf(&buf, "  %d. %s\n", i+1, chain.String())
		}
	}

	return buf.String(), nil
}

// ArtifactInfo represents an artifact in the flat list output.
type ArtifactInfo struct {
	Coordinate string   `json:"coordinate"`
	Scope      string   `json:"scope"`
	Optional   bool     `json:"optional,omitempty"`
	File       string   `json:"file,omitempty"`
	RequiredBy []string `json:"required_by,omitempty"`
}

// ToArtifactList outputs a flat list of the non-root artifacts sorted by coordinate.
func (g *Graph) ToArtifactList() []ArtifactInfo {
	list := make([]ArtifactInfo, 0, len(g.Vertices))

	for key, v := range g.Vertices {
		if key == g.Root {
			continue
		}

		requiredBy := make([]string, len(v.Dependents))
		for i, dep := range v.Dependents {
			requiredBy[i] = dep.Versionless()
		}

		list = append(list, ArtifactInfo{
			Coordinate: v.Coordinate().String(),
			Scope:      v.Scope.Effective().String(),
			Optional:   v.Optional,
			File:       v.File,
			RequiredBy: requiredBy,
		})
	}

	slices.SortFunc(list, func(a, b ArtifactInfo) int {
		return strings.Compare(a.Coordinate, b.Coordinate)
	})
	return list
}
