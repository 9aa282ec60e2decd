package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-depgraph/artifact"
)

// Get returns the vertex for an artifact key, or nil if not found.
func (g *Graph) Get(key artifact.Key) *Vertex {
	return g.Vertices[key]
}

// GetByName returns the first vertex, in key order, whose groupId:artifactId
// matches name. Returns nil if not found.
func (g *Graph) GetByName(name string) *Vertex {
	for _, key := range g.sortedKeys() {
		if key.Versionless() == name || key.String() == name {
			return g.Vertices[key]
		}
	}
	return nil
}

// Contains returns true if the graph contains the given artifact.
func (g *Graph) Contains(key artifact.Key) bool {
	_, ok := g.Vertices[key]
	return ok
}

// ContainsName returns true if the graph contains an artifact with the given name.
func (g *Graph) ContainsName(name string) bool {
	return g.GetByName(name) != nil
}

// DirectDeps returns the direct dependencies of an artifact.
func (g *Graph) DirectDeps(key artifact.Key) []artifact.Key {
	if v := g.Vertices[key]; v != nil {
		return v.Dependencies
	}
	return nil
}

// DirectDependents returns artifacts that directly depend on the given artifact.
func (g *Graph) DirectDependents(key artifact.Key) []artifact.Key {
	if v := g.Vertices[key]; v != nil {
		return v.Dependents
	}
	return nil
}

// TransitiveDeps returns all transitive dependencies of an artifact.
// The result is in breadth-first order.
func (g *Graph) TransitiveDeps(key artifact.Key) []artifact.Key {
	return g.bfs(key, func(v *Vertex) []artifact.Key { return v.Dependencies })
}

// TransitiveDependents returns all artifacts that transitively depend on the
// given artifact, closest dependents first.
func (g *Graph) TransitiveDependents(key artifact.Key) []artifact.Key {
	return g.bfs(key, func(v *Vertex) []artifact.Key { return v.Dependents })
}

func (g *Graph) bfs(start artifact.Key, next func(*Vertex) []artifact.Key) []artifact.Key {
	result := make([]artifact.Key, 0)
	visited := map[artifact.Key]bool{start: true}
	queue := []artifact.Key{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		v := g.Vertices[current]
		if v == nil {
			continue
		}
		for _, k := range next(v) {
			if !visited[k] {
				visited[k] = true
				result = append(result, k)
				queue = append(queue, k)
			}
		}
	}
	return result
}

// Path finds the shortest dependency path from one artifact to another.
// Returns nil if no path exists.
func (g *Graph) Path(from, to artifact.Key) []artifact.Key {
	if from == to {
		return []artifact.Key{from}
	}

	type queueItem struct {
		key  artifact.Key
		path []artifact.Key
	}

	visited := map[artifact.Key]bool{from: true}
	queue := []queueItem{{key: from, path: []artifact.Key{from}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		v := g.Vertices[current.key]
		if v == nil {
			continue
		}
		for _, dep := range v.Dependencies {
			if dep == to {
				return append(slices.Clone(current.path), dep)
			}
			if !visited[dep] {
				visited[dep] = true
				newPath := make([]artifact.Key, len(current.path)+1)
				copy(newPath, current.path)
				newPath[len(current.path)] = dep
				queue = append(queue, queueItem{key: dep, path: newPath})
			}
		}
	}
	return nil
}

// AllPaths finds all acyclic dependency paths from one artifact to another.
// This can be expensive for large graphs with many paths.
func (g *Graph) AllPaths(from, to artifact.Key) [][]artifact.Key {
	var result [][]artifact.Key
	g.findAllPaths(from, to, []artifact.Key{from}, make(map[artifact.Key]bool), &result)
	return result
}

func (g *Graph) findAllPaths(current, target artifact.Key, path []artifact.Key, visited map[artifact.Key]bool, result *[][]artifact.Key) {
	if current == target {
		*result = append(*result, slices.Clone(path))
		return
	}

	visited[current] = true
	defer func() { visited[current] = false }()

	v := g.Vertices[current]
	if v == nil {
		return
	}
	for _, dep := range v.Dependencies {
		if !visited[dep] {
			g.findAllPaths(dep, target, append(path, dep), visited, result)
		}
	}
}

// Explain returns a detailed explanation of why an artifact is at its current version.
func (g *Graph) Explain(name string) (*Explanation, error) {
	v := g.GetByName(name)
	if v == nil {
		return nil, fmt.Errorf("artifact %q not found in graph", name)
	}

	explanation := &Explanation{
		Artifact:  v.Key,
		Version:   v.Version,
		Selection: v.Selection,
	}

	for _, path := range g.AllPaths(g.Root, v.Key) {
		chain := DependencyChain{Path: path}
		if len(path) >= 2 {
			if requested, ok := v.RequestedVersions[path[len(path)-2]]; ok {
				chain.RequestedVersion = requested
			}
		}
		explanation.DependencyChains = append(explanation.DependencyChains, chain)
	}

	explanation.RequestSummary = buildRequestSummary(v)
	return explanation, nil
}

func buildRequestSummary(v *Vertex) string {
	if v.Selection == nil || len(v.Selection.Candidates) == 0 {
		return fmt.Sprintf("%s is at version %s", v.Key.Versionless(), v.Version)
	}

	parts := make([]string, 0, len(v.Selection.Candidates))
	for _, c := range v.Selection.Candidates {
		part := fmt.Sprintf("  %s at depth %d requested by: %s", c.Version, c.Depth, c.RequestedBy.Versionless())
		if c.Selected {
			part += " [SELECTED]"
		}
		parts = append(parts, part)
	}

	return fmt.Sprintf("%s version selection:\n%s\nStrategy: %s (%s)",
		v.Key.Versionless(),
		strings.Join(parts, "\n"),
		v.Selection.Strategy,
		v.Selection.DecidingFactor,
	)
}

// WhyIncluded returns all dependency chains that cause an artifact to be included.
func (g *Graph) WhyIncluded(name string) ([]DependencyChain, error) {
	v := g.GetByName(name)
	if v == nil {
		return nil, fmt.Errorf("artifact %q not found in graph", name)
	}

	paths := g.AllPaths(g.Root, v.Key)
	chains := make([]DependencyChain, len(paths))
	for i, path := range paths {
		chains[i] = DependencyChain{Path: path}
	}
	return chains, nil
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	stats := Stats{
		TotalArtifacts: len(g.Vertices),
		ByScope:        make(map[artifact.Scope]int),
	}

	if root := g.Vertices[g.Root]; root != nil {
		stats.DirectDependencies = len(root.Dependencies)
	}

	stats.TransitiveDependencies = max(stats.TotalArtifacts-stats.DirectDependencies-1, 0)

	for _, v := range g.Vertices {
		if v.IsRoot {
			continue
		}
		if v.Optional {
			stats.OptionalDependencies++
		}
		stats.ByScope[v.Scope.Effective()]++
	}

	stats.MaxDepth = g.calculateMaxDepth()
	return stats
}

// calculateMaxDepth returns the length of the longest acyclic path from the root.
func (g *Graph) calculateMaxDepth() int {
	depths := make(map[artifact.Key]int)
	onPath := make(map[artifact.Key]bool)
	var maxDepth int

	var dfs func(key artifact.Key, depth int)
	dfs = func(key artifact.Key, depth int) {
		if onPath[key] {
			return
		}
		if existing, ok := depths[key]; ok && existing >= depth {
			return
		}
		depths[key] = depth
		maxDepth = max(maxDepth, depth)

		v := g.Vertices[key]
		if v == nil {
			return
		}
		onPath[key] = true
		for _, dep := range v.Dependencies {
			dfs(dep, depth+1)
		}
		delete(onPath, key)
	}

	dfs(g.Root, 0)
	return maxDepth
}

// Roots returns all vertices with no dependents, in key order.
// A graph built from a single tree has exactly one.
func (g *Graph) Roots() []artifact.Key {
	var roots []artifact.Key
	for _, key := range g.sortedKeys() {
		if len(g.Vertices[key].Dependents) == 0 {
			roots = append(roots, key)
		}
	}
	return roots
}

// Leaves returns all vertices with no dependencies, in key order.
func (g *Graph) Leaves() []artifact.Key {
	var leaves []artifact.Key
	for _, key := range g.sortedKeys() {
		if len(g.Vertices[key].Dependencies) == 0 {
			leaves = append(leaves, key)
		}
	}
	return leaves
}

// HasCycles returns true if the graph contains cycles.
func (g *Graph) HasCycles() bool {
	return len(g.FindCycles()) > 0
}

// FindCycles returns the cycles in the graph. Each cycle starts at the first
// vertex of the cycle reached by a depth-first search in key order.
func (g *Graph) FindCycles() [][]artifact.Key {
	var cycles [][]artifact.Key
	visited := make(map[artifact.Key]bool)
	recStack := make(map[artifact.Key]bool)
	path := make([]artifact.Key, 0)

	var find func(key artifact.Key)
	find = func(key artifact.Key) {
		visited[key] = true
		recStack[key] = true
		path = append(path, key)

		if v := g.Vertices[key]; v != nil {
			for _, dep := range v.Dependencies {
				if !visited[dep] {
					find(dep)
				} else if recStack[dep] {
					if start := slices.Index(path, dep); start >= 0 {
						cycles = append(cycles, slices.Clone(path[start:]))
					}
				}
			}
		}

		path = path[:len(path)-1]
		recStack[key] = false
	}

	for _, key := range g.sortedKeys() {
		if !visited[key] {
			find(key)
		}
	}
	return cycles
}

func (g *Graph) sortedKeys() []artifact.Key {
	keys := make([]artifact.Key, 0, len(g.Vertices))
	for k := range g.Vertices {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, artifact.Key.Compare)
	return keys
}
