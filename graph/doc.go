// Package graph provides the dependency tree produced by collection and an
// indexed graph view with query capabilities.
//
// A [Node] tree is what the collector builds and mediation rewrites: each node
// owns its children, and before mediation an artifact may appear many times.
// [Build] indexes a tree into a [Graph] keyed by [artifact.Key], which supports:
//
//   - Explaining why an artifact is at a particular version
//   - Finding dependency paths between artifacts
//   - Querying direct and transitive dependencies and dependents
//
// # Querying the Graph
//
//	g := graph.Build(result.Root, result.Selections)
//
//	deps := g.DirectDeps(key)
//	explanation, _ := g.Explain("org.slf4j:slf4j-api")
//	path := g.Path(g.Root, key)
//
// # Output Formats
//
// Trees and graphs can be serialized to several formats:
//
//	text := graph.TreeToText(root)
//	jsonBytes, _ := g.ToJSON()
//	dot := g.ToDOT()
package graph
