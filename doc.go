// Package depgraph resolves the transitive dependencies of Maven-style
// artifacts.
//
// Resolution runs in four stages:
//
//  1. [Collect] expands a root (an artifact, a dependency, a typed coordinate
//     or an in-memory model) into a dependency tree. Descriptors and version
//     listings come from a [MetadataSource]; dependency management,
//     exclusions, scopes and relocations are applied along the way.
//  2. [mediation.Mediate] keeps one version per artifact, nearest to the
//     root first, and settles the scope of every survivor.
//  3. A [filter.Filter] selects the nodes whose files are wanted.
//  4. [ResolveArtifacts] downloads the selected artifacts into the local
//     repository of the [Session], in parallel.
//
// [Resolve] runs all four stages.
//
// # Sessions
//
// A [Session] holds the configuration shared by requests: the local
// repository directory, the remote repositories in priority order, the
// transport, offline mode and the caches. Configure it with functional
// options:
//
//	session, err := depgraph.NewSession(filepath.Join(home, ".m2", "repository"),
//	    depgraph.WithRepositories(repository.Central()),
//	    depgraph.WithTimeout(20*time.Second),
//	    depgraph.WithLogger(slog.Default()),
//	)
//
// # Errors
//
// Failures of single dependencies never abort a request. [Collect] records
// them as [*CollectionError] values in the result; artifact downloads report
// an [*ArtifactResolutionError] listing every repository attempt. Use
// errors.Is with [ErrNotFound] to tell missing content from unreachable
// repositories.
package depgraph
