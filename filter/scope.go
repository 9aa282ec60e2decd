package filter

import (
	"slices"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/graph"
)

// implications lists, for a classpath scope, the node scopes it admits.
var implications = map[artifact.Scope][]artifact.Scope{
	artifact.ScopeCompile:  {artifact.ScopeCompile, artifact.ScopeProvided, artifact.ScopeSystem},
	artifact.ScopeRuntime:  {artifact.ScopeCompile, artifact.ScopeRuntime},
	artifact.ScopeTest:     {artifact.ScopeCompile, artifact.ScopeRuntime, artifact.ScopeProvided, artifact.ScopeSystem, artifact.ScopeTest},
	artifact.ScopeProvided: {artifact.ScopeProvided},
	artifact.ScopeSystem:   {artifact.ScopeSystem},
}

// ScopeFilter accepts nodes by scope.
//
// Scopes can be enabled one at a time (fine-grained) or together with the
// scopes they imply on a classpath: compile admits compile, provided and
// system; runtime admits compile and runtime; test admits everything. A
// dependency declared without a scope is compile. A node that carries no
// dependency at all, such as a root, has a null scope and is accepted unless
// IncludeNullScope(false) was called.
type ScopeFilter struct {
	included    map[artifact.Scope]bool
	includeNull bool
}

// NewScopeFilter returns a filter for the classpath of scope, with
// implications. An empty scope yields a filter that accepts only nodes with a
// null scope until more scopes are enabled.
func NewScopeFilter(scope artifact.Scope) *ScopeFilter {
	f := &ScopeFilter{included: make(map[artifact.Scope]bool), includeNull: true}
	if scope != artifact.ScopeDefault {
		f.IncludeWithImplications(scope)
	}
	return f
}

// Include enables each scope individually.
func (f *ScopeFilter) Include(scopes ...artifact.Scope) *ScopeFilter {
	for _, s := range scopes {
		f.included[s.Effective()] = true
	}
	return f
}

// IncludeWithImplications enables scope and every scope it implies.
func (f *ScopeFilter) IncludeWithImplications(scope artifact.Scope) *ScopeFilter {
	return f.Include(implications[scope.Effective()]...)
}

// IncludeNullScope controls whether nodes without a dependency are accepted.
func (f *ScopeFilter) IncludeNullScope(include bool) *ScopeFilter {
	f.includeNull = include
	return f
}

// Accept implements Filter.
func (f *ScopeFilter) Accept(n *graph.Node, _ []*graph.Node) bool {
	if n.Dependency == nil && n.Scope == artifact.ScopeDefault {
		return f.includeNull
	}
	return f.included[n.Scope.Effective()]
}

// ScopeDependencyFilter accepts nodes whose effective scope is in the
// included set (when non-empty) and not in the excluded set.
type ScopeDependencyFilter struct {
	included []artifact.Scope
	excluded []artifact.Scope
}

// NewScopeDependencyFilter creates a filter from include and exclude lists.
func NewScopeDependencyFilter(included, excluded []artifact.Scope) *ScopeDependencyFilter {
	f := &ScopeDependencyFilter{}
	for _, s := range included {
		f.included = append(f.included, s.Effective())
	}
	for _, s := range excluded {
		f.excluded = append(f.excluded, s.Effective())
	}
	return f
}

// Accept implements Filter.
func (f *ScopeDependencyFilter) Accept(n *graph.Node, _ []*graph.Node) bool {
	s := n.Scope.Effective()
	if len(f.included) > 0 && !slices.Contains(f.included, s) {
		return false
	}
	return !slices.Contains(f.excluded, s)
}
