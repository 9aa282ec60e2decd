package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/graph"
)

func node(coord string, scope artifact.Scope, children ...*graph.Node) *graph.Node {
	c := artifact.MustParseCoordinate(coord)
	d := artifact.NewDependency(c, scope)
	return &graph.Node{Dependency: &d, Artifact: c, Scope: scope, Children: children}
}

// testTree:
//
//	g:root:1.0
//	├── org.apache:core:1.0 (compile)
//	│   └── org.apache.commons:lang:1.0 (runtime)
//	├── junit:junit:4.13 (test)
//	├── javax:servlet:3.0 (provided)
//	└── g:bare:1.0 (no scope)
func testTree() *graph.Node {
	return &graph.Node{
		Artifact: artifact.MustParseCoordinate("g:root:1.0"),
		Children: []*graph.Node{
			node("org.apache:core:1.0", artifact.ScopeCompile,
				node("org.apache.commons:lang:1.0", artifact.ScopeRuntime)),
			node("junit:junit:4.13", artifact.ScopeTest),
			node("javax:servlet:3.0", artifact.ScopeProvided),
			node("g:bare:1.0", artifact.ScopeDefault),
		},
	}
}

func ids(nodes []*graph.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Artifact.ArtifactID)
	}
	return out
}

func accepts(f Filter, scope artifact.Scope) bool {
	return f.Accept(node("g:a:1.0", scope), nil)
}

func TestScopeFilterWithImplications(t *testing.T) {
	all := []artifact.Scope{artifact.ScopeDefault, artifact.ScopeCompile, artifact.ScopeProvided, artifact.ScopeRuntime, artifact.ScopeSystem, artifact.ScopeTest}

	tests := []struct {
		scope    artifact.Scope
		included []artifact.Scope
	}{
		{artifact.ScopeCompile, []artifact.Scope{artifact.ScopeDefault, artifact.ScopeCompile, artifact.ScopeProvided, artifact.ScopeSystem}},
		{artifact.ScopeRuntime, []artifact.Scope{artifact.ScopeDefault, artifact.ScopeCompile, artifact.ScopeRuntime}},
		{artifact.ScopeTest, all},
		{artifact.ScopeProvided, []artifact.Scope{artifact.ScopeProvided}},
		{artifact.ScopeSystem, []artifact.Scope{artifact.ScopeSystem}},
	}

	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			f := NewScopeFilter(tt.scope)
			for _, s := range all {
				want := false
				for _, inc := range tt.included {
					want = want || inc == s
				}
				assert.Equal(t, want, accepts(f, s), "node scope %q", s)
			}
		})
	}
}

func TestScopeFilterFineGrained(t *testing.T) {
	f := NewScopeFilter(artifact.ScopeDefault).Include(artifact.ScopeRuntime, artifact.ScopeSystem)

	assert.True(t, accepts(f, artifact.ScopeRuntime))
	assert.True(t, accepts(f, artifact.ScopeSystem))
	assert.False(t, accepts(f, artifact.ScopeDefault))
	assert.False(t, accepts(f, artifact.ScopeCompile))
	assert.False(t, accepts(f, artifact.ScopeProvided))
	assert.False(t, accepts(f, artifact.ScopeTest))

	bare := &graph.Node{Artifact: artifact.MustParseCoordinate("g:bare:1.0")}
	assert.True(t, f.Accept(bare, nil))
	f.IncludeNullScope(false)
	assert.False(t, f.Accept(bare, nil))
}

func TestScopeFilterDefaultScopeIsCompile(t *testing.T) {
	// A direct dependency without a declared scope and its compile child.
	tree := &graph.Node{
		Artifact: artifact.MustParseCoordinate("g:root:1.0"),
		Children: []*graph.Node{
			node("g:direct:1.0", artifact.ScopeDefault,
				node("g:child:1.0", artifact.ScopeCompile)),
		},
	}

	f := NewScopeFilter(artifact.ScopeCompile).IncludeNullScope(false)
	assert.Equal(t, []string{"direct", "child"}, ids(Apply(tree, f)))

	f = NewScopeFilter(artifact.ScopeProvided)
	assert.Empty(t, Apply(tree, f))
}

func TestScopeFilterIsIdempotent(t *testing.T) {
	f := NewScopeFilter(artifact.ScopeRuntime)

	once := NewPipeline(f).Apply(testTree())
	twice := NewPipeline(f, f).Apply(testTree())

	assert.Equal(t, ids(once), ids(twice))
	assert.Equal(t, []string{"core", "lang", "bare"}, ids(once))
}

func TestScopeDependencyFilter(t *testing.T) {
	f := NewScopeDependencyFilter(nil, []artifact.Scope{artifact.ScopeTest, artifact.ScopeProvided})
	assert.Equal(t, []string{"core", "lang", "bare"}, ids(Apply(testTree(), f)))

	f = NewScopeDependencyFilter([]artifact.Scope{artifact.ScopeCompile}, nil)
	assert.Equal(t, []string{"core", "bare"}, ids(Apply(testTree(), f)), "no scope reads as compile")
}

func TestFeatureFilters(t *testing.T) {
	tree := testTree()

	f := NewGroupIDFilter("org.apache", "")
	assert.Equal(t, []string{"core", "lang"}, ids(Apply(tree, f)), "group ids match as prefixes")

	f = NewGroupIDFilter("", "org.apache.commons, junit")
	assert.Equal(t, []string{"core", "servlet", "bare"}, ids(Apply(tree, f)))

	f = NewArtifactIDFilter("core,servlet,lang", "lang")
	assert.Equal(t, []string{"core", "servlet"}, ids(Apply(tree, f)))
	assert.Equal(t, []string{"core", "servlet", "lang"}, f.Includes())
	assert.Equal(t, []string{"lang"}, f.Excludes())

	types := artifact.NewTypeRegistry()
	tj := types.Dependency("g", "t", "1.0", "test-jar", "", artifact.ScopeTest)
	testJar := &graph.Node{Dependency: &tj, Artifact: tj.Artifact}
	assert.True(t, NewTypeFilter("test-jar", "").Accept(testJar, nil))
	assert.False(t, NewTypeFilter("jar", "").Accept(testJar, nil))
	assert.True(t, NewClassifierFilter("tests", "").Accept(testJar, nil))
	assert.False(t, NewClassifierFilter("tests", "").Accept(tree.Children[0], nil))
	assert.True(t, NewClassifierFilter("", "sources").Accept(tree.Children[0], nil))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b,"))
	assert.Nil(t, SplitList(""))
}

func TestExclusionFilter(t *testing.T) {
	f, err := ParseExclusionFilter("org.apache.commons:*", "*:servlet")
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "junit", "bare"}, ids(Apply(testTree(), f)))

	_, err = ParseExclusionFilter("no-colon")
	assert.Error(t, err)

	exact := NewExclusionFilter(artifact.Exclusion{GroupID: "org.apache", ArtifactID: "core"})
	assert.Equal(t, []string{"lang", "junit", "servlet", "bare"}, ids(Apply(testTree(), exact)),
		"rejecting a node does not hide its children")
}

func TestTransitivityFilter(t *testing.T) {
	assert.Len(t, Apply(testTree(), NewTransitivityFilter(false)), 5)
	assert.Equal(t, []string{"core", "junit", "servlet", "bare"}, ids(Apply(testTree(), NewTransitivityFilter(true))))
}

func TestOptionalFilter(t *testing.T) {
	tree := testTree()
	tree.Children[1].Optional = true
	assert.NotContains(t, ids(Apply(tree, OptionalFilter())), "junit")
}

func TestPipeline(t *testing.T) {
	p := NewPipeline(nil, NewGroupIDFilter("org", ""), nil)
	assert.Equal(t, 1, p.Len(), "nil filters are ignored")

	p.Add(nil)
	p.Add(NewScopeFilter(artifact.ScopeCompile))
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{"core"}, ids(p.Apply(testTree())))

	p.Insert(0, NewArtifactIDFilter("", "core"))
	assert.Equal(t, 3, p.Len())
	assert.Empty(t, p.Apply(testTree()))

	p.Clear()
	assert.Len(t, p.Apply(testTree()), 5)
}

func TestPipelineSkipsPanickingFilter(t *testing.T) {
	boom := Func(func(n *graph.Node, _ []*graph.Node) bool {
		var m map[string]*graph.Node
		return m["x"].Optional // nil dereference
	})

	p := NewPipeline(boom, NewScopeFilter(artifact.ScopeRuntime))
	assert.Equal(t, []string{"core", "lang", "bare"}, ids(p.Apply(testTree())))
}

func TestCombinators(t *testing.T) {
	tree := testTree()
	apache := NewGroupIDFilter("org.apache", "")
	test := NewScopeFilter(artifact.ScopeDefault).Include(artifact.ScopeTest).IncludeNullScope(false)

	assert.Equal(t, []string{"lang"}, ids(Apply(tree, And(apache, NewScopeDependencyFilter([]artifact.Scope{artifact.ScopeRuntime}, nil), nil))))
	assert.Equal(t, []string{"core", "lang", "junit"}, ids(Apply(tree, Or(apache, test))))
	assert.Equal(t, []string{"junit", "servlet", "bare"}, ids(Apply(tree, Not(apache))))
	assert.Len(t, Apply(tree, Or()), 5)
	assert.Empty(t, Apply(tree, Not(nil)))
	assert.Len(t, Apply(tree, nil), 5)
}
