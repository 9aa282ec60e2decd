package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		input   string
		want    Coordinate
		wantErr bool
	}{
		{"g:a:1.0", Coordinate{GroupID: "g", ArtifactID: "a", Version: "1.0", Extension: "jar"}, false},
		{"g:a:pom:1.0", Coordinate{GroupID: "g", ArtifactID: "a", Version: "1.0", Extension: "pom"}, false},
		{"g:a:jar:tests:1.0", Coordinate{GroupID: "g", ArtifactID: "a", Version: "1.0", Extension: "jar", Classifier: "tests"}, false},
		{"g:c:[1.0,2.0)", Coordinate{GroupID: "g", ArtifactID: "c", Version: "[1.0,2.0)", Extension: "jar"}, false},
		{"g:a", Coordinate{}, true},
		{"g::1.0", Coordinate{}, true},
		{"g:a:", Coordinate{}, true},
		{"a:b:c:d:e:f", Coordinate{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCoordinate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoordinateKeyIgnoresVersion(t *testing.T) {
	a := MustParseCoordinate("g:a:1.0")
	b := MustParseCoordinate("g:a:2.0")
	c := MustParseCoordinate("g:a:jar:tests:1.0")

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "g:a:jar", a.Key().String())
	assert.Equal(t, "g:a:jar:tests", c.Key().String())

	// An unnormalized coordinate has the same identity as a normalized one.
	raw := Coordinate{GroupID: "g", ArtifactID: "a", Version: "1.0"}
	assert.Equal(t, a.Key(), raw.Key())
}

func TestCoordinateString(t *testing.T) {
	assert.Equal(t, "g:a:jar:1.0", MustParseCoordinate("g:a:1.0").String())
	assert.Equal(t, "g:a:jar:tests:1.0", MustParseCoordinate("g:a:jar:tests:1.0").String())
	assert.True(t, MustParseCoordinate("g:a:1.0-SNAPSHOT").IsSnapshot())
	assert.False(t, MustParseCoordinate("g:a:1.0").IsSnapshot())
}

func TestExclusionMatches(t *testing.T) {
	key := MustParseCoordinate("org.example:lib:1.0").Key()

	tests := []struct {
		exclusion string
		want      bool
	}{
		{"org.example:lib", true},
		{"org.example:*", true},
		{"*:lib", true},
		{"*:*", true},
		{"org.example:other", false},
		{"org:lib", false},
	}
	for _, tt := range tests {
		t.Run(tt.exclusion, func(t *testing.T) {
			e, err := ParseExclusion(tt.exclusion)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Matches(key))
		})
	}

	_, err := ParseExclusion("nocolon")
	assert.Error(t, err)
}

func TestDependencyWithExclusionsDoesNotAlias(t *testing.T) {
	base := Dependency{
		Artifact:   MustParseCoordinate("g:a:1.0"),
		Exclusions: make([]Exclusion, 1, 4),
	}
	base.Exclusions[0] = Exclusion{GroupID: "x", ArtifactID: "y"}

	one := base.WithExclusions(Exclusion{GroupID: "p", ArtifactID: "q"})
	two := base.WithExclusions(Exclusion{GroupID: "r", ArtifactID: "s"})

	require.Len(t, one.Exclusions, 2)
	require.Len(t, two.Exclusions, 2)
	assert.Equal(t, "p", one.Exclusions[1].GroupID)
	assert.Equal(t, "r", two.Exclusions[1].GroupID)
	assert.Len(t, base.Exclusions, 1)

	dup := one.WithExclusions(Exclusion{GroupID: "x", ArtifactID: "y"})
	assert.Len(t, dup.Exclusions, 2)
}

func TestDeriveScope(t *testing.T) {
	tests := []struct {
		parent, child Scope
		want          Scope
		ok            bool
	}{
		{ScopeCompile, ScopeCompile, ScopeCompile, true},
		{ScopeCompile, ScopeDefault, ScopeCompile, true},
		{ScopeCompile, ScopeRuntime, ScopeRuntime, true},
		{ScopeCompile, ScopeProvided, "", false},
		{ScopeCompile, ScopeTest, "", false},
		{ScopeRuntime, ScopeCompile, ScopeRuntime, true},
		{ScopeRuntime, ScopeRuntime, ScopeRuntime, true},
		{ScopeRuntime, ScopeTest, "", false},
		{ScopeTest, ScopeCompile, ScopeTest, true},
		{ScopeProvided, ScopeCompile, ScopeProvided, true},
		{ScopeProvided, ScopeRuntime, ScopeProvided, true},
		{ScopeCompile, ScopeSystem, ScopeSystem, true},
		{ScopeDefault, ScopeRuntime, ScopeRuntime, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.parent)+"/"+string(tt.child), func(t *testing.T) {
			got, ok := DeriveScope(tt.parent, tt.child)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNarrowestScope(t *testing.T) {
	assert.Equal(t, ScopeTest, NarrowestScope(ScopeTest, ScopeCompile, ScopeRuntime))
	assert.Equal(t, ScopeRuntime, NarrowestScope(ScopeCompile, ScopeRuntime))
	assert.Equal(t, ScopeProvided, NarrowestScope(ScopeRuntime, ScopeProvided))
	assert.Equal(t, ScopeSystem, NarrowestScope(ScopeSystem))
	assert.Equal(t, ScopeCompile, NarrowestScope(ScopeSystem, ScopeDefault))
	assert.Equal(t, ScopeCompile, NarrowestScope(ScopeDefault))
	assert.Equal(t, ScopeDefault, NarrowestScope())
}

func TestParseScope(t *testing.T) {
	for _, s := range []string{"", "compile", "provided", "runtime", "system", "test"} {
		_, err := ParseScope(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseScope("import")
	assert.Error(t, err)
}

func TestTypeRegistry(t *testing.T) {
	r := NewTypeRegistry()

	c := r.Coordinate("g", "a", "1.0", "test-jar", "")
	assert.Equal(t, "jar", c.Extension)
	assert.Equal(t, "tests", c.Classifier)

	c = r.Coordinate("g", "a", "1.0", "test-jar", "custom")
	assert.Equal(t, "custom", c.Classifier)

	c = r.Coordinate("g", "a", "1.0", "maven-plugin", "")
	assert.Equal(t, "jar", c.Extension)

	typ, ok := r.Get("zip")
	assert.False(t, ok)
	assert.Equal(t, "zip", typ.Extension)

	r.Register(Type{ID: "zip", Extension: "zip", Classifier: "dist"})
	typ, ok = r.Get("zip")
	assert.True(t, ok)
	assert.Equal(t, "dist", typ.Classifier)

	dep := r.Dependency("g", "a", "1.0", "", "", ScopeTest)
	assert.Equal(t, "jar", dep.ArtifactType())
	assert.Equal(t, ScopeTest, dep.Scope)
}
