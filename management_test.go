package depgraph

import (
	"testing"

	"github.com/albertocavalcante/go-depgraph/artifact"
)

func TestManagementApply(t *testing.T) {
	managed := scoped("g:a:2.0", artifact.ScopeRuntime)
	managed = managed.WithExclusions(artifact.Exclusion{GroupID: "x", ArtifactID: "*"})
	m := newManagement([]artifact.Dependency{managed, dep("g:a:3.0")})

	t.Run("transitive edges are overridden", func(t *testing.T) {
		d, pre := m.apply(dep("g:a:1.0"), false)
		if d.Artifact.Version != "2.0" || d.Scope != artifact.ScopeRuntime {
			t.Errorf("managed = %v, want g:a:2.0 runtime (first entry wins)", d)
		}
		if !pre.Managed || pre.Version != "1.0" {
			t.Errorf("premanaged = %+v", pre)
		}
		if len(d.Exclusions) != 1 {
			t.Errorf("exclusions = %v, want the managed exclusion", d.Exclusions)
		}
	})

	t.Run("direct edges keep declared values", func(t *testing.T) {
		d, pre := m.apply(scoped("g:a:1.0", artifact.ScopeTest), true)
		if d.Artifact.Version != "1.0" || d.Scope != artifact.ScopeTest || pre.Managed {
			t.Errorf("direct = %v %+v, want untouched", d, pre)
		}
		if len(d.Exclusions) != 0 {
			t.Errorf("direct edge gained exclusions %v", d.Exclusions)
		}
	})

	t.Run("unmanaged keys pass through", func(t *testing.T) {
		d, pre := m.apply(dep("g:b:1.0"), false)
		if d.Artifact.Version != "1.0" || pre.Managed {
			t.Errorf("unmanaged = %v %+v", d, pre)
		}
	})
}

func TestManagementDeriveKeepsOuterEntries(t *testing.T) {
	outer := newManagement([]artifact.Dependency{dep("g:a:2.0")})
	inner := outer.derive([]artifact.Dependency{dep("g:a:9.0"), dep("g:b:5.0")})

	if d, _ := inner.apply(dep("g:a:1.0"), false); d.Artifact.Version != "2.0" {
		t.Errorf("g:a = %s, want the outer 2.0", d.Artifact.Version)
	}
	if d, _ := inner.apply(dep("g:b:1.0"), false); d.Artifact.Version != "5.0" {
		t.Errorf("g:b = %s, want 5.0", d.Artifact.Version)
	}
	if d, _ := outer.apply(dep("g:b:1.0"), false); d.Artifact.Version != "1.0" {
		t.Error("derive modified the outer table")
	}
	if outer.derive(nil) != outer {
		t.Error("derive(nil) should reuse the table")
	}
}
