package depgraph

import (
	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/graph"
)

// management is an immutable dependency management table. The first entry
// for a key wins.
type management struct {
	entries map[artifact.Key]artifact.Dependency
}

func newManagement(lists ...[]artifact.Dependency) *management {
	m := &management{entries: make(map[artifact.Key]artifact.Dependency)}
	for _, list := range lists {
		m.add(list)
	}
	return m
}

func (m *management) add(list []artifact.Dependency) {
	for _, d := range list {
		if _, ok := m.entries[d.Key()]; !ok {
			m.entries[d.Key()] = d
		}
	}
}

// derive returns the table governing the children of a node whose own
// descriptor manages list. Existing entries take precedence.
func (m *management) derive(list []artifact.Dependency) *management {
	if len(list) == 0 {
		return m
	}
	child := &management{entries: make(map[artifact.Key]artifact.Dependency, len(m.entries)+len(list))}
	for k, v := range m.entries {
		child.entries[k] = v
	}
	child.add(list)
	return child
}

// apply manages d. On direct edges only blank versions and scopes are
// filled in; on transitive edges version and scope are overridden and
// managed exclusions are added.
func (m *management) apply(d artifact.Dependency, direct bool) (artifact.Dependency, graph.Premanaged) {
	var pre graph.Premanaged
	md, ok := m.entries[d.Key()]
	if !ok {
		return d, pre
	}

	if v := md.Artifact.Version; v != "" && v != d.Artifact.Version && (!direct || d.Artifact.Version == "") {
		pre.Version, pre.Managed = d.Artifact.Version, true
		d.Artifact = d.Artifact.WithVersion(v)
	}
	if sc := md.Scope; sc != artifact.ScopeDefault && sc != d.Scope && (!direct || d.Scope == artifact.ScopeDefault) {
		pre.Scope, pre.Managed = d.Scope, true
		d.Scope = sc
	}
	if d.Scope == artifact.ScopeSystem && d.SystemPath == "" && md.SystemPath != "" {
		d.SystemPath = md.SystemPath
		pre.Managed = true
	}
	if !direct && len(md.Exclusions) > 0 {
		d = d.WithExclusions(md.Exclusions...)
		pre.Managed = true
	}
	return d, pre
}
