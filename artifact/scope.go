package artifact

import "fmt"

// Scope controls classpath membership and transitive propagation of a dependency.
type Scope string

// Dependency scopes. ScopeDefault is the absence of a declared scope and
// behaves as ScopeCompile.
const (
	ScopeDefault  Scope = ""
	ScopeCompile  Scope = "compile"
	ScopeProvided Scope = "provided"
	ScopeRuntime  Scope = "runtime"
	ScopeSystem   Scope = "system"
	ScopeTest     Scope = "test"
)

// AllScopes lists the declarable scopes in widening order.
var AllScopes = []Scope{ScopeCompile, ScopeRuntime, ScopeProvided, ScopeSystem, ScopeTest}

// ParseScope validates a scope string. The empty string yields ScopeDefault.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(s); sc {
	case ScopeDefault, ScopeCompile, ScopeProvided, ScopeRuntime, ScopeSystem, ScopeTest:
		return sc, nil
	default:
		return "", fmt.Errorf("unknown scope %q", s)
	}
}

// Effective returns the scope with ScopeDefault mapped to ScopeCompile.
func (s Scope) Effective() Scope {
	if s == ScopeDefault {
		return ScopeCompile
	}
	return s
}

// IsTransitive reports whether dependencies in this scope are inherited by
// dependents. Provided and test dependencies are not.
func (s Scope) IsTransitive() bool {
	switch s.Effective() {
	case ScopeProvided, ScopeTest:
		return false
	default:
		return true
	}
}

func (s Scope) String() string {
	if s == ScopeDefault {
		return "(default)"
	}
	return string(s)
}

// DeriveScope computes the scope a transitive dependency receives when it is
// declared with childScope by a dependency that itself has parentScope.
//
// The boolean result is false when the child does not propagate at all, which
// is the case for provided and test children.
//
//	parent \ child | compile  runtime  provided test
//	compile        | compile  runtime  -        -
//	runtime        | runtime  runtime  -        -
//	provided       | provided provided -        -
//	test           | test     test     -        -
//
// System-scoped children keep their own scope.
func DeriveScope(parentScope, childScope Scope) (Scope, bool) {
	child := childScope.Effective()
	if !child.IsTransitive() {
		return "", false
	}
	if child == ScopeSystem {
		return ScopeSystem, true
	}
	switch parentScope.Effective() {
	case ScopeCompile:
		return child, true
	case ScopeRuntime, ScopeTest:
		return parentScope.Effective(), true
	case ScopeProvided, ScopeSystem:
		return ScopeProvided, true
	}
	return child, true
}

// NarrowestScope picks the scope of an artifact reachable through several
// paths: the most restrictive one present. Test is narrower than provided,
// provided than runtime, and runtime than compile. System is chosen only when
// it is the only scope present.
func NarrowestScope(scopes ...Scope) Scope {
	seen := make(map[Scope]bool, len(scopes))
	for _, s := range scopes {
		seen[s.Effective()] = true
	}
	if len(seen) == 0 {
		return ScopeDefault
	}
	if len(seen) > 1 {
		delete(seen, ScopeSystem)
	}
	for _, s := range []Scope{ScopeTest, ScopeProvided, ScopeRuntime, ScopeCompile, ScopeSystem} {
		if seen[s] {
			return s
		}
	}
	return ScopeCompile
}
