package version

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Scheme defines how versions of a repository ecosystem are ordered and how
// version specifications are parsed.
type Scheme interface {
	Name() string
	Compare(a, b string) int
	ParseConstraint(s string) (Constraint, error)
}

// MavenScheme orders versions with Maven's rules and accepts Maven range syntax.
type MavenScheme struct{}

// Name implements Scheme.
func (MavenScheme) Name() string { return "maven" }

// Compare implements Scheme.
func (MavenScheme) Compare(a, b string) int { return Compare(a, b) }

// ParseConstraint implements Scheme.
func (s MavenScheme) ParseConstraint(spec string) (Constraint, error) {
	if IsMeta(spec) {
		return MetaConstraint{name: spec}, nil
	}
	return ParseRangeConstraint(spec, s)
}

// SemverScheme orders versions as semantic versions. Constraints accept both
// Maven range syntax and semver expressions such as "^1.2" or ">= 1.0, < 2".
// Versions that are not valid semver fall back to Maven ordering.
type SemverScheme struct{}

// Name implements Scheme.
func (SemverScheme) Name() string { return "semver" }

// Compare implements Scheme.
func (SemverScheme) Compare(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		return Compare(a, b)
	}
	return va.Compare(vb)
}

// ParseConstraint implements Scheme.
func (s SemverScheme) ParseConstraint(spec string) (Constraint, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case IsMeta(spec):
		return MetaConstraint{name: spec}, nil
	case strings.ContainsAny(spec, "[("):
		return ParseRangeConstraint(spec, s)
	case strings.ContainsAny(spec, "^~<>=*|, "):
		c, err := semver.NewConstraint(spec)
		if err != nil {
			return nil, &ParseError{Version: spec, Message: err.Error()}
		}
		return &semverConstraint{raw: spec, c: c}, nil
	default:
		if _, err := semver.NewVersion(spec); err != nil {
			return nil, &ParseError{Version: spec, Message: err.Error()}
		}
		return ParseRangeConstraint(spec, s)
	}
}

type semverConstraint struct {
	raw string
	c   *semver.Constraints
}

func (sc *semverConstraint) Contains(v string) bool {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return false
	}
	return sc.c.Check(parsed)
}

func (sc *semverConstraint) Recommended() (string, bool) { return "", false }

func (sc *semverConstraint) String() string { return sc.raw }

// SchemeByName returns the scheme registered under name.
func SchemeByName(name string) (Scheme, error) {
	switch name {
	case "", "maven":
		return MavenScheme{}, nil
	case "semver":
		return SemverScheme{}, nil
	default:
		return nil, fmt.Errorf("unknown version scheme %q", name)
	}
}

// Select picks the version a constraint resolves to. A soft version is
// returned unchanged. Otherwise the highest available version accepted by
// the constraint wins.
func Select(s Scheme, c Constraint, available []string) (string, error) {
	if v, ok := c.Recommended(); ok {
		return v, nil
	}
	candidates := make([]string, 0, len(available))
	for _, v := range available {
		if c.Contains(v) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %s among %d available versions", ErrNoMatch, c, len(available))
	}
	return slices.MaxFunc(candidates, s.Compare), nil
}
