package version

import (
	"errors"
	"fmt"
	"strings"
)

// Meta versions resolved against repository metadata.
const (
	Latest  = "LATEST"
	Release = "RELEASE"
)

// ErrNoMatch is returned when no available version satisfies a constraint.
var ErrNoMatch = errors.New("no version matches constraint")

// Constraint restricts the versions acceptable for a dependency.
type Constraint interface {
	// Contains reports whether the concrete version v is acceptable.
	Contains(v string) bool

	// Recommended returns the soft version when the constraint names one.
	// A soft version is used as-is without consulting repository metadata.
	Recommended() (string, bool)

	String() string
}

// Bound is one end of a Range. An empty Version means unbounded.
type Bound struct {
	Version   string
	Inclusive bool
}

// Range is an interval of versions such as [1.0,2.0).
type Range struct {
	Lower Bound
	Upper Bound
}

func (r Range) contains(s Scheme, v string) bool {
	if r.Lower.Version != "" {
		c := s.Compare(v, r.Lower.Version)
		if c < 0 || (c == 0 && !r.Lower.Inclusive) {
			return false
		}
	}
	if r.Upper.Version != "" {
		c := s.Compare(v, r.Upper.Version)
		if c > 0 || (c == 0 && !r.Upper.Inclusive) {
			return false
		}
	}
	return true
}

func (r Range) String() string {
	var b strings.Builder
	if r.Lower.Inclusive {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	if r.Lower.Inclusive && r.Upper.Inclusive && r.Lower.Version == r.Upper.Version {
		b.WriteString(r.Lower.Version)
	} else {
		b.WriteString(r.Lower.Version)
		b.WriteByte(',')
		b.WriteString(r.Upper.Version)
	}
	if r.Upper.Inclusive {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

// RangeConstraint is a Maven version specification: either a soft version
// or a union of ranges.
type RangeConstraint struct {
	raw    string
	soft   string
	ranges []Range
	scheme Scheme
}

// Ranges returns the parsed ranges, or nil for a soft version.
func (c *RangeConstraint) Ranges() []Range {
	return c.ranges
}

// Contains implements Constraint.
func (c *RangeConstraint) Contains(v string) bool {
	if c.soft != "" {
		return c.scheme.Compare(v, c.soft) == 0
	}
	for _, r := range c.ranges {
		if r.contains(c.scheme, v) {
			return true
		}
	}
	return false
}

// Recommended implements Constraint.
func (c *RangeConstraint) Recommended() (string, bool) {
	return c.soft, c.soft != ""
}

func (c *RangeConstraint) String() string {
	return c.raw
}

// ParseRangeConstraint parses a Maven version specification:
//
//	1.0              soft version
//	[1.0]            exactly 1.0
//	[1.0,2.0)        1.0 <= x < 2.0
//	(,1.0],[1.2,)    x <= 1.0 or x >= 1.2
func ParseRangeConstraint(s string, scheme Scheme) (*RangeConstraint, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, &ParseError{Version: s, Message: "empty version specification"}
	}
	c := &RangeConstraint{raw: raw, scheme: scheme}
	if !strings.ContainsAny(raw, "[(") {
		if strings.ContainsAny(raw, "])") {
			return nil, &ParseError{Version: s, Message: "unbalanced range brackets"}
		}
		c.soft = raw
		return c, nil
	}

	rest := raw
	for rest != "" {
		if rest[0] != '[' && rest[0] != '(' {
			return nil, &ParseError{Version: s, Message: fmt.Sprintf("unexpected %q, expected '[' or '('", rest[0])}
		}
		end := strings.IndexAny(rest, "])")
		if end < 0 {
			return nil, &ParseError{Version: s, Message: "unbounded range"}
		}
		r, err := parseRange(rest[:end+1])
		if err != nil {
			return nil, &ParseError{Version: s, Message: err.Error()}
		}
		if n := len(c.ranges); n > 0 {
			prev := c.ranges[n-1]
			if prev.Upper.Version == "" || r.Lower.Version == "" || scheme.Compare(prev.Upper.Version, r.Lower.Version) > 0 {
				return nil, &ParseError{Version: s, Message: "ranges overlap or are out of order"}
			}
		}
		c.ranges = append(c.ranges, r)

		rest = strings.TrimSpace(rest[end+1:])
		if strings.HasPrefix(rest, ",") {
			rest = strings.TrimSpace(rest[1:])
			if rest == "" {
				return nil, &ParseError{Version: s, Message: "trailing comma"}
			}
		}
	}
	return c, nil
}

func parseRange(s string) (Range, error) {
	lowerInclusive := s[0] == '['
	upperInclusive := s[len(s)-1] == ']'
	body := strings.TrimSpace(s[1 : len(s)-1])

	lower, upper, hasComma := strings.Cut(body, ",")
	if !hasComma {
		if !lowerInclusive || !upperInclusive || body == "" {
			return Range{}, fmt.Errorf("single version range %s must use [ ]", s)
		}
		b := Bound{Version: body, Inclusive: true}
		return Range{Lower: b, Upper: b}, nil
	}
	if strings.Contains(upper, ",") {
		return Range{}, fmt.Errorf("range %s has more than two bounds", s)
	}
	lower, upper = strings.TrimSpace(lower), strings.TrimSpace(upper)
	if lower == "" && lowerInclusive {
		return Range{}, fmt.Errorf("range %s has an inclusive unbounded lower end", s)
	}
	if upper == "" && upperInclusive {
		return Range{}, fmt.Errorf("range %s has an inclusive unbounded upper end", s)
	}
	return Range{
		Lower: Bound{Version: lower, Inclusive: lowerInclusive && lower != ""},
		Upper: Bound{Version: upper, Inclusive: upperInclusive && upper != ""},
	}, nil
}

// MetaConstraint is LATEST or RELEASE.
type MetaConstraint struct {
	name string
}

// Contains implements Constraint. RELEASE excludes snapshots.
func (m MetaConstraint) Contains(v string) bool {
	if m.name == Release {
		return !IsSnapshot(v)
	}
	return true
}

// Recommended implements Constraint.
func (m MetaConstraint) Recommended() (string, bool) {
	return "", false
}

func (m MetaConstraint) String() string {
	return m.name
}

// IsMeta reports whether s is LATEST or RELEASE.
func IsMeta(s string) bool {
	return s == Latest || s == Release
}

// NeedsMetadata reports whether resolving s requires the list of available
// versions: true for ranges and meta versions.
func NeedsMetadata(s string) bool {
	return IsMeta(s) || strings.ContainsAny(s, "[(")
}

// ParseError reports an invalid version specification.
type ParseError struct {
	Version string
	Message string
}

func (e *ParseError) Error() string {
	return "bad version specification " + e.Version + ": " + e.Message
}
