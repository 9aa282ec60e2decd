// Package version implements Maven's artifact version ordering, version
// ranges and the LATEST/RELEASE meta versions.
//
// Version format: items separated by '.' or '-', where a transition between
// digits and letters also starts a new item. Numeric items compare
// numerically; string items compare as qualifiers:
//
//	alpha < beta < milestone < rc = cr < snapshot < "" = ga = final = release < sp
//
// Unknown qualifiers sort after all known ones, in lexical order. A '-'
// opens a nested list, so "1-1" sorts before "1.1". Trailing zero and empty
// items are dropped before comparison, so "1", "1.0" and "1.0.0-ga" are equal.
package version

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

type itemKind int

const (
	intItem itemKind = iota
	stringItem
	listItem
)

// item is one component of a parsed version.
type item struct {
	kind  itemKind
	num   string // digits without leading zeros, "0" for zero
	str   string // canonical qualifier for stringItem
	items []item // children for listItem
}

var qualifiers = []string{"alpha", "beta", "milestone", "rc", "snapshot", "", "sp"}

var aliases = map[string]string{
	"ga":      "",
	"final":   "",
	"release": "",
	"cr":      "rc",
}

// releaseIndex is the comparable form of the empty qualifier.
var releaseIndex = strconv.Itoa(slices.Index(qualifiers, ""))

func comparableQualifier(q string) string {
	if i := slices.Index(qualifiers, q); i >= 0 {
		return strconv.Itoa(i)
	}
	return strconv.Itoa(len(qualifiers)) + "-" + q
}

func newIntItem(s string) item {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	return item{kind: intItem, num: s}
}

func newStringItem(s string, followedByDigit bool) item {
	if followedByDigit && len(s) == 1 {
		switch s[0] {
		case 'a':
			s = "alpha"
		case 'b':
			s = "beta"
		case 'm':
			s = "milestone"
		}
	}
	if alias, ok := aliases[s]; ok {
		s = alias
	}
	return item{kind: stringItem, str: s}
}

func (it item) isNull() bool {
	switch it.kind {
	case intItem:
		return it.num == "0"
	case stringItem:
		return it.str == ""
	default:
		return len(it.items) == 0
	}
}

// compare orders it against o. A nil o stands for a missing item.
func (it item) compare(o *item) int {
	switch it.kind {
	case intItem:
		if o == nil {
			if it.num == "0" {
				return 0
			}
			return 1
		}
		switch o.kind {
		case intItem:
			if c := cmp.Compare(len(it.num), len(o.num)); c != 0 {
				return c
			}
			return strings.Compare(it.num, o.num)
		default:
			return 1
		}

	case stringItem:
		if o == nil {
			return strings.Compare(comparableQualifier(it.str), releaseIndex)
		}
		switch o.kind {
		case intItem, listItem:
			return -1
		default:
			return strings.Compare(comparableQualifier(it.str), comparableQualifier(o.str))
		}

	default:
		if o == nil {
			if len(it.items) == 0 {
				return 0
			}
			return it.items[0].compare(nil)
		}
		switch o.kind {
		case intItem:
			return -1
		case stringItem:
			return 1
		}
		for i := 0; i < max(len(it.items), len(o.items)); i++ {
			var l, r *item
			if i < len(it.items) {
				l = &it.items[i]
			}
			if i < len(o.items) {
				r = &o.items[i]
			}
			var c int
			switch {
			case l == nil && r == nil:
				c = 0
			case l == nil:
				c = -r.compare(nil)
			default:
				c = l.compare(r)
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Version is a parsed, comparable version string.
type Version struct {
	raw  string
	root item
}

// Parse parses a version string. Every string is a valid version; Parse
// never fails.
func Parse(s string) Version {
	v := strings.ToLower(s)

	root := &item{kind: listItem}
	// Lists only nest deeper while parsing; a parent is never appended to
	// after a child list is pushed, so the pointers on the stack stay valid.
	stack := []*item{root}
	list := root

	push := func() {
		list.items = append(list.items, item{kind: listItem})
		list = &list.items[len(list.items)-1]
		stack = append(stack, list)
	}

	digit := false
	start := 0
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == '.':
			if i == start {
				list.items = append(list.items, newIntItem("0"))
			} else {
				list.items = append(list.items, parseItem(digit, v[start:i]))
			}
			start = i + 1

		case c == '-':
			if i == start {
				list.items = append(list.items, newIntItem("0"))
			} else {
				list.items = append(list.items, parseItem(digit, v[start:i]))
			}
			start = i + 1
			push()

		case isDigit(c):
			if !digit && i > start {
				list.items = append(list.items, newStringItem(v[start:i], true))
				start = i
				push()
			}
			digit = true

		default:
			if digit && i > start {
				list.items = append(list.items, parseItem(true, v[start:i]))
				start = i
				push()
			}
			digit = false
		}
	}
	if len(v) > start {
		list.items = append(list.items, parseItem(digit, v[start:]))
	}

	for i := len(stack) - 1; i >= 0; i-- {
		normalize(stack[i])
	}

	return Version{raw: s, root: *root}
}

func parseItem(digit bool, s string) item {
	if digit {
		return newIntItem(s)
	}
	return newStringItem(s, false)
}

// normalize drops trailing null items, stopping at the first non-null
// non-list item.
func normalize(l *item) {
	for i := len(l.items) - 1; i >= 0; i-- {
		last := l.items[i]
		if last.isNull() {
			l.items = slices.Delete(l.items, i, i+1)
		} else if last.kind != listItem {
			break
		}
	}
}

// String returns the original version string.
func (v Version) String() string {
	return v.raw
}

// Compare returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	return v.root.compare(&o.root)
}

// IsSnapshot reports whether the version is a snapshot build.
func (v Version) IsSnapshot() bool {
	return IsSnapshot(v.raw)
}

// IsSnapshot reports whether s names a snapshot version.
func IsSnapshot(s string) bool {
	return strings.HasSuffix(strings.ToUpper(s), "SNAPSHOT")
}

// Compare compares two version strings using Maven ordering.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func Compare(a, b string) int {
	return Parse(a).Compare(Parse(b))
}

// Sort sorts a slice of version strings in ascending order.
func Sort(versions []string) {
	slices.SortStableFunc(versions, Compare)
}

// Max returns the higher of two versions.
func Max(a, b string) string {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}
