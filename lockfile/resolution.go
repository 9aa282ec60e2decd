package lockfile

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	depgraph "github.com/albertocavalcante/go-depgraph"
)

// ErrMismatch is returned by Check when a resolution differs from the
// lockfile.
var ErrMismatch = errors.New("resolution does not match lockfile")

// FromResult creates a lockfile from the successfully resolved artifacts of
// res. Each file is hashed from the local repository.
func FromResult(res *depgraph.ResolveResult) (*Lockfile, error) {
	lf := New()
	if res == nil {
		return lf, nil
	}
	if res.Root != nil && res.Root.Artifact.GroupID != "" {
		lf.Root = res.Root.Artifact.String()
	}

	for _, a := range res.Artifacts {
		if a.Err != nil {
			continue
		}
		sum, err := HashFile(a.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to lock %s: %w", a.Request.Artifact, err)
		}
		e := Entry{
			Coordinate: a.Request.Artifact.String(),
			Repository: a.Repository,
			SHA256:     sum,
		}
		if n := a.Request.Node; n != nil {
			e.Scope = string(n.Scope)
		}
		if err := lf.Set(e); err != nil {
			return nil, err
		}
	}
	return lf, nil
}

// Check compares the lockfile with the artifacts of res. A difference in
// coordinate or digest yields an error wrapping ErrMismatch that lists
// every difference. Repository changes are not reported.
func (l *Lockfile) Check(res *depgraph.ResolveResult) error {
	current, err := FromResult(res)
	if err != nil {
		return err
	}
	diff := Compare(l, current)
	if diff.IsEmpty() {
		return nil
	}
	return fmt.Errorf("%w:\n%s", ErrMismatch, strings.TrimRight(diff.Summary(), "\n"))
}

// Diff describes the differences between two lockfiles.
type Diff struct {
	// Added contains keys that are in the new lockfile but not the old.
	Added []string

	// Removed contains keys that are in the old lockfile but not the new.
	Removed []string

	// Changed contains keys whose coordinate or digest differs.
	Changed []Change
}

// Change is an entry that differs between two lockfiles.
type Change struct {
	Key string
	Old Entry
	New Entry
}

// IsEmpty returns true if there are no differences.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Summary returns a human-readable summary of the differences, one line
// per key.
func (d *Diff) Summary() string {
	if d.IsEmpty() {
		return "no changes\n"
	}
	var b strings.Builder
	for _, k := range d.Added {
		fmt.Fprintf(&b, "+ %s\n", k)
	}
	for _, k := range d.Removed {
		fmt.Fprintf(&b, "- %s\n", k)
	}
	for _, c := range d.Changed {
		if c.Old.Coordinate != c.New.Coordinate {
			fmt.Fprintf(&b, "~ %s: %s -> %s\n", c.Key, c.Old.Version(), c.New.Version())
		} else {
			fmt.Fprintf(&b, "~ %s: sha256 %s -> %s\n", c.Key, c.Old.SHA256, c.New.SHA256)
		}
	}
	return b.String()
}

// Compare compares two lockfiles. Entries are equal when their coordinate
// and digest match.
func Compare(old, new *Lockfile) *Diff {
	diff := &Diff{}

	for key, n := range new.Artifacts {
		o, exists := old.Artifacts[key]
		switch {
		case !exists:
			diff.Added = append(diff.Added, key)
		case o.Coordinate != n.Coordinate || o.SHA256 != n.SHA256:
			diff.Changed = append(diff.Changed, Change{Key: key, Old: o, New: n})
		}
	}
	for key := range old.Artifacts {
		if _, exists := new.Artifacts[key]; !exists {
			diff.Removed = append(diff.Removed, key)
		}
	}

	// Sort for deterministic output
	slices.Sort(diff.Added)
	slices.Sort(diff.Removed)
	slices.SortFunc(diff.Changed, func(a, b Change) int { return strings.Compare(a.Key, b.Key) })
	return diff
}
