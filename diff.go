package depgraph

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/go-depgraph/graph"
	"github.com/albertocavalcante/go-depgraph/version"
)

// ArtifactChange represents an added or removed artifact in a resolution diff.
type ArtifactChange struct {
	// Key is the artifact identity, groupId:artifactId:extension[:classifier].
	Key string `json:"key"`

	// Version is the artifact version.
	Version string `json:"version"`
}

// ArtifactUpgrade represents a version change for an existing artifact.
type ArtifactUpgrade struct {
	Key        string `json:"key"`
	OldVersion string `json:"old_version"`
	NewVersion string `json:"new_version"`
}

// ResolutionDiff describes the differences between two dependency resolutions.
//
// Example usage:
//
//	before, _ := depgraph.Resolve(ctx, session, oldRequest)
//	after, _ := depgraph.Resolve(ctx, session, newRequest)
//	diff := depgraph.DiffResolutions(before, after)
//
//	if !diff.IsEmpty() {
//	    fmt.Printf("Changes: %d added, %d removed, %d upgraded, %d downgraded\n",
//	        len(diff.Added), len(diff.Removed), len(diff.Upgraded), len(diff.Downgraded))
//	}
type ResolutionDiff struct {
	// Added contains artifacts present in new but not in old.
	Added []ArtifactChange `json:"added,omitempty"`

	// Removed contains artifacts present in old but not in new.
	Removed []ArtifactChange `json:"removed,omitempty"`

	// Upgraded contains artifacts where the new version is higher.
	Upgraded []ArtifactUpgrade `json:"upgraded,omitempty"`

	// Downgraded contains artifacts where the new version is lower.
	Downgraded []ArtifactUpgrade `json:"downgraded,omitempty"`
}

// IsEmpty returns true if there are no differences between the resolutions.
func (d *ResolutionDiff) IsEmpty() bool {
	return d.TotalChanges() == 0
}

// TotalChanges returns the total number of changes (added + removed + upgraded + downgraded).
func (d *ResolutionDiff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Upgraded) + len(d.Downgraded)
}

// DiffResolutions compares the mediated trees of two resolutions using
// Maven version ordering. A nil result is treated as empty.
func DiffResolutions(old, new *ResolveResult) *ResolutionDiff {
	return DiffTrees(version.MavenScheme{}, rootOf(old), rootOf(new))
}

// Diff compares two resolutions using the session's version scheme.
func (s *Session) Diff(old, new *ResolveResult) *ResolutionDiff {
	return DiffTrees(s.cfg.scheme, rootOf(old), rootOf(new))
}

func rootOf(r *ResolveResult) *graph.Node {
	if r == nil {
		return nil
	}
	return r.Root
}

// DiffTrees compares the artifacts of two trees. Results are sorted by key
// for consistent output.
func DiffTrees(scheme version.Scheme, old, new *graph.Node) *ResolutionDiff {
	diff := &ResolutionDiff{}
	oldVersions := versionsByKey(old)
	newVersions := versionsByKey(new)

	for key, newVersion := range newVersions {
		oldVersion, existed := oldVersions[key]
		switch {
		case !existed:
			diff.Added = append(diff.Added, ArtifactChange{Key: key, Version: newVersion})
		case oldVersion != newVersion:
			change := ArtifactUpgrade{Key: key, OldVersion: oldVersion, NewVersion: newVersion}
			if cmp := scheme.Compare(newVersion, oldVersion); cmp > 0 {
				diff.Upgraded = append(diff.Upgraded, change)
			} else if cmp < 0 {
				diff.Downgraded = append(diff.Downgraded, change)
			}
		}
	}
	for key, oldVersion := range oldVersions {
		if _, ok := newVersions[key]; !ok {
			diff.Removed = append(diff.Removed, ArtifactChange{Key: key, Version: oldVersion})
		}
	}

	byKey := func(a, b ArtifactChange) int { return strings.Compare(a.Key, b.Key) }
	upgradeByKey := func(a, b ArtifactUpgrade) int { return strings.Compare(a.Key, b.Key) }
	slices.SortFunc(diff.Added, byKey)
	slices.SortFunc(diff.Removed, byKey)
	slices.SortFunc(diff.Upgraded, upgradeByKey)
	slices.SortFunc(diff.Downgraded, upgradeByKey)
	return diff
}

// versionsByKey maps each non-root artifact key to the version of its first
// occurrence in pre-order. Mediated trees hold each key once.
func versionsByKey(root *graph.Node) map[string]string {
	out := make(map[string]string)
	if root == nil {
		return out
	}
	root.Walk(func(n *graph.Node, _ []*graph.Node) bool {
		if !n.IsRoot() && !n.Cyclic {
			if _, ok := out[n.Key().String()]; !ok {
				out[n.Key().String()] = n.Artifact.Version
			}
		}
		return true
	})
	return out
}
