package depgraph

import (
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-depgraph/artifact"
)

// BannedRelocationTarget is the target of a relocation entry without a
// right-hand side. Relocating to it makes the source unresolvable.
var BannedRelocationTarget = artifact.NewCoordinate("org.apache.maven.banned", "user-relocation", "1.0")

// Relocation moves consumers of matching artifacts to another coordinate.
//
// Source fields are patterns: "*" matches anything and a trailing "*"
// matches by prefix. Target fields set to "*" keep the source value.
type Relocation struct {
	Source artifact.Coordinate
	Target artifact.Coordinate

	// Global relocations apply to every request. Project relocations apply
	// only to requests whose context starts with "project".
	Global bool
}

// ParseRelocations parses a comma-separated list of entries. Each entry is
// "source>target" (project scope) or "source>>target" (global), where both
// sides are groupId:artifactId:version coordinates. An empty target bans the
// source.
func ParseRelocations(entries string) ([]Relocation, error) {
	var out []Relocation
	for _, entry := range strings.Split(entries, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		sep := ">"
		global := false
		if strings.Contains(entry, ">>") {
			sep, global = ">>", true
		} else if !strings.Contains(entry, ">") {
			return nil, fmt.Errorf("unrecognized relocation entry %q", entry)
		}
		src, dst, _ := strings.Cut(entry, sep)
		source, err := artifact.ParseCoordinate(src)
		if err != nil {
			return nil, fmt.Errorf("relocation %q: %w", entry, err)
		}
		target := BannedRelocationTarget
		if strings.TrimSpace(dst) != "" {
			if target, err = artifact.ParseCoordinate(dst); err != nil {
				return nil, fmt.Errorf("relocation %q: %w", entry, err)
			}
		}
		out = append(out, Relocation{Source: source, Target: target, Global: global})
	}
	return out, nil
}

// Matches reports whether the relocation applies to c.
func (r Relocation) Matches(c artifact.Coordinate) bool {
	return matchPattern(r.Source.GroupID, c.GroupID) &&
		matchPattern(r.Source.ArtifactID, c.ArtifactID) &&
		matchPattern(r.Source.Version, c.Version)
}

// Apply returns c moved to the relocation target.
func (r Relocation) Apply(c artifact.Coordinate) artifact.Coordinate {
	if r.Target.GroupID != artifact.Wildcard {
		c.GroupID = r.Target.GroupID
	}
	if r.Target.ArtifactID != artifact.Wildcard {
		c.ArtifactID = r.Target.ArtifactID
	}
	if r.Target.Version != artifact.Wildcard {
		c.Version = r.Target.Version
	}
	return c
}

func (r Relocation) String() string {
	sep := " > "
	if r.Global {
		sep = " >> "
	}
	return r.Source.Key().Versionless() + ":" + r.Source.Version + sep +
		r.Target.Key().Versionless() + ":" + r.Target.Version
}

func matchPattern(pattern, s string) bool {
	if pattern == artifact.Wildcard {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(s, prefix)
	}
	return pattern == s
}

// relocationFor returns the first relocation matching c in the given
// request context.
func relocationFor(rs []Relocation, c artifact.Coordinate, requestContext string) (Relocation, bool) {
	project := strings.HasPrefix(requestContext, "project")
	for _, r := range rs {
		if r.Matches(c) {
			if r.Global || project {
				return r, true
			}
			return Relocation{}, false
		}
	}
	return Relocation{}, false
}
