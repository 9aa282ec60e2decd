// Package artifact provides the value types shared by every stage of
// dependency resolution: artifact coordinates, identity keys, scopes,
// exclusions and declared dependencies.
//
// All types in this package are plain values. A Coordinate or Dependency
// is never mutated after construction; helpers such as [Coordinate.WithVersion]
// return modified copies.
//
// # Coordinates
//
// A coordinate is written groupId:artifactId[:extension[:classifier]]:version,
// for example "org.slf4j:slf4j-api:2.0.9" or "junit:junit:jar:tests:4.13.2".
// The identity [Key] of a coordinate excludes the version so that several
// versions of the same artifact can be compared during mediation.
package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultExtension is used when a coordinate does not name an extension.
const DefaultExtension = "jar"

// Coordinate identifies a single artifact file.
type Coordinate struct {
	GroupID    string
	ArtifactID string
	Version    string
	Classifier string
	Extension  string
}

// NewCoordinate creates a coordinate with the default extension and no classifier.
func NewCoordinate(groupID, artifactID, version string) Coordinate {
	return Coordinate{
		GroupID:    groupID,
		ArtifactID: artifactID,
		Version:    version,
		Extension:  DefaultExtension,
	}
}

// ParseCoordinate parses a coordinate string of the form
// groupId:artifactId[:extension[:classifier]]:version.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	var c Coordinate
	switch len(parts) {
	case 3:
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}
	case 4:
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1], Extension: parts[2], Version: parts[3]}
	case 5:
		c = Coordinate{GroupID: parts[0], ArtifactID: parts[1], Extension: parts[2], Classifier: parts[3], Version: parts[4]}
	default:
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: expected groupId:artifactId[:extension[:classifier]]:version", s)
	}
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// MustParseCoordinate parses a coordinate or panics. Use only for constants/tests.
func MustParseCoordinate(s string) Coordinate {
	c, err := ParseCoordinate(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate reports whether the required fields are present.
func (c Coordinate) Validate() error {
	var missing []string
	if c.GroupID == "" {
		missing = append(missing, "groupId")
	}
	if c.ArtifactID == "" {
		missing = append(missing, "artifactId")
	}
	if c.Version == "" {
		missing = append(missing, "version")
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid coordinate %s: missing %s", c, strings.Join(missing, ", "))
	}
	if strings.ContainsAny(c.GroupID+c.ArtifactID+c.Classifier+c.Extension, ":/\\ ") {
		return errors.New("invalid coordinate " + c.String() + ": fields must not contain ':', '/', '\\' or spaces")
	}
	return nil
}

// Normalize fills in the default extension.
func (c Coordinate) Normalize() Coordinate {
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	return c
}

// Key returns the version-independent identity of the coordinate.
func (c Coordinate) Key() Key {
	ext := c.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	return Key{
		GroupID:    c.GroupID,
		ArtifactID: c.ArtifactID,
		Classifier: c.Classifier,
		Extension:  ext,
	}
}

// WithVersion returns a copy of c with the version replaced.
func (c Coordinate) WithVersion(v string) Coordinate {
	c.Version = v
	return c
}

// WithExtension returns a copy of c with the extension replaced.
func (c Coordinate) WithExtension(ext string) Coordinate {
	c.Extension = ext
	return c
}

// IsSnapshot reports whether the version denotes a snapshot build.
func (c Coordinate) IsSnapshot() bool {
	return strings.HasSuffix(c.Version, "-SNAPSHOT")
}

// String returns groupId:artifactId:extension[:classifier]:version.
func (c Coordinate) String() string {
	var b strings.Builder
	b.WriteString(c.GroupID)
	b.WriteByte(':')
	b.WriteString(c.ArtifactID)
	b.WriteByte(':')
	if c.Extension == "" {
		b.WriteString(DefaultExtension)
	} else {
		b.WriteString(c.Extension)
	}
	if c.Classifier != "" {
		b.WriteByte(':')
		b.WriteString(c.Classifier)
	}
	b.WriteByte(':')
	b.WriteString(c.Version)
	return b.String()
}

// Key is the identity of an artifact without its version. Mediation and
// caching compare artifacts by Key.
type Key struct {
	GroupID    string
	ArtifactID string
	Classifier string
	Extension  string
}

// String returns groupId:artifactId:extension[:classifier].
func (k Key) String() string {
	s := k.GroupID + ":" + k.ArtifactID + ":" + k.Extension
	if k.Classifier != "" {
		s += ":" + k.Classifier
	}
	return s
}

// Versionless reports the groupId:artifactId pair used for exclusion matching.
func (k Key) Versionless() string {
	return k.GroupID + ":" + k.ArtifactID
}

// Compare orders keys lexically field by field.
func (k Key) Compare(o Key) int {
	for _, pair := range [][2]string{
		{k.GroupID, o.GroupID},
		{k.ArtifactID, o.ArtifactID},
		{k.Extension, o.Extension},
		{k.Classifier, o.Classifier},
	} {
		if c := strings.Compare(pair[0], pair[1]); c != 0 {
			return c
		}
	}
	return 0
}
