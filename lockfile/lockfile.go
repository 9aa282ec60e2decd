package lockfile

import (
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-depgraph/artifact"
)

// Lockfile is the recorded outcome of one resolution.
type Lockfile struct {
	// Version is the lockfile format version.
	Version int `json:"lockFileVersion"`

	// Root is the coordinate of the resolved root, if any.
	Root string `json:"root,omitempty"`

	// Artifacts maps identity keys to their locked entries.
	Artifacts map[string]Entry `json:"artifacts"`
}

// Entry is one locked artifact.
type Entry struct {
	// Coordinate is the full coordinate, groupId:artifactId:extension[:classifier]:version.
	Coordinate string `json:"coordinate"`

	// Repository is the id of the repository that served the file.
	Repository string `json:"repository,omitempty"`

	// Scope is the mediated scope of the artifact.
	Scope string `json:"scope,omitempty"`

	// SHA256 is the hex digest of the file.
	SHA256 string `json:"sha256"`
}

// New creates an empty lockfile at the current format version.
func New() *Lockfile {
	return &Lockfile{
		Version:   CurrentVersion,
		Artifacts: make(map[string]Entry),
	}
}

// Set records e under the identity key of its coordinate.
func (l *Lockfile) Set(e Entry) error {
	c, err := artifact.ParseCoordinate(e.Coordinate)
	if err != nil {
		return fmt.Errorf("invalid lockfile entry: %w", err)
	}
	e.Coordinate = c.String()
	l.Artifacts[c.Key().String()] = e
	return nil
}

// Get returns the entry locked for key.
func (l *Lockfile) Get(key artifact.Key) (Entry, bool) {
	e, ok := l.Artifacts[key.String()]
	return e, ok
}

// Remove deletes the entry for key.
func (l *Lockfile) Remove(key artifact.Key) {
	delete(l.Artifacts, key.String())
}

// Keys returns the locked identity keys in sorted order.
func (l *Lockfile) Keys() []string {
	keys := make([]string, 0, len(l.Artifacts))
	for k := range l.Artifacts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of locked artifacts.
func (l *Lockfile) Len() int {
	return len(l.Artifacts)
}

// Version returns the locked version of the entry.
func (e Entry) Version() string {
	c, err := artifact.ParseCoordinate(e.Coordinate)
	if err != nil {
		return ""
	}
	return c.Version
}
