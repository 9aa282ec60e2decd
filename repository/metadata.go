package repository

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/albertocavalcante/go-depgraph/version"
)

// lastUpdatedLayout is the timestamp format of <lastUpdated>.
const lastUpdatedLayout = "20060102150405"

// Metadata is the subset of maven-metadata.xml used for version resolution.
type Metadata struct {
	XMLName    xml.Name   `xml:"metadata"`
	GroupID    string     `xml:"groupId"`
	ArtifactID string     `xml:"artifactId"`
	Versioning Versioning `xml:"versioning"`
}

// Versioning lists the versions published for an artifact.
type Versioning struct {
	Latest      string   `xml:"latest,omitempty"`
	Release     string   `xml:"release,omitempty"`
	Versions    []string `xml:"versions>version"`
	LastUpdated string   `xml:"lastUpdated,omitempty"`
}

// ParseMetadata decodes maven-metadata.xml.
func ParseMetadata(r io.Reader) (*Metadata, error) {
	var m Metadata
	if err := xml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", MetadataFile, err)
	}
	return &m, nil
}

// Encode writes the metadata as XML.
func (m *Metadata) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// UpdatedAt parses <lastUpdated>. The zero time is returned when absent or
// malformed.
func (m *Metadata) UpdatedAt() time.Time {
	t, err := time.Parse(lastUpdatedLayout, m.Versioning.LastUpdated)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Merge folds the versions of other into m, keeping Maven order and
// dropping duplicates. Latest and Release are recomputed.
func (m *Metadata) Merge(other *Metadata) {
	if other == nil {
		return
	}
	seen := make(map[string]bool, len(m.Versioning.Versions))
	for _, v := range m.Versioning.Versions {
		seen[v] = true
	}
	for _, v := range other.Versioning.Versions {
		if !seen[v] {
			seen[v] = true
			m.Versioning.Versions = append(m.Versioning.Versions, v)
		}
	}
	version.Sort(m.Versioning.Versions)
	m.Versioning.Latest, m.Versioning.Release = "", ""
	for _, v := range m.Versioning.Versions {
		m.Versioning.Latest = v
		if !version.IsSnapshot(v) {
			m.Versioning.Release = v
		}
	}
	if other.UpdatedAt().After(m.UpdatedAt()) {
		m.Versioning.LastUpdated = other.Versioning.LastUpdated
	}
}

// NewMetadata builds a listing for the given versions, stamped with now.
func NewMetadata(groupID, artifactID string, versions []string, now time.Time) *Metadata {
	m := &Metadata{GroupID: groupID, ArtifactID: artifactID}
	m.Merge(&Metadata{Versioning: Versioning{
		Versions:    versions,
		LastUpdated: now.UTC().Format(lastUpdatedLayout),
	}})
	return m
}
