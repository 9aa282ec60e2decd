package repository

import (
	"path"
	"strings"

	"github.com/albertocavalcante/go-depgraph/artifact"
)

// MetadataFile is the name of the version listing stored next to an
// artifact's version directories.
const MetadataFile = "maven-metadata.xml"

// ArtifactPath returns the slash-separated path of an artifact file relative
// to the repository root:
//
//	{group/as/dirs}/{artifactId}/{version}/{artifactId}-{version}[-{classifier}].{extension}
func ArtifactPath(c artifact.Coordinate) string {
	c = c.Normalize()
	name := c.ArtifactID + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	name += "." + c.Extension
	return path.Join(groupPath(c.GroupID), c.ArtifactID, c.Version, name)
}

// DescriptorPath returns the path of the POM describing c.
func DescriptorPath(c artifact.Coordinate) string {
	return ArtifactPath(artifact.Coordinate{
		GroupID:    c.GroupID,
		ArtifactID: c.ArtifactID,
		Version:    c.Version,
		Extension:  "pom",
	})
}

// MetadataPath returns the path of the version listing for groupId:artifactId.
func MetadataPath(groupID, artifactID string) string {
	return path.Join(groupPath(groupID), artifactID, MetadataFile)
}

// LocalMetadataPath returns where the version listing fetched from repo is
// cached inside a local repository. Listings from different repositories
// are kept apart.
func LocalMetadataPath(groupID, artifactID, repoID string) string {
	return path.Join(groupPath(groupID), artifactID, "maven-metadata-"+repoID+".xml")
}

// ChecksumPath returns the path of the SHA-1 checksum for a resource.
func ChecksumPath(resource string) string {
	return resource + ".sha1"
}

func groupPath(groupID string) string {
	return strings.ReplaceAll(groupID, ".", "/")
}
