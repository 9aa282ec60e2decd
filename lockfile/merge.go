package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// MergeStrategy defines how to handle conflicts when merging lockfiles.
type MergeStrategy int

const (
	// MergePreferExisting keeps existing entries on conflict.
	MergePreferExisting MergeStrategy = iota

	// MergePreferNew overwrites with new entries on conflict.
	MergePreferNew

	// MergeErrorOnConflict returns an error if entries differ.
	MergeErrorOnConflict
)

// Merge combines another lockfile into this one. Entries are merged by
// identity key according to strategy.
func (l *Lockfile) Merge(other *Lockfile, strategy MergeStrategy) error {
	if other == nil {
		return nil
	}
	if l.Artifacts == nil {
		l.Artifacts = make(map[string]Entry)
	}
	for key, e := range other.Artifacts {
		existing, exists := l.Artifacts[key]
		if !exists || existing == e {
			l.Artifacts[key] = e
			continue
		}

		switch strategy {
		case MergePreferExisting:
			// Keep existing
		case MergePreferNew:
			l.Artifacts[key] = e
		case MergeErrorOnConflict:
			return fmt.Errorf("lockfile conflict for %s: existing=%s (%s), new=%s (%s)",
				key, existing.Coordinate, existing.SHA256, e.Coordinate, e.SHA256)
		}
	}
	return nil
}

// HashContent computes the SHA-256 hex digest of content.
func HashContent(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// HashFile computes the SHA-256 hex digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyHash checks if content matches the expected digest.
func VerifyHash(content []byte, expected string) bool {
	return HashContent(content) == strings.ToLower(expected)
}
