package lockfile

import (
	"errors"
	"fmt"
)

// CurrentVersion is the format version written by this package.
//
// Versions are matched exactly: a lockfile written by another format
// version is never reinterpreted.
const CurrentVersion = 1

// ErrUnsupportedVersion is returned when a lockfile's format version is not
// CurrentVersion.
var ErrUnsupportedVersion = errors.New("unsupported lockfile version")

// CheckVersion reports whether version can be read by this package.
func CheckVersion(version int) error {
	if version != CurrentVersion {
		return fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, version, CurrentVersion)
	}
	return nil
}
