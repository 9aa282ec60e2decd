package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultName is the file name of a lockfile inside a project directory.
const DefaultName = "depgraph.lock"

// lockfilePermissions is the file permission mode for lockfiles.
const lockfilePermissions = 0o644

// ReadFile reads and parses a lockfile from the given path.
func ReadFile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	return Parse(data)
}

// Parse parses lockfile JSON data. Lockfiles of another format version are
// rejected with ErrUnsupportedVersion.
func Parse(data []byte) (*Lockfile, error) {
	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile JSON: %w", err)
	}
	if err := CheckVersion(lf.Version); err != nil {
		return nil, err
	}
	if lf.Artifacts == nil {
		lf.Artifacts = make(map[string]Entry)
	}
	return &lf, nil
}

// WriteFile writes the lockfile to path. The content goes to a temporary
// file in the same directory first, so readers never observe a partial
// lockfile.
func (l *Lockfile) WriteFile(path string) (err error) {
	data, err := l.Marshal()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create lockfile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	if err = tmp.Chmod(lockfilePermissions); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	return nil
}

// WriteTo writes the lockfile to the given writer.
func (l *Lockfile) WriteTo(w io.Writer) (int64, error) {
	data, err := l.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Marshal serializes the lockfile as indented JSON. Map keys are sorted, so
// equal lockfiles produce equal bytes.
func (l *Lockfile) Marshal() ([]byte, error) {
	out := *l
	if out.Artifacts == nil {
		out.Artifacts = map[string]Entry{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Exists returns true if a lockfile exists at the given path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultPath returns the lockfile path inside dir.
func DefaultPath(dir string) string {
	if dir == "" {
		return DefaultName
	}
	return filepath.Join(dir, DefaultName)
}
