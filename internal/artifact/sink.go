// Package artifact stores run artifacts such as screenshots and summaries.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for artifact names that would escape the
// run directory.
var ErrInvalidName = errors.New("invalid artifact name")

// Sink receives named artifacts. It satisfies audit.Sink.
type Sink interface {
	Save(name string, data []byte) error
}

// FileSink writes artifacts to <root>/<runID>/<name>.
type FileSink struct {
	dir string
}

var _ Sink = (*FileSink)(nil)

// NewFileSink returns a sink rooted at root for the given run. The
// directory is created lazily on the first Save.
func NewFileSink(root, runID string) *FileSink {
	return &FileSink{dir: filepath.Join(root, runID)}
}

// Dir is the run directory artifacts land in.
func (s *FileSink) Dir() string {
	return s.dir
}

// Path returns where name would be written.
func (s *FileSink) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save writes data under name, replacing any earlier artifact.
func (s *FileSink) Save(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := LockAndWrite(s.Path(name), data); err != nil {
		return fmt.Errorf("save artifact %s: %w", name, err)
	}
	return nil
}

// List returns the artifact names currently stored for the run, skipping
// lock files and staged writes.
func (s *FileSink) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasSuffix(n, ".lock") || isStaged(n) {
			continue
		}
		names = append(names, n)
	}
	return names, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// isStaged reports whether n is an AtomicWrite temp file.
func isStaged(n string) bool {
	return strings.HasPrefix(n, ".") && strings.Contains(n, ".tmp-")
}
