// Package workspace manages the scoped per-invocation staging directory.
//
// Each conversion acquires its own workspace for extracted media and
// temporary artifacts. All state is instance-scoped so concurrent
// conversions never share a directory or an id sequence.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is a per-invocation staging directory with a sequential image id
// allocator. It must be released with Close on every exit path.
type Workspace struct {
	dir      string
	imageSeq int
	closed   bool
}

// New creates a fresh staging directory under the system temp dir.
func New() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "doctex-*")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string {
	return w.dir
}

// NextImageID allocates the next sequential image id for this invocation.
func (w *Workspace) NextImageID() string {
	w.imageSeq++
	return fmt.Sprintf("image%d", w.imageSeq)
}

// Path returns an absolute path for a name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteFile writes data to a file inside the workspace and returns its
// absolute path.
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	path := w.Path(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}

// Close removes the staging directory. It is safe to call more than once.
func (w *Workspace) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return os.RemoveAll(w.dir)
}
