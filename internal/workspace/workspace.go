// Package workspace manages the per-cycle download directories.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Veraticus/visitor-sync/internal/common"
)

// DirPrefix is the name prefix of every download directory.
const DirPrefix = "sftp-"

// Manager handles creation of uniquely named directories under a root.
type Manager struct {
	root string
}

// NewManager creates a new workspace manager. An empty root means the system temp dir.
func NewManager(root string) *Manager {
	if root == "" {
		root = os.TempDir()
	}
	return &Manager{
		root: root,
	}
}

// Create makes a fresh, uniquely named directory under the root.
func (m *Manager) Create() (*Dir, error) {
	if err := os.MkdirAll(m.root, 0700); err != nil {
		return nil, fmt.Errorf("%w: failed to create root %s: %v", common.ErrWorkspace, m.root, err)
	}

	path, err := os.MkdirTemp(m.root, DirPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp directory: %v", common.ErrWorkspace, err)
	}

	return &Dir{path: path}, nil
}

// Dir is a download directory owned by a single cycle.
type Dir struct {
	path string
}

// Path returns the absolute directory path.
func (d *Dir) Path() string {
	return d.path
}

// Remove deletes the directory and its contents. Removing a directory that
// is already gone is not an error.
func (d *Dir) Remove() error {
	if _, err := os.Lstat(d.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("%w: failed to remove %s: %v", common.ErrWorkspace, d.path, err)
	}
	return nil
}
