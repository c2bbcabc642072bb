package tools

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Workspace confines file-touching tools to one directory tree. Every path a
// tool receives resolves through here; anything escaping the root is refused.
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace rooted at dir.
func NewWorkspace(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// Resolve turns a tool-supplied path into an absolute path inside the
// workspace. Relative paths resolve against the root; absolute paths must
// already be within it.
func (w *Workspace) Resolve(path string) (string, error) {
	if path == "" {
		return w.root, nil
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(w.root, abs)
	}
	abs = filepath.Clean(abs)

	if abs != w.root && !strings.HasPrefix(abs, w.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return abs, nil
}
