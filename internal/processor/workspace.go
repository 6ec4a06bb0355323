package processor

import (
	"os"
	"path/filepath"
)

// Workspace owns the temporary directory holding the AAC intermediate.
// It exists for exactly one invocation: create it, stage the encode in
// it, and release it on every exit path with a deferred Cleanup.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh private temp directory.
func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "mastercheck-")
	if err != nil {
		return nil, err
	}
	return &Workspace{Dir: dir}, nil
}

// IntermediatePath names the staged m4a inside the workspace.
func (w *Workspace) IntermediatePath() string {
	return filepath.Join(w.Dir, "intermediate.m4a")
}

// Cleanup removes the workspace and everything staged in it.
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.Dir)
}
