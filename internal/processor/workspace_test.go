package processor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWorkspaceLifecycle(t *testing.T) {
	ws, err := NewWorkspace()
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}

	if fi, err := os.Stat(ws.Dir); err != nil || !fi.IsDir() {
		t.Fatalf("workspace dir %s not created: %v", ws.Dir, err)
	}

	intermediate := ws.IntermediatePath()
	if filepath.Dir(intermediate) != ws.Dir {
		t.Errorf("intermediate %s not inside workspace %s", intermediate, ws.Dir)
	}
	if !strings.HasSuffix(intermediate, ".m4a") {
		t.Errorf("intermediate %s is not an m4a path", intermediate)
	}

	// Stage a file, then make sure Cleanup takes the whole tree with it
	if err := os.WriteFile(intermediate, []byte("stub"), 0o644); err != nil {
		t.Fatalf("staging file: %v", err)
	}
	if err := ws.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Errorf("workspace dir %s still exists after Cleanup", ws.Dir)
	}
}
