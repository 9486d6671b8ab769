package workspace

import (
	"os"
	"testing"
)

func TestWorkspaceLifecycle(t *testing.T) {
	ws, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, err := ws.WriteFile("image1.png", []byte("data"))
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("written file missing: %v", err)
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Error("workspace directory survived Close")
	}

	// Close is idempotent.
	if err := ws.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestImageIDsAreSequentialPerWorkspace(t *testing.T) {
	ws1, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer ws1.Close()
	ws2, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer ws2.Close()

	if got := ws1.NextImageID(); got != "image1" {
		t.Errorf("first id = %q", got)
	}
	if got := ws1.NextImageID(); got != "image2" {
		t.Errorf("second id = %q", got)
	}
	// Sequences are instance-scoped, not process-global.
	if got := ws2.NextImageID(); got != "image1" {
		t.Errorf("fresh workspace first id = %q", got)
	}
}
