package storedir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenLocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")

	lock, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		t.Fatalf("Expected the directory to be created: %v", err)
	}

	if _, err := Open(path); err == nil || !strings.Contains(err.Error(), "locked by another instance") {
		t.Fatalf("Expected the second Open to fail, got %v", err)
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	lock, err = Open(path)
	if err != nil {
		t.Fatalf("Expected Open to succeed after Unlock: %v", err)
	}
	_ = lock.Unlock()
}

func TestOpenOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Errorf("Expected Open on a regular file to fail")
	}
}
