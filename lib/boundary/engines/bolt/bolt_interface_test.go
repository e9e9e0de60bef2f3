package bolt

import (
	"github.com/ValentinKolb/bKV/lib/boundary"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/internal/storedir"
	bdtesting "github.com/ValentinKolb/bKV/lib/boundary/testing"
	"os"
	"path/filepath"
	"testing"
)

func factory(t testing.TB) (boundary.Boundary, string) {
	return boundary.NewHost(NewBoltEngine(&Options{NoSync: true})), filepath.Join(t.TempDir(), "store")
}

func Test(t *testing.T) {
	bdtesting.RunBoundaryTests(t, "BoltEngine", factory)
}

func Benchmark(b *testing.B) {
	bdtesting.RunBoundaryBenchmarks(b, "BoltEngine", factory)
}

func TestDirectoryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked")
	engine := NewBoltEngine(nil)

	db, err := engine.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := engine.Open(path); err == nil {
		t.Fatalf("Expected a second Open of a locked directory to fail")
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err = engine.Open(path)
	if err != nil {
		t.Fatalf("Expected Open to succeed after the lock was released: %v", err)
	}
	defer db.Close()

	for _, name := range []string{dataFile, storedir.LockFile} {
		if _, err := os.Stat(filepath.Join(path, name)); err != nil {
			t.Errorf("Expected %s in the store directory: %v", name, err)
		}
	}
}

func TestOpenOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("not a directory"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewBoltEngine(nil).Open(path); err == nil {
		t.Errorf("Expected Open on a regular file to fail")
	}
}
