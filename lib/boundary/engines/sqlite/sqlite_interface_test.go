package sqlite

import (
	"github.com/ValentinKolb/bKV/lib/boundary"
	bdtesting "github.com/ValentinKolb/bKV/lib/boundary/testing"
	"os"
	"path/filepath"
	"testing"
)

func factory(t testing.TB) (boundary.Boundary, string) {
	return boundary.NewHost(NewSQLiteEngine(&Options{NoSync: true})), filepath.Join(t.TempDir(), "store")
}

func Test(t *testing.T) {
	bdtesting.RunBoundaryTests(t, "SQLiteEngine", factory)
}

func Benchmark(b *testing.B) {
	bdtesting.RunBoundaryBenchmarks(b, "SQLiteEngine", factory)
}

func TestSnapshotDuringWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")
	db, err := NewSQLiteEngine(&Options{NoSync: true}).Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	k1 := bdtesting.Key("snapshot", 1)
	k2 := bdtesting.Key("snapshot", 2)
	if err := db.Apply([]boundary.Op{{Key: k1, Value: []byte("a")}}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	c, err := db.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	// a writer can commit while the snapshot is open
	if err := db.Apply([]boundary.Op{{Key: k2, Value: []byte("b")}, {Key: k1, Delete: true}}); err != nil {
		t.Fatalf("Apply during an open snapshot failed: %v", err)
	}

	key, value, ok, err := c.Next()
	if err != nil || !ok || key != k1 || string(value) != "a" {
		t.Fatalf("Expected %q=a, got %q=%q (ok=%t, err=%v)", k1, key, value, ok, err)
	}

	if _, _, ok, err := c.Next(); ok || err != nil {
		t.Errorf("Expected the snapshot to end without the new entry, got ok=%t err=%v", ok, err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	c, err = db.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	defer c.Close()
	key, _, ok, _ = c.Next()
	if !ok || key != k2 {
		t.Errorf("Expected only %q in a new snapshot, got %q", k2, key)
	}
}

func TestDirectoryLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")
	engine := NewSQLiteEngine(nil)

	db, err := engine.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := engine.Open(path); err == nil {
		t.Errorf("Expected a second Open of a locked directory to fail")
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(path, dataFile)); err != nil {
		t.Errorf("Expected %s in the store directory: %v", dataFile, err)
	}
}
