package storage

import (
	"github.com/ValentinKolb/bKV/lib/boundary"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/bolt"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/mem"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/sqlite"
	"path/filepath"
	"testing"
)

// --------------------------------------------------------------------------
// Test Helpers
// --------------------------------------------------------------------------

// testEngines creates a fresh engine per test, together with a path for a new store
var testEngines = map[string]func(t *testing.T) (boundary.Engine, string){
	"mem": func(t *testing.T) (boundary.Engine, string) {
		return mem.NewMemEngine(nil), t.Name()
	},
	"bolt": func(t *testing.T) (boundary.Engine, string) {
		return bolt.NewBoltEngine(&bolt.Options{NoSync: true}), filepath.Join(t.TempDir(), "store")
	},
	"sqlite": func(t *testing.T) (boundary.Engine, string) {
		return sqlite.NewSQLiteEngine(&sqlite.Options{NoSync: true}), filepath.Join(t.TempDir(), "store")
	},
}

// forEachEngine runs fn once per engine against a newly opened store
func forEachEngine(t *testing.T, fn func(t *testing.T, s *Store)) {
	for name, create := range testEngines {
		t.Run(name, func(t *testing.T) {
			engine, path := create(t)
			s, err := Open(boundary.NewHost(engine), path)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

func set(t *testing.T, s *Store, kv map[Key]string) {
	t.Helper()
	w, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite failed: %v", err)
	}
	for k, v := range kv {
		if err := w.Set(k, []byte(v)); err != nil {
			t.Fatalf("Set(%s) failed: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Writer.Close failed: %v", err)
	}
}

func remove(t *testing.T, s *Store, keys ...Key) {
	t.Helper()
	d, err := s.BeginDelete()
	if err != nil {
		t.Fatalf("BeginDelete failed: %v", err)
	}
	for _, k := range keys {
		if err := d.Remove(k); err != nil {
			t.Fatalf("Remove(%s) failed: %v", k, err)
		}
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Deleter.Close failed: %v", err)
	}
}

// scan reads all entries of the store into a map and releases them
func scan(t *testing.T, s *Store) map[Key]string {
	t.Helper()
	r, err := s.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead failed: %v", err)
	}
	defer r.Close()

	result := make(map[Key]string)
	for entry, err := range r.Entries() {
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if _, dup := result[entry.Key]; dup {
			t.Fatalf("key %s was read twice", entry.Key)
		}
		result[entry.Key] = string(entry.Value)
		entry.Release()
	}
	return result
}

func requireContent(t *testing.T, got, want map[Key]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %d: %v", len(want), len(got), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Expected %s=%q, got %q", k, v, got[k])
		}
	}
}

// --------------------------------------------------------------------------
// Fake Boundary
// --------------------------------------------------------------------------

// fakeBoundary overrides single boundary calls. Calls without an override go to
// the embedded boundary (or panic if there is none).
type fakeBoundary struct {
	boundary.Boundary

	lastResult func(msg []byte) (boundary.Result, boundary.Result, int)
	storeClose func(store boundary.Handle) boundary.Result
	readNext   func(reader boundary.Handle, key *[boundary.KeySize]byte, value []byte) (int, boundary.Result)
	writeEnd   func(writer boundary.Handle) boundary.Result
}

func (f *fakeBoundary) LastResult(msg []byte) (boundary.Result, boundary.Result, int) {
	if f.lastResult != nil {
		return f.lastResult(msg)
	}
	return f.Boundary.LastResult(msg)
}

func (f *fakeBoundary) StoreClose(store boundary.Handle) boundary.Result {
	if f.storeClose != nil {
		return f.storeClose(store)
	}
	return f.Boundary.StoreClose(store)
}

func (f *fakeBoundary) ReadNext(reader boundary.Handle, key *[boundary.KeySize]byte, value []byte) (int, boundary.Result) {
	if f.readNext != nil {
		return f.readNext(reader, key, value)
	}
	return f.Boundary.ReadNext(reader, key, value)
}

func (f *fakeBoundary) WriteEnd(writer boundary.Handle) boundary.Result {
	if f.writeEnd != nil {
		return f.writeEnd(writer)
	}
	return f.Boundary.WriteEnd(writer)
}

// recorded returns a LastResult implementation that reports res with msg
func recorded(res boundary.Result, msg string) func([]byte) (boundary.Result, boundary.Result, int) {
	return func(buf []byte) (boundary.Result, boundary.Result, int) {
		if len(buf) < len(msg) {
			return boundary.BufferTooSmall(), res, len(msg)
		}
		copy(buf, msg)
		return boundary.Ok(), res, len(msg)
	}
}

// newFakeStore opens a mem store through a fakeBoundary wrapping a real host
func newFakeStore(t *testing.T) (*Store, *fakeBoundary, *boundary.Host) {
	t.Helper()
	host := boundary.NewHost(mem.NewMemEngine(nil))
	fake := &fakeBoundary{Boundary: host}
	s, err := Open(fake, t.Name())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, fake, host
}
