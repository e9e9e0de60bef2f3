package storage

import (
	"errors"
	"github.com/ValentinKolb/bKV/lib/boundary"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/bolt"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/mem"
	"github.com/ValentinKolb/bKV/lib/common"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenInvalidArguments(t *testing.T) {
	host := boundary.NewHost(mem.NewMemEngine(nil))

	if _, err := Open(host, ""); !errors.Is(err, ErrArgument) {
		t.Errorf("Expected ErrArgument for an empty path, got %v", err)
	}
	if _, err := Open(nil, "somewhere"); !errors.Is(err, ErrArgument) {
		t.Errorf("Expected ErrArgument for a nil boundary, got %v", err)
	}
	if host.OpenHandles() != 0 {
		t.Errorf("Expected no handles to be acquired, got %d", host.OpenHandles())
	}
}

func TestOpenNativeFailure(t *testing.T) {
	// a regular file where the bolt engine expects a directory
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Open(boundary.NewHost(bolt.NewBoltEngine(nil)), file)
	if !errors.Is(err, ErrNativeFailure) {
		t.Fatalf("Expected ErrNativeFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), file) {
		t.Errorf("Expected the engine's message naming the path, got %q", err)
	}
}

func TestOpenConfig(t *testing.T) {
	cfg := common.DefaultStoreConfig()
	cfg.Path = filepath.Join(t.TempDir(), "store")
	cfg.ReadBufferSize = 4

	s, err := OpenConfig(cfg)
	if err != nil {
		t.Fatalf("OpenConfig failed: %v", err)
	}
	defer s.Close()

	if s.Path() != cfg.Path || s.readBufferSize != 4 {
		t.Errorf("Expected path %q and buffer 4, got %q and %d", cfg.Path, s.Path(), s.readBufferSize)
	}

	cfg.Engine = "unknown"
	if _, err := OpenConfig(cfg); !errors.Is(err, ErrArgument) {
		t.Errorf("Expected ErrArgument for an unknown engine, got %v", err)
	}
}

func TestStoreLifecycle(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store) {
		if !s.IsOpen() {
			t.Fatalf("Expected a new store to be open")
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("second Close failed: %v", err)
		}
		if s.IsOpen() {
			t.Fatalf("Expected the store to be closed")
		}

		if _, err := s.BeginRead(); !errors.Is(err, ErrResourceClosed) {
			t.Errorf("Expected ResourceClosed from BeginRead, got %v", err)
		}
		if _, err := s.BeginWrite(); !errors.Is(err, ErrResourceClosed) {
			t.Errorf("Expected ResourceClosed from BeginWrite, got %v", err)
		}
		_, err := s.BeginDelete()
		if !errors.Is(err, ErrResourceClosed) {
			t.Errorf("Expected ResourceClosed from BeginDelete, got %v", err)
		}
		if err != nil && !strings.Contains(err.Error(), s.Path()) {
			t.Errorf("Expected the error to name the path, got %q", err)
		}
	})
}

func TestSessionsAfterClose(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store) {
		k := MustKey("testdoc1", 1)

		w, _ := s.BeginWrite()
		_ = w.Close()
		if err := w.Set(k, []byte("x")); !errors.Is(err, ErrResourceClosed) {
			t.Errorf("Expected ResourceClosed from Set, got %v", err)
		}
		if err := w.Close(); err != nil || w.IsOpen() {
			t.Errorf("Expected a second Close to be a no-op, got %v", err)
		}

		d, _ := s.BeginDelete()
		_ = d.Close()
		if err := d.Remove(k); !errors.Is(err, ErrResourceClosed) {
			t.Errorf("Expected ResourceClosed from Remove, got %v", err)
		}
		if err := d.Close(); err != nil || d.IsOpen() {
			t.Errorf("Expected a second Close to be a no-op, got %v", err)
		}

		r, _ := s.BeginRead()
		_ = r.Close()
		if _, err := r.TryReadNext(make([]byte, 8)); !errors.Is(err, ErrResourceClosed) {
			t.Errorf("Expected ResourceClosed from TryReadNext, got %v", err)
		}
		if _, err := r.ReadAll(); !errors.Is(err, ErrResourceClosed) {
			t.Errorf("Expected ResourceClosed from ReadAll, got %v", err)
		}
		if err := r.Close(); err != nil || r.IsOpen() {
			t.Errorf("Expected a second Close to be a no-op, got %v", err)
		}
	})
}

func TestReadAfterWrite(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store) {
		k1, k2 := MustKey("testdoc1", 1), MustKey("testdoc1", 2)
		set(t, s, map[Key]string{k1: "A", k2: "B"})
		requireContent(t, scan(t, s), map[Key]string{k1: "A", k2: "B"})

		remove(t, s, k1)
		requireContent(t, scan(t, s), map[Key]string{k2: "B"})

		// removing a missing key is no error
		remove(t, s, k1)
		requireContent(t, scan(t, s), map[Key]string{k2: "B"})
	})
}

func TestDocumentScenario(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store) {
		set(t, s, map[Key]string{
			MustKey("testdoc1", 3):  `{"title":"A"}`,
			MustKey("testdoc1", 17): `{"title":"B"}`,
		})

		got := scan(t, s)
		requireContent(t, got, map[Key]string{
			MustParseKey("testdoc1-3"):  `{"title":"A"}`,
			MustParseKey("testdoc1-17"): `{"title":"B"}`,
		})

		remove(t, s, MustKey("testdoc1", 3))

		got = scan(t, s)
		if len(got) != 1 {
			t.Fatalf("Expected one entry, got %v", got)
		}
		for k, v := range got {
			if k.String() != "testdoc1-17" || v != `{"title":"B"}` {
				t.Errorf("Expected testdoc1-17={\"title\":\"B\"}, got %s=%s", k, v)
			}
		}
	})
}

func TestVisibilityAfterClose(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store) {
		k := MustKey("visible1", 1)

		w, err := s.BeginWrite()
		if err != nil {
			t.Fatalf("BeginWrite failed: %v", err)
		}
		if err := w.Set(k, []byte("v")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		if got := scan(t, s); len(got) != 0 {
			t.Errorf("Expected no entries before the writer was closed, got %v", got)
		}

		if err := w.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		requireContent(t, scan(t, s), map[Key]string{k: "v"})
	})
}

func TestWriterDoesNotRetainValue(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store) {
		k := MustKey("retained", 1)
		value := []byte("original")

		w, _ := s.BeginWrite()
		if err := w.Set(k, value); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		copy(value, "changed!")
		_ = w.Close()

		requireContent(t, scan(t, s), map[Key]string{k: "original"})
	})
}

func TestStoreCloseWithOpenSessions(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store) {
		k := MustKey("session1", 1)
		set(t, s, map[Key]string{k: "v"})

		r, err := s.BeginRead()
		if err != nil {
			t.Fatalf("BeginRead failed: %v", err)
		}
		_ = s.Close()

		// the reader outlives the store handle
		entries, err := r.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll after store close failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Key != k {
			t.Errorf("Expected one entry %s, got %v", k, entries)
		}
		for _, e := range entries {
			e.Release()
		}
		if err := r.Close(); err != nil {
			t.Errorf("Reader.Close failed: %v", err)
		}
	})
}

func TestWriterCloseReportsCommitFailure(t *testing.T) {
	s, fake, host := newFakeStore(t)

	var failed boundary.Result
	fake.writeEnd = func(writer boundary.Handle) boundary.Result {
		// release the real handle, then report a failure like a failing commit would
		_ = host.WriteEnd(writer)
		failed = boundary.InternalError()
		return failed
	}
	fake.lastResult = recorded(boundary.Ok(), "")

	w, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite failed: %v", err)
	}
	_ = w.Set(MustKey("testdoc1", 1), []byte("x"))

	err = w.Close()
	var storageErr *Error
	if !errors.As(err, &storageErr) || storageErr.Code != ErrCNativeFailure || storageErr.Native != failed {
		t.Fatalf("Expected a NativeFailure for %s, got %v", failed, err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Expected the second Close to be a no-op, got %v", err)
	}
}

func TestHandlesAreReleased(t *testing.T) {
	host := boundary.NewHost(mem.NewMemEngine(nil))
	s, err := Open(host, t.Name())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	r, _ := s.BeginRead()
	w, _ := s.BeginWrite()
	d, _ := s.BeginDelete()
	if host.OpenHandles() != 4 {
		t.Errorf("Expected 4 open handles, got %d", host.OpenHandles())
	}

	_ = r.Close()
	_ = w.Close()
	_ = d.Close()
	_ = s.Close()
	_ = s.Close()

	if host.OpenHandles() != 0 {
		t.Errorf("Expected all handles to be released, got %d", host.OpenHandles())
	}
}

func TestConcurrentReaders(t *testing.T) {
	forEachEngine(t, func(t *testing.T, s *Store) {
		want := make(map[Key]string)
		for i := uint64(0); i < 50; i++ {
			want[MustKey("parallel", i)] = strings.Repeat("v", int(i)*40)
		}
		set(t, s, want)

		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			go func() {
				r, err := s.BeginRead()
				if err != nil {
					errs <- err
					return
				}
				defer r.Close()

				n := 0
				for entry, err := range r.Entries() {
					if err != nil {
						errs <- err
						return
					}
					if want[entry.Key] != string(entry.Value) {
						errs <- errors.New("unexpected value for " + entry.Key.String())
						return
					}
					entry.Release()
					n++
				}
				if n != len(want) {
					errs <- errors.New("incomplete scan")
					return
				}
				errs <- nil
			}()
		}

		for i := 0; i < 8; i++ {
			if err := <-errs; err != nil {
				t.Error(err)
			}
		}
	})
}
