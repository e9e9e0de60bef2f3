package testing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/bKV/lib/boundary"
	"sync"
	"testing"
)

// BoundaryFactory returns a boundary together with a path at which a new, empty store can be opened.
type BoundaryFactory func(t testing.TB) (b boundary.Boundary, path string)

// RunBoundaryTests runs a comprehensive test suite for a boundary implementation.
func RunBoundaryTests(t *testing.T, name string, factory BoundaryFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("OpenClose", func(t *testing.T) {
			testOpenClose(t, factory)
		})

		t.Run("OpenInvalidPath", func(t *testing.T) {
			testOpenInvalidPath(t, factory)
		})

		t.Run("Write&Read", func(t *testing.T) {
			testWriteRead(t, factory)
		})

		t.Run("BufferTooSmall", func(t *testing.T) {
			testBufferTooSmall(t, factory)
		})

		t.Run("ZeroSizedBuffer", func(t *testing.T) {
			testZeroSizedBuffer(t, factory)
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory)
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory)
		})

		t.Run("Visibility", func(t *testing.T) {
			testVisibility(t, factory)
		})

		t.Run("Ordering", func(t *testing.T) {
			testOrdering(t, factory)
		})

		t.Run("InvalidHandles", func(t *testing.T) {
			testInvalidHandles(t, factory)
		})

		t.Run("CloseWithOpenSession", func(t *testing.T) {
			testCloseWithOpenSession(t, factory)
		})

		t.Run("Reopen", func(t *testing.T) {
			testReopen(t, factory)
		})

		t.Run("LastResult", func(t *testing.T) {
			testLastResult(t, factory)
		})

		t.Run("LargeValue", func(t *testing.T) {
			testLargeValue(t, factory)
		})

		t.Run("ConcurrentReaders", func(t *testing.T) {
			testConcurrentReaders(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Key builds a wire key from an 8 byte tag and an ordinal
func Key(tag string, lo uint64) [boundary.KeySize]byte {
	var k [boundary.KeySize]byte
	copy(k[:8], tag)
	binary.NativeEndian.PutUint64(k[8:], lo)
	return k
}

func requireOk(t testing.TB, b boundary.Boundary, res boundary.Result, op string) {
	t.Helper()
	if res.IsSuccess() {
		return
	}
	msg := make([]byte, 1024)
	_, last, n := b.LastResult(msg)
	if n > len(msg) {
		n = 0
	}
	t.Fatalf("%s failed with %s (last=%s): %s", op, res, last, msg[:n])
}

func openStore(t testing.TB, b boundary.Boundary, path string) boundary.Handle {
	t.Helper()
	store, res := b.StoreOpen([]byte(path))
	requireOk(t, b, res, "StoreOpen")
	if store == boundary.InvalidHandle {
		t.Fatalf("StoreOpen returned the invalid handle")
	}
	return store
}

func write(t testing.TB, b boundary.Boundary, store boundary.Handle, entries map[[boundary.KeySize]byte][]byte) {
	t.Helper()
	writer, res := b.WriteBegin(store)
	requireOk(t, b, res, "WriteBegin")
	for k, v := range entries {
		k := k
		requireOk(t, b, b.WriteSet(writer, &k, v), "WriteSet")
	}
	requireOk(t, b, b.WriteEnd(writer), "WriteEnd")
}

func remove(t testing.TB, b boundary.Boundary, store boundary.Handle, keys ...[boundary.KeySize]byte) {
	t.Helper()
	deleter, res := b.DeleteBegin(store)
	requireOk(t, b, res, "DeleteBegin")
	for _, k := range keys {
		k := k
		requireOk(t, b, b.DeleteRemove(deleter, &k), "DeleteRemove")
	}
	requireOk(t, b, b.DeleteEnd(deleter), "DeleteEnd")
}

type entry struct {
	key   [boundary.KeySize]byte
	value []byte
}

// readAll scans the whole store starting with a buffer of bufSize bytes and
// growing it to exactly the reported size whenever it is too small
func readAll(t testing.TB, b boundary.Boundary, store boundary.Handle, bufSize int) []entry {
	t.Helper()
	reader, res := b.ReadBegin(store)
	requireOk(t, b, res, "ReadBegin")
	defer func() { requireOk(t, b, b.ReadEnd(reader), "ReadEnd") }()

	var (
		entries []entry
		key     [boundary.KeySize]byte
		buf     = make([]byte, bufSize)
	)
	for {
		n, res := b.ReadNext(reader, &key, buf)
		switch {
		case res.IsDone():
			return entries
		case res.IsBufferTooSmall():
			if n <= len(buf) {
				t.Fatalf("BufferTooSmall reported %d bytes for a buffer of %d", n, len(buf))
			}
			buf = make([]byte, n)
		default:
			requireOk(t, b, res, "ReadNext")
			value := make([]byte, n)
			copy(value, buf[:n])
			entries = append(entries, entry{key: key, value: value})
		}
	}
}

func asMap(entries []entry) map[[boundary.KeySize]byte][]byte {
	m := make(map[[boundary.KeySize]byte][]byte, len(entries))
	for _, e := range entries {
		m[e.key] = e.value
	}
	return m
}

func requireEntries(t testing.TB, got []entry, want map[[boundary.KeySize]byte][]byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(got))
	}
	seen := make(map[[boundary.KeySize]byte]bool)
	for _, e := range got {
		if seen[e.key] {
			t.Errorf("Entry %q was returned twice", e.key)
		}
		seen[e.key] = true

		expected, ok := want[e.key]
		if !ok {
			t.Errorf("Unexpected entry %q", e.key)
			continue
		}
		if !bytes.Equal(e.value, expected) {
			t.Errorf("Expected value %q for %q, got %q", expected, e.key, e.value)
		}
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testOpenClose(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)

	if entries := readAll(t, b, store, 16); len(entries) != 0 {
		t.Errorf("Expected a new store to be empty, got %d entries", len(entries))
	}

	requireOk(t, b, b.StoreClose(store), "StoreClose")
}

func testOpenInvalidPath(t *testing.T, factory BoundaryFactory) {
	b, _ := factory(t)

	store, res := b.StoreOpen(nil)
	if res.Kind != boundary.KindArgumentNull {
		t.Fatalf("Expected ArgumentNull for an empty path, got %s", res)
	}
	if store != boundary.InvalidHandle {
		t.Errorf("Expected the invalid handle for a failed open, got %d", store)
	}
	if res.ID == 0 {
		t.Errorf("Expected an error result to carry a correlation id")
	}

	msg := make([]byte, 1024)
	_, last, n := b.LastResult(msg)
	if last != res {
		t.Errorf("Expected the last result to be %s, got %s", res, last)
	}
	if n == 0 {
		t.Errorf("Expected a message for the failed open")
	}
}

func testWriteRead(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)
	defer b.StoreClose(store)

	want := map[[boundary.KeySize]byte][]byte{
		Key("testdoc1", 3):  []byte(`{"title":"A"}`),
		Key("testdoc1", 17): []byte(`{"title":"B"}`),
		Key("zzzzzzzz", 0):  {},
	}
	write(t, b, store, want)

	for _, size := range []int{1, 13, 1024} {
		requireEntries(t, readAll(t, b, store, size), want)
	}
}

func testBufferTooSmall(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)
	defer b.StoreClose(store)

	first := Key("aaaaaaaa", 1)
	second := Key("bbbbbbbb", 2)
	write(t, b, store, map[[boundary.KeySize]byte][]byte{
		first:  []byte("hello"),
		second: []byte("world!"),
	})

	reader, res := b.ReadBegin(store)
	requireOk(t, b, res, "ReadBegin")
	defer b.ReadEnd(reader)

	var key [boundary.KeySize]byte

	// repeated too small reads never advance past the entry
	for i := 0; i < 3; i++ {
		n, res := b.ReadNext(reader, &key, make([]byte, 2))
		if !res.IsBufferTooSmall() {
			t.Fatalf("Expected BufferTooSmall, got %s", res)
		}
		if n != 5 {
			t.Fatalf("Expected a required size of 5, got %d", n)
		}
	}

	buf := make([]byte, 5)
	n, res := b.ReadNext(reader, &key, buf)
	requireOk(t, b, res, "ReadNext")
	if key != first || string(buf[:n]) != "hello" {
		t.Fatalf("Expected the first entry after retrying, got %q=%q", key, buf[:n])
	}

	n, res = b.ReadNext(reader, &key, buf)
	if !res.IsBufferTooSmall() || n != 6 {
		t.Fatalf("Expected BufferTooSmall(6) for the second entry, got %s(%d)", res, n)
	}

	buf = make([]byte, 6)
	n, res = b.ReadNext(reader, &key, buf)
	requireOk(t, b, res, "ReadNext")
	if key != second || string(buf[:n]) != "world!" {
		t.Fatalf("Expected the second entry after retrying, got %q=%q", key, buf[:n])
	}

	if _, res = b.ReadNext(reader, &key, buf); !res.IsDone() {
		t.Fatalf("Expected Done, got %s", res)
	}
	if _, res = b.ReadNext(reader, &key, buf); !res.IsDone() {
		t.Fatalf("Expected Done to be terminal, got %s", res)
	}
}

func testZeroSizedBuffer(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)
	defer b.StoreClose(store)

	write(t, b, store, map[[boundary.KeySize]byte][]byte{Key("aaaaaaaa", 1): []byte("x")})

	reader, res := b.ReadBegin(store)
	requireOk(t, b, res, "ReadBegin")
	defer b.ReadEnd(reader)

	var key [boundary.KeySize]byte
	if _, res := b.ReadNext(reader, &key, nil); res.Kind != boundary.KindArgumentNull {
		t.Fatalf("Expected ArgumentNull for a zero sized buffer, got %s", res)
	}

	// the failed call does not consume the entry
	buf := make([]byte, 8)
	n, res := b.ReadNext(reader, &key, buf)
	requireOk(t, b, res, "ReadNext")
	if string(buf[:n]) != "x" {
		t.Errorf("Expected value x, got %q", buf[:n])
	}
}

func testDelete(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)
	defer b.StoreClose(store)

	k1, k2 := Key("testdoc1", 3), Key("testdoc1", 17)
	write(t, b, store, map[[boundary.KeySize]byte][]byte{
		k1: []byte(`{"title":"A"}`),
		k2: []byte(`{"title":"B"}`),
	})

	remove(t, b, store, k1)
	requireEntries(t, readAll(t, b, store, 1024), map[[boundary.KeySize]byte][]byte{
		k2: []byte(`{"title":"B"}`),
	})

	// removing a missing key is not an error
	remove(t, b, store, k1, Key("missing!", 1))
	if entries := readAll(t, b, store, 1024); len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}
}

func testOverwrite(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)
	defer b.StoreClose(store)

	k := Key("testdoc1", 1)
	write(t, b, store, map[[boundary.KeySize]byte][]byte{k: []byte("first")})
	write(t, b, store, map[[boundary.KeySize]byte][]byte{k: []byte("second value")})

	requireEntries(t, readAll(t, b, store, 4), map[[boundary.KeySize]byte][]byte{k: []byte("second value")})

	// within one session the last write wins
	writer, res := b.WriteBegin(store)
	requireOk(t, b, res, "WriteBegin")
	requireOk(t, b, b.WriteSet(writer, &k, []byte("a")), "WriteSet")
	requireOk(t, b, b.WriteSet(writer, &k, []byte("b")), "WriteSet")
	requireOk(t, b, b.WriteEnd(writer), "WriteEnd")

	requireEntries(t, readAll(t, b, store, 4), map[[boundary.KeySize]byte][]byte{k: []byte("b")})
}

func testVisibility(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)
	defer b.StoreClose(store)

	k := Key("visible!", 1)
	value := []byte("value")

	writer, res := b.WriteBegin(store)
	requireOk(t, b, res, "WriteBegin")
	requireOk(t, b, b.WriteSet(writer, &k, value), "WriteSet")

	// the caller's buffer is not retained
	value[0] = 'X'

	if entries := readAll(t, b, store, 16); len(entries) != 0 {
		t.Errorf("Expected no entries before the write session ended, got %d", len(entries))
	}

	requireOk(t, b, b.WriteEnd(writer), "WriteEnd")
	requireEntries(t, readAll(t, b, store, 16), map[[boundary.KeySize]byte][]byte{k: []byte("value")})

	deleter, res := b.DeleteBegin(store)
	requireOk(t, b, res, "DeleteBegin")
	requireOk(t, b, b.DeleteRemove(deleter, &k), "DeleteRemove")

	if entries := readAll(t, b, store, 16); len(entries) != 1 {
		t.Errorf("Expected the entry to be visible before the delete session ended, got %d entries", len(entries))
	}

	requireOk(t, b, b.DeleteEnd(deleter), "DeleteEnd")
	if entries := readAll(t, b, store, 16); len(entries) != 0 {
		t.Errorf("Expected no entries after the delete session ended, got %d", len(entries))
	}
}

func testOrdering(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)
	defer b.StoreClose(store)

	want := make(map[[boundary.KeySize]byte][]byte)
	for i := 0; i < 100; i++ {
		want[Key(fmt.Sprintf("tag%05d", (i*37)%100), uint64(i))] = []byte(fmt.Sprintf("value-%d", i))
	}
	write(t, b, store, want)

	entries := readAll(t, b, store, 8)
	requireEntries(t, entries, want)
	for i := 1; i < len(entries); i++ {
		if bytes.Compare(entries[i-1].key[:], entries[i].key[:]) >= 0 {
			t.Fatalf("Entries are not ordered by key bytes at position %d", i)
		}
	}
}

func testInvalidHandles(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)
	defer b.StoreClose(store)

	var key [boundary.KeySize]byte
	buf := make([]byte, 8)

	if _, res := b.ReadNext(boundary.InvalidHandle, &key, buf); res.Kind != boundary.KindArgumentNull {
		t.Errorf("Expected ArgumentNull for the invalid handle, got %s", res)
	}

	reader, res := b.ReadBegin(store)
	requireOk(t, b, res, "ReadBegin")
	requireOk(t, b, b.ReadEnd(reader), "ReadEnd")

	if res := b.ReadEnd(reader); res.Kind != boundary.KindArgumentNull {
		t.Errorf("Expected ArgumentNull for a double release, got %s", res)
	}
	if _, res := b.ReadNext(reader, &key, buf); res.Kind != boundary.KindArgumentNull {
		t.Errorf("Expected ArgumentNull for a released reader, got %s", res)
	}

	writer, res := b.WriteBegin(store)
	requireOk(t, b, res, "WriteBegin")

	// handles of one kind are not valid for another
	if res := b.DeleteRemove(writer, &key); res.Kind != boundary.KindArgumentNull {
		t.Errorf("Expected ArgumentNull for a writer handle used as deleter, got %s", res)
	}
	if _, res := b.ReadBegin(writer); res.Kind != boundary.KindArgumentNull {
		t.Errorf("Expected ArgumentNull for a writer handle used as store, got %s", res)
	}
	requireOk(t, b, b.WriteEnd(writer), "WriteEnd")

	if res := b.WriteSet(writer, &key, buf); res.Kind != boundary.KindArgumentNull {
		t.Errorf("Expected ArgumentNull for a released writer, got %s", res)
	}
}

func testCloseWithOpenSession(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)

	k := Key("session!", 1)
	write(t, b, store, map[[boundary.KeySize]byte][]byte{k: []byte("value")})

	reader, res := b.ReadBegin(store)
	requireOk(t, b, res, "ReadBegin")

	requireOk(t, b, b.StoreClose(store), "StoreClose")

	if _, res := b.WriteBegin(store); res.Kind != boundary.KindArgumentNull {
		t.Errorf("Expected ArgumentNull for a session on a closed store, got %s", res)
	}
	if res := b.StoreClose(store); res.Kind != boundary.KindArgumentNull {
		t.Errorf("Expected ArgumentNull for a double close, got %s", res)
	}

	// the open reader can still finish its scan
	var key [boundary.KeySize]byte
	buf := make([]byte, 16)
	n, res := b.ReadNext(reader, &key, buf)
	requireOk(t, b, res, "ReadNext")
	if key != k || string(buf[:n]) != "value" {
		t.Errorf("Expected %q=value, got %q=%q", k, key, buf[:n])
	}
	requireOk(t, b, b.ReadEnd(reader), "ReadEnd")

	// the store is fully released once its last session ended
	store = openStore(t, b, path)
	requireOk(t, b, b.StoreClose(store), "StoreClose")
}

func testReopen(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)

	want := map[[boundary.KeySize]byte][]byte{Key("persist!", 42): []byte("kept")}
	write(t, b, store, want)
	requireOk(t, b, b.StoreClose(store), "StoreClose")

	store = openStore(t, b, path)
	defer b.StoreClose(store)
	requireEntries(t, readAll(t, b, store, 64), want)
}

func testLastResult(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)
	defer b.StoreClose(store)

	var key [boundary.KeySize]byte
	_, failed := b.ReadNext(boundary.Handle(1<<62), &key, make([]byte, 8))
	if failed.IsSuccess() {
		t.Fatalf("Expected ReadNext on an unknown handle to fail")
	}

	// a message buffer that is too small reports the required size
	res, last, n := b.LastResult(make([]byte, 1))
	if !res.IsBufferTooSmall() {
		t.Fatalf("Expected BufferTooSmall for a one byte message buffer, got %s", res)
	}
	if last != failed {
		t.Errorf("Expected the last result to be %s, got %s", failed, last)
	}
	if n <= 1 {
		t.Fatalf("Expected a message longer than one byte, got %d", n)
	}

	msg := make([]byte, n)
	res, last, m := b.LastResult(msg)
	requireOk(t, b, res, "LastResult")
	if last != failed || m != n {
		t.Errorf("Expected %s with %d bytes, got %s with %d bytes", failed, n, last, m)
	}

	// a successful call replaces the recorded result
	readAll(t, b, store, 8)
	_, last, _ = b.LastResult(msg)
	if last == failed {
		t.Errorf("Expected the recorded result to change after a successful call")
	}
}

func testLargeValue(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)
	defer b.StoreClose(store)

	large := bytes.Repeat([]byte("0123456789abcdef"), 64*1024) // 1 MiB
	want := map[[boundary.KeySize]byte][]byte{
		Key("largeval", 1): large,
		Key("smallval", 2): []byte("small"),
	}
	write(t, b, store, want)

	requireEntries(t, readAll(t, b, store, 1024), want)
}

func testConcurrentReaders(t *testing.T, factory BoundaryFactory) {
	b, path := factory(t)
	store := openStore(t, b, path)
	defer b.StoreClose(store)

	want := make(map[[boundary.KeySize]byte][]byte)
	for i := 0; i < 50; i++ {
		want[Key("parallel", uint64(i))] = bytes.Repeat([]byte{byte(i)}, i*10)
	}
	write(t, b, store, want)

	const numReaders = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts []int
	)
	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(bufSize int) {
			defer wg.Done()
			entries := readAll(t, b, store, bufSize)
			got := asMap(entries)
			for k, v := range want {
				if !bytes.Equal(got[k], v) {
					t.Errorf("Reader with buffer %d returned a wrong value for %q", bufSize, k)
				}
			}
			mu.Lock()
			counts = append(counts, len(entries))
			mu.Unlock()
		}(1 + i*7)
	}
	wg.Wait()

	for _, n := range counts {
		if n != len(want) {
			t.Errorf("Expected %d entries per reader, got %d", len(want), n)
		}
	}
}
