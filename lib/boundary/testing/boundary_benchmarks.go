package testing

import (
	"bytes"
	"github.com/ValentinKolb/bKV/lib/boundary"
	"testing"
)

// RunBoundaryBenchmarks runs all benchmarks for a boundary implementation
func RunBoundaryBenchmarks(b *testing.B, name string, factory BoundaryFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("WriteSession", func(b *testing.B) {
			benchmarkWriteSession(b, factory)
		})

		b.Run("WriteLargeValue", func(b *testing.B) {
			benchmarkWriteLargeValue(b, factory)
		})

		b.Run("Scan", func(b *testing.B) {
			benchmarkScan(b, factory, 1024)
		})

		b.Run("ScanGrowingBuffer", func(b *testing.B) {
			benchmarkScan(b, factory, 1)
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for a write session with 100 small values
func benchmarkWriteSession(b *testing.B, factory BoundaryFactory) {
	bd, path := factory(b)
	store := openStore(b, bd, path)
	b.Cleanup(func() { bd.StoreClose(store) })

	value := []byte("benchmark-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		writer, res := bd.WriteBegin(store)
		requireOk(b, bd, res, "WriteBegin")
		for j := 0; j < 100; j++ {
			key := Key("benchmrk", uint64(j))
			requireOk(b, bd, bd.WriteSet(writer, &key, value), "WriteSet")
		}
		requireOk(b, bd, bd.WriteEnd(writer), "WriteEnd")
	}
}

// Benchmark for writing a single 1 MiB value
func benchmarkWriteLargeValue(b *testing.B, factory BoundaryFactory) {
	bd, path := factory(b)
	store := openStore(b, bd, path)
	b.Cleanup(func() { bd.StoreClose(store) })

	value := bytes.Repeat([]byte{'x'}, 1<<20)
	key := Key("largeval", 1)

	b.SetBytes(int64(len(value)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		writer, res := bd.WriteBegin(store)
		requireOk(b, bd, res, "WriteBegin")
		requireOk(b, bd, bd.WriteSet(writer, &key, value), "WriteSet")
		requireOk(b, bd, bd.WriteEnd(writer), "WriteEnd")
	}
}

// Benchmark for a full scan over 1000 entries of up to 4 KiB
func benchmarkScan(b *testing.B, factory BoundaryFactory, bufSize int) {
	bd, path := factory(b)
	store := openStore(b, bd, path)
	b.Cleanup(func() { bd.StoreClose(store) })

	entries := make(map[[boundary.KeySize]byte][]byte, 1000)
	for i := 0; i < 1000; i++ {
		entries[Key("scanbnch", uint64(i))] = bytes.Repeat([]byte{byte(i)}, (i*41)%4096)
	}
	write(b, bd, store, entries)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if n := len(readAll(b, bd, store, bufSize)); n != len(entries) {
			b.Fatalf("Expected %d entries, got %d", len(entries), n)
		}
	}
}
