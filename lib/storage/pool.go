package storage

import (
	"sync"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Buffer Pool
// --------------------------------------------------------------------------

// bufferPool recycles the read buffers of all readers of a store.
//
// Every buffer taken from the pool is wrapped in a lease. A lease is never reused,
// so releasing it twice (e.g. through copies of an Entry) returns the buffer once.
//
// Thread-safety: bufferPool is safe for concurrent use.
type bufferPool struct {
	pool        sync.Pool
	outstanding atomic.Int64
}

// lease is the exclusive ownership of one pooled buffer.
type lease struct {
	pool     *bufferPool
	data     []byte
	released atomic.Bool
}

// get returns a lease on a buffer of exactly size bytes.
func (p *bufferPool) get(size int) *lease {
	p.outstanding.Add(1)
	if v, ok := p.pool.Get().(*[]byte); ok {
		if cap(*v) >= size {
			return &lease{pool: p, data: (*v)[:size]}
		}
		// too small for this request, let the GC take it
	}
	return &lease{pool: p, data: make([]byte, size)}
}

// inUse returns the number of leases not yet released.
func (p *bufferPool) inUse() int64 {
	return p.outstanding.Load()
}

// release hands the buffer back to its pool. Only the first call has an effect.
func (l *lease) release() {
	if l == nil || !l.released.CompareAndSwap(false, true) {
		return
	}
	data := l.data[:0]
	l.data = nil
	l.pool.outstanding.Add(-1)
	l.pool.pool.Put(&data)
}

// --------------------------------------------------------------------------
// Entry
// --------------------------------------------------------------------------

// Entry is a key together with an owned copy of its value, as yielded by
// Reader.Entries.
//
// Value lives in a pooled buffer that belongs to the entry alone. Call Release once
// the value is no longer needed to return the buffer; Value must not be used after
// that. Entries that are never released are simply collected by the GC.
type Entry struct {
	Key   Key
	Value []byte

	lease *lease
}

// Release returns the buffer holding Value to the pool. It is safe to call Release
// more than once and on copies of the same entry.
func (e Entry) Release() {
	e.lease.release()
}
