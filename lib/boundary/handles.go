package boundary

import (
	"github.com/puzpuzpuz/xsync/v3"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Handle Table
// --------------------------------------------------------------------------

// handleTable maps issued handles to their state.
// Handles are never reused, so a stale handle can't reach a newer object.
//
// Thread-safety: all methods are safe for concurrent use.
type handleTable[T any] struct {
	next    *atomic.Uint64
	entries *xsync.MapOf[Handle, T]
}

// newHandleTable creates a table drawing handle values from the shared counter next.
func newHandleTable[T any](next *atomic.Uint64) handleTable[T] {
	return handleTable[T]{
		next:    next,
		entries: xsync.NewMapOf[Handle, T](),
	}
}

// alloc registers value and returns its new handle.
func (t handleTable[T]) alloc(value T) Handle {
	h := Handle(t.next.Add(1))
	t.entries.Store(h, value)
	return h
}

// get returns the value of a live handle.
func (t handleTable[T]) get(h Handle) (T, bool) {
	if h == InvalidHandle {
		var zero T
		return zero, false
	}
	return t.entries.Load(h)
}

// free removes the handle and returns its value. Only the first call for a
// handle succeeds, later calls (double release) report false.
func (t handleTable[T]) free(h Handle) (T, bool) {
	if h == InvalidHandle {
		var zero T
		return zero, false
	}
	return t.entries.LoadAndDelete(h)
}

// size returns the number of live handles.
func (t handleTable[T]) size() int {
	return t.entries.Size()
}
