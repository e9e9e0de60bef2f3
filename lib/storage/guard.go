package storage

import (
	"github.com/ValentinKolb/bKV/lib/boundary"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Resource Guard
// --------------------------------------------------------------------------

// guard owns exactly one boundary handle and releases it exactly once.
//
// The live handle is swapped for boundary.InvalidHandle before the release call is
// made, so concurrent or repeated closes and failing release calls can never lead
// to a second release of the same handle.
type guard struct {
	handle   atomic.Uint64
	resource string
	release  func(boundary.Handle) boundary.Result
}

// newGuard takes ownership of handle. resource names the guarded object in errors.
func newGuard(resource string, handle boundary.Handle, release func(boundary.Handle) boundary.Result) *guard {
	g := &guard{resource: resource, release: release}
	g.handle.Store(uint64(handle))
	return g
}

// acquire returns the live handle, or ResourceClosed if the guard was closed.
func (g *guard) acquire() (boundary.Handle, error) {
	h := boundary.Handle(g.handle.Load())
	if h == boundary.InvalidHandle {
		return boundary.InvalidHandle, newResourceClosedError(g.resource)
	}
	return h, nil
}

// ensureOpen returns ResourceClosed if the guard was closed.
func (g *guard) ensureOpen() error {
	_, err := g.acquire()
	return err
}

// closed reports whether the handle was released.
func (g *guard) closed() bool {
	return g.handle.Load() == uint64(boundary.InvalidHandle)
}

// close releases the handle. released is false if the guard was already closed,
// in that case no boundary call is made.
func (g *guard) close() (res boundary.Result, released bool) {
	h := boundary.Handle(g.handle.Swap(uint64(boundary.InvalidHandle)))
	if h == boundary.InvalidHandle {
		return boundary.Ok(), false
	}
	return g.release(h), true
}
