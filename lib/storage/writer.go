package storage

import (
	"runtime"
)

// --------------------------------------------------------------------------
// Writer
// --------------------------------------------------------------------------

// Writer is a write session. Values set through it become visible to readers that
// are begun after Close returned successfully.
//
// Thread-safety: a Writer must only be used by one goroutine at a time.
type Writer struct {
	store *Store
	guard *guard
}

// Set stores value under key. The value is consumed during the call, the caller may
// reuse the slice right after Set returned.
func (w *Writer) Set(key Key, value []byte) error {
	h, err := w.guard.acquire()
	if err != nil {
		return err
	}

	raw := key.raw
	res := w.store.b.WriteSet(h, &raw, value)
	runtime.KeepAlive(w)

	if err := check(w.store.b, "write set", res); err != nil {
		return err
	}
	valuesWritten.Inc()
	return nil
}

// IsOpen reports whether the writer was not closed yet.
func (w *Writer) IsOpen() bool {
	return !w.guard.closed()
}

// Close completes the session. The handle is released exactly once, even if the
// engine fails to commit; that failure is returned as NativeFailure.
// Calling Close more than once is a no-op.
func (w *Writer) Close() error {
	runtime.SetFinalizer(w, nil)
	return w.closeGuard()
}

func (w *Writer) closeGuard() error {
	res, released := w.guard.close()
	if !released {
		return nil
	}
	return check(w.store.b, "write end", res)
}

func (w *Writer) finalize() {
	if !w.guard.closed() {
		Logger.Warningf("a writer of %q was never closed, releasing it now", w.store.path)
		if err := w.closeGuard(); err != nil {
			Logger.Errorf("failed to release a leaked writer of %q: %v", w.store.path, err)
		}
	}
}
