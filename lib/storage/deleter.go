package storage

import (
	"runtime"
)

// --------------------------------------------------------------------------
// Deleter
// --------------------------------------------------------------------------

// Deleter is a delete session. Keys removed through it disappear for readers that
// are begun after Close returned successfully.
//
// Thread-safety: a Deleter must only be used by one goroutine at a time.
type Deleter struct {
	store *Store
	guard *guard
}

// Remove marks key for removal. Removing a key that does not exist is no error.
func (d *Deleter) Remove(key Key) error {
	h, err := d.guard.acquire()
	if err != nil {
		return err
	}

	raw := key.raw
	res := d.store.b.DeleteRemove(h, &raw)
	runtime.KeepAlive(d)

	if err := check(d.store.b, "delete remove", res); err != nil {
		return err
	}
	keysRemoved.Inc()
	return nil
}

// IsOpen reports whether the deleter was not closed yet.
func (d *Deleter) IsOpen() bool {
	return !d.guard.closed()
}

// Close completes the session, see Writer.Close.
func (d *Deleter) Close() error {
	runtime.SetFinalizer(d, nil)
	return d.closeGuard()
}

func (d *Deleter) closeGuard() error {
	res, released := d.guard.close()
	if !released {
		return nil
	}
	return check(d.store.b, "delete end", res)
}

func (d *Deleter) finalize() {
	if !d.guard.closed() {
		Logger.Warningf("a deleter of %q was never closed, releasing it now", d.store.path)
		if err := d.closeGuard(); err != nil {
			Logger.Errorf("failed to release a leaked deleter of %q: %v", d.store.path, err)
		}
	}
}
