package storage

import (
	"fmt"
	"github.com/ValentinKolb/bKV/lib/boundary"
	"iter"
	"runtime"
)

// --------------------------------------------------------------------------
// Read Result
// --------------------------------------------------------------------------

// ReadKind is the outcome of a single TryReadNext call.
type ReadKind uint8

const (
	ReadData           ReadKind = iota // an entry was read into the buffer
	ReadDone                           // there are no more entries
	ReadBufferTooSmall                 // the next value needs a buffer of Required bytes
)

func (k ReadKind) String() string {
	switch k {
	case ReadData:
		return "Data"
	case ReadDone:
		return "Done"
	case ReadBufferTooSmall:
		return "BufferTooSmall"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// ReadResult is the outcome of Reader.TryReadNext.
//
// For ReadData, Value is the prefix of the caller's buffer holding the value. It
// aliases that buffer and is only valid until the buffer is written again.
type ReadResult struct {
	Kind     ReadKind
	Key      Key
	Value    []byte
	Required int
}

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

// Reader is a read session over all entries of a store.
//
// Thread-safety: a Reader must only be used by one goroutine at a time.
type Reader struct {
	store   *Store
	guard   *guard
	bufSize int
}

// TryReadNext reads the next entry into buf.
//
// If the next value does not fit into buf, the result is ReadBufferTooSmall with the
// required size and the reader does not advance: retrying with a buffer of at least
// Required bytes returns the same entry. Once ReadDone was returned, the reader is
// exhausted.
func (r *Reader) TryReadNext(buf []byte) (ReadResult, error) {
	h, err := r.guard.acquire()
	if err != nil {
		return ReadResult{}, err
	}
	if len(buf) == 0 {
		return ReadResult{}, newArgumentError("the read buffer is empty")
	}

	var key [boundary.KeySize]byte
	n, res := r.store.b.ReadNext(h, &key, buf)
	runtime.KeepAlive(r)

	switch res.Kind {
	case boundary.KindOk:
		readEntries.Inc()
		return ReadResult{Kind: ReadData, Key: KeyFromBytes(key), Value: buf[:n]}, nil
	case boundary.KindDone:
		return ReadResult{Kind: ReadDone}, nil
	case boundary.KindBufferTooSmall:
		readBufferRetries.Inc()
		return ReadResult{Kind: ReadBufferTooSmall, Required: n}, nil
	default:
		return ReadResult{}, nativeFailure(r.store.b, "read next", res)
	}
}

// Entries returns the remaining entries of the reader as a sequence.
//
// The sequence starts with the configured read buffer size and grows the buffer to
// exactly the size the boundary asks for. The grown size is kept for the following
// entries. Every yielded Entry owns the buffer its value lives in (see Entry.Release).
// The sequence ends after the last entry, or after yielding the first error.
// It continues where the reader currently is and can't be restarted.
func (r *Reader) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		pool := r.store.pool
		size := r.bufSize

		for {
			buf := pool.get(size)

			res, err := r.TryReadNext(buf.data)
			if err != nil {
				buf.release()
				yield(Entry{}, err)
				return
			}

			switch res.Kind {
			case ReadDone:
				buf.release()
				return

			case ReadBufferTooSmall:
				buf.release()
				if res.Required <= size {
					yield(Entry{}, newNativeFailure(boundary.Result{Kind: boundary.KindBufferTooSmall},
						fmt.Sprintf("the boundary asked for %d bytes after rejecting a buffer of %d bytes", res.Required, size)))
					return
				}
				size = res.Required

			case ReadData:
				// the buffer now belongs to the entry, it returns to the pool on Release
				if !yield(Entry{Key: res.Key, Value: res.Value, lease: buf}, nil) {
					return
				}
			}
		}
	}
}

// ReadAll reads all remaining entries. On error, the entries read so far are
// released and only the error is returned.
func (r *Reader) ReadAll() ([]Entry, error) {
	var entries []Entry
	for entry, err := range r.Entries() {
		if err != nil {
			for _, e := range entries {
				e.Release()
			}
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// IsOpen reports whether the reader was not closed yet.
func (r *Reader) IsOpen() bool {
	return !r.guard.closed()
}

// Close ends the read session. Calling Close more than once is a no-op.
// Entries already yielded stay valid.
func (r *Reader) Close() error {
	runtime.SetFinalizer(r, nil)
	r.closeGuard()
	return nil
}

func (r *Reader) closeGuard() {
	res, released := r.guard.close()
	if released && !res.IsSuccess() {
		Logger.Debugf("ignoring failed release of a reader of %q: %s", r.store.path, lastMessage(r.store.b, res))
	}
}

func (r *Reader) finalize() {
	if !r.guard.closed() {
		Logger.Warningf("a reader of %q was never closed, releasing it now", r.store.path)
		r.closeGuard()
	}
}
