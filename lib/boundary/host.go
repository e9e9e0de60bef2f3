package boundary

import (
	"errors"
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"sync"
	"sync/atomic"
	"unicode/utf8"
)

var Logger = logger.GetLogger("boundary")

// errZeroSizedBuf is reported when ReadNext is called without room for a value.
var errZeroSizedBuf = errors.New("received a zero-sized buffer to read into")

// errInvalidHandle is reported for handles that were never issued or are already released.
var errInvalidHandle = errors.New("invalid handle")

// --------------------------------------------------------------------------
// Host
// --------------------------------------------------------------------------

// Host exposes an Engine through the Boundary protocol.
//
// It owns the handle tables for stores and sessions, converts engine errors and
// panics into results and keeps the diagnostic slot that LastResult reads from.
//
// Thread-safety: a Host can be shared by any number of goroutines. Individual
// reader, writer and deleter handles must not be used concurrently.
type Host struct {
	engine Engine
	slot   slot

	ids      atomic.Uint64
	stores   handleTable[*storeState]
	readers  handleTable[*readerState]
	writers  handleTable[*batchState]
	deleters handleTable[*batchState]
}

// NewHost creates a new Host for the given engine.
func NewHost(engine Engine) *Host {
	h := &Host{engine: engine}
	h.stores = newHandleTable[*storeState](&h.ids)
	h.readers = newHandleTable[*readerState](&h.ids)
	h.writers = newHandleTable[*batchState](&h.ids)
	h.deleters = newHandleTable[*batchState](&h.ids)
	return h
}

// Engine returns the engine served by this host.
func (h *Host) Engine() Engine {
	return h.engine
}

// OpenHandles returns the number of live store and session handles.
func (h *Host) OpenHandles() int {
	return h.stores.size() + h.readers.size() + h.writers.size() + h.deleters.size()
}

// call runs fn and records its result in the diagnostic slot.
// An error returned together with a successful result is turned into an InternalError,
// a panic into an InternalError carrying the panic message.
func (h *Host) call(op string, fn func() (Result, error)) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = InternalError()
			msg := fmt.Sprintf("internal panic with '%v'", p)
			Logger.Errorf("%s: %s", op, msg)
			h.slot.record(res, msg)
		}
	}()

	res, err := fn()
	if err != nil && res.IsSuccess() {
		res = InternalError()
	}

	msg := res.Kind.DefaultMessage()
	if err != nil {
		msg = err.Error()
		Logger.Debugf("%s failed with %s: %s", op, res, msg)
	}
	h.slot.record(res, msg)
	return res
}

// --------------------------------------------------------------------------
// Boundary Interface Methods (docu see boundary/boundary.go)
// --------------------------------------------------------------------------

func (h *Host) LastResult(msg []byte) (Result, Result, int) {
	// not routed through call, reading the slot must not overwrite it
	return h.slot.read(msg)
}

func (h *Host) StoreOpen(path []byte) (store Handle, res Result) {
	res = h.call("store open", func() (Result, error) {
		if len(path) == 0 {
			return ArgumentNull(), errors.New("the store path is empty")
		}
		if !utf8.Valid(path) {
			return ArgumentNull(), errors.New("the store path is not valid UTF-8")
		}

		database, err := h.engine.Open(string(path))
		if err != nil {
			return InternalError(), fmt.Errorf("failed to open %s store at %q: %w", h.engine.Name(), path, err)
		}

		store = h.stores.alloc(&storeState{db: database, path: string(path)})
		return Ok(), nil
	})
	return store, res
}

func (h *Host) StoreClose(store Handle) Result {
	return h.call("store close", func() (Result, error) {
		s, ok := h.stores.free(store)
		if !ok {
			return ArgumentNull(), errInvalidHandle
		}
		if err := s.close(); err != nil {
			return InternalError(), fmt.Errorf("failed to close store at %q: %w", s.path, err)
		}
		return Ok(), nil
	})
}

func (h *Host) ReadBegin(store Handle) (reader Handle, res Result) {
	res = h.call("read begin", func() (Result, error) {
		s, ok := h.stores.get(store)
		if !ok {
			return ArgumentNull(), errInvalidHandle
		}
		if err := s.acquire(); err != nil {
			return ArgumentNull(), err
		}

		cursor, err := s.db.Snapshot()
		if err != nil {
			_ = s.release()
			return InternalError(), fmt.Errorf("failed to begin read: %w", err)
		}

		reader = h.readers.alloc(&readerState{store: s, cursor: cursor})
		return Ok(), nil
	})
	return reader, res
}

func (h *Host) ReadNext(reader Handle, key *[KeySize]byte, value []byte) (n int, res Result) {
	res = h.call("read next", func() (Result, error) {
		r, ok := h.readers.get(reader)
		if !ok {
			return ArgumentNull(), errInvalidHandle
		}
		if key == nil {
			return ArgumentNull(), errors.New("the key out-pointer is nil")
		}
		if len(value) == 0 {
			return ArgumentNull(), errZeroSizedBuf
		}

		var err error
		n, res, err = r.next(key, value)
		return res, err
	})
	return n, res
}

func (h *Host) ReadEnd(reader Handle) Result {
	return h.call("read end", func() (Result, error) {
		r, ok := h.readers.free(reader)
		if !ok {
			return ArgumentNull(), errInvalidHandle
		}

		err := errors.Join(r.cursor.Close(), r.store.release())
		if err != nil {
			return InternalError(), fmt.Errorf("failed to end read: %w", err)
		}
		return Ok(), nil
	})
}

func (h *Host) WriteBegin(store Handle) (writer Handle, res Result) {
	res = h.call("write begin", func() (Result, error) {
		s, ok := h.stores.get(store)
		if !ok {
			return ArgumentNull(), errInvalidHandle
		}
		if err := s.acquire(); err != nil {
			return ArgumentNull(), err
		}
		writer = h.writers.alloc(&batchState{store: s})
		return Ok(), nil
	})
	return writer, res
}

func (h *Host) WriteSet(writer Handle, key *[KeySize]byte, value []byte) Result {
	return h.call("write set", func() (Result, error) {
		w, ok := h.writers.get(writer)
		if !ok {
			return ArgumentNull(), errInvalidHandle
		}
		if key == nil {
			return ArgumentNull(), errors.New("the key pointer is nil")
		}

		// the caller's buffer is not retained past this call
		valueCopy := make([]byte, len(value))
		copy(valueCopy, value)

		w.ops = append(w.ops, Op{Key: *key, Value: valueCopy})
		return Ok(), nil
	})
}

func (h *Host) WriteEnd(writer Handle) Result {
	return h.call("write end", func() (Result, error) {
		w, ok := h.writers.free(writer)
		if !ok {
			return ArgumentNull(), errInvalidHandle
		}
		if err := w.complete(); err != nil {
			return InternalError(), fmt.Errorf("failed to flush database: %w", err)
		}
		return Ok(), nil
	})
}

func (h *Host) DeleteBegin(store Handle) (deleter Handle, res Result) {
	res = h.call("delete begin", func() (Result, error) {
		s, ok := h.stores.get(store)
		if !ok {
			return ArgumentNull(), errInvalidHandle
		}
		if err := s.acquire(); err != nil {
			return ArgumentNull(), err
		}
		deleter = h.deleters.alloc(&batchState{store: s})
		return Ok(), nil
	})
	return deleter, res
}

func (h *Host) DeleteRemove(deleter Handle, key *[KeySize]byte) Result {
	return h.call("delete remove", func() (Result, error) {
		d, ok := h.deleters.get(deleter)
		if !ok {
			return ArgumentNull(), errInvalidHandle
		}
		if key == nil {
			return ArgumentNull(), errors.New("the key pointer is nil")
		}
		d.ops = append(d.ops, Op{Key: *key, Delete: true})
		return Ok(), nil
	})
}

func (h *Host) DeleteEnd(deleter Handle) Result {
	return h.call("delete end", func() (Result, error) {
		d, ok := h.deleters.free(deleter)
		if !ok {
			return ArgumentNull(), errInvalidHandle
		}
		if err := d.complete(); err != nil {
			return InternalError(), fmt.Errorf("failed to flush database: %w", err)
		}
		return Ok(), nil
	})
}

// --------------------------------------------------------------------------
// Handle States
// --------------------------------------------------------------------------

// storeState is an open database together with the number of sessions using it.
// The database is closed once the store handle was released and the last session ended.
type storeState struct {
	db   Database
	path string

	mu       sync.Mutex
	sessions int
	closing  bool
}

func (s *storeState) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return fmt.Errorf("the store at %q is closing", s.path)
	}
	s.sessions++
	return nil
}

func (s *storeState) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions--
	if s.closing && s.sessions == 0 {
		Logger.Debugf("closing store at %q after its last session ended", s.path)
		return s.db.Close()
	}
	return nil
}

func (s *storeState) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	if s.sessions == 0 {
		return s.db.Close()
	}
	Logger.Debugf("deferring close of store at %q, %d sessions still open", s.path, s.sessions)
	return nil
}

// readerState is a read session. current holds the entry that was fetched from the
// cursor but not yet delivered, so a BufferTooSmall result never skips an entry.
type readerState struct {
	store  *storeState
	cursor Cursor

	hasCurrent bool
	currentKey [KeySize]byte
	currentVal []byte
	done       bool
}

// next copies the current entry into the supplied buffers, fetching it first if needed.
func (r *readerState) next(key *[KeySize]byte, buf []byte) (int, Result, error) {
	if r.done {
		return 0, Done(), nil
	}

	if !r.hasCurrent {
		k, v, ok, err := r.cursor.Next()
		if err != nil {
			return 0, InternalError(), fmt.Errorf("failed to read next entry: %w", err)
		}
		if !ok {
			r.done = true
			return 0, Done(), nil
		}
		r.currentKey, r.currentVal, r.hasCurrent = k, v, true
	}

	// the entry stays current until a buffer large enough for it is supplied
	if len(r.currentVal) > len(buf) {
		return len(r.currentVal), BufferTooSmall(), nil
	}

	n := copy(buf, r.currentVal)
	*key = r.currentKey
	r.hasCurrent, r.currentVal = false, nil
	return n, Ok(), nil
}

// batchState collects the operations of a write or delete session.
type batchState struct {
	store *storeState
	ops   []Op
}

// complete applies the collected operations and ends the session.
func (b *batchState) complete() error {
	var applyErr error
	if len(b.ops) > 0 {
		applyErr = b.store.db.Apply(b.ops)
	}
	b.ops = nil
	return errors.Join(applyErr, b.store.release())
}
