package storage

import (
	"fmt"
	"github.com/ValentinKolb/bKV/lib/boundary"
	"github.com/ValentinKolb/bKV/lib/boundary/engines"
	"github.com/ValentinKolb/bKV/lib/common"
	"github.com/lni/dragonboat/v4/logger"
	"runtime"
)

var Logger = logger.GetLogger("storage")

// DefaultReadBufferSize is the size of the first buffer a reader scans with.
const DefaultReadBufferSize = 1024

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// Store is one open store behind a boundary. It mints the read, write and delete
// sessions for that store.
//
// Thread-safety: a Store can be shared between goroutines, the sessions it creates
// can not.
type Store struct {
	b              boundary.Boundary
	path           string
	guard          *guard
	pool           *bufferPool
	readBufferSize int
}

// Open opens the store at path through the boundary b.
func Open(b boundary.Boundary, path string) (*Store, error) {
	return open(b, path, DefaultReadBufferSize)
}

// OpenConfig creates the engine named by cfg and opens the store at cfg.Path with it.
func OpenConfig(cfg common.StoreConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newArgumentError(err.Error())
	}

	b, err := engines.NewBoundary(cfg.Engine)
	if err != nil {
		return nil, newArgumentError(err.Error())
	}
	return open(b, cfg.Path, cfg.ReadBufferSize)
}

func open(b boundary.Boundary, path string, readBufferSize int) (*Store, error) {
	if b == nil {
		return nil, newArgumentError("the boundary is nil")
	}
	if path == "" {
		return nil, newArgumentError("the store path is empty")
	}
	if readBufferSize <= 0 {
		readBufferSize = DefaultReadBufferSize
	}

	h, res := b.StoreOpen([]byte(path))
	if err := check(b, "store open", res); err != nil {
		return nil, err
	}

	s := &Store{
		b:              b,
		path:           path,
		guard:          newGuard(fmt.Sprintf("the store at %q", path), h, b.StoreClose),
		pool:           &bufferPool{},
		readBufferSize: readBufferSize,
	}
	runtime.SetFinalizer(s, (*Store).finalize)

	Logger.Debugf("opened store at %q", path)
	return s, nil
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// IsOpen reports whether the store was not closed yet.
func (s *Store) IsOpen() bool {
	return !s.guard.closed()
}

// BeginRead starts a new read session. Any number of readers may be open at once.
func (s *Store) BeginRead() (*Reader, error) {
	h, err := s.begin("read begin", s.b.ReadBegin)
	if err != nil {
		return nil, err
	}
	readSessions.Inc()

	r := &Reader{
		store:   s,
		guard:   newGuard("the reader", h, s.b.ReadEnd),
		bufSize: s.readBufferSize,
	}
	runtime.SetFinalizer(r, (*Reader).finalize)
	return r, nil
}

// BeginWrite starts a new write session. Its values become visible to readers
// begun after Writer.Close returned.
func (s *Store) BeginWrite() (*Writer, error) {
	h, err := s.begin("write begin", s.b.WriteBegin)
	if err != nil {
		return nil, err
	}
	writeSessions.Inc()

	w := &Writer{store: s, guard: newGuard("the writer", h, s.b.WriteEnd)}
	runtime.SetFinalizer(w, (*Writer).finalize)
	return w, nil
}

// BeginDelete starts a new delete session. Its removals become visible to readers
// begun after Deleter.Close returned.
func (s *Store) BeginDelete() (*Deleter, error) {
	h, err := s.begin("delete begin", s.b.DeleteBegin)
	if err != nil {
		return nil, err
	}
	deleteSessions.Inc()

	d := &Deleter{store: s, guard: newGuard("the deleter", h, s.b.DeleteEnd)}
	runtime.SetFinalizer(d, (*Deleter).finalize)
	return d, nil
}

// begin acquires a session handle with the given boundary call.
func (s *Store) begin(op string, call func(boundary.Handle) (boundary.Handle, boundary.Result)) (boundary.Handle, error) {
	store, err := s.guard.acquire()
	if err != nil {
		return boundary.InvalidHandle, err
	}

	h, res := call(store)
	runtime.KeepAlive(s)
	if !res.IsOk() {
		// the store was closed concurrently, report that instead of the boundary's view of it
		if s.guard.closed() {
			return boundary.InvalidHandle, newResourceClosedError(s.guard.resource)
		}
		return boundary.InvalidHandle, nativeFailure(s.b, op, res)
	}
	return h, nil
}

// Close releases the store. Calling Close more than once is a no-op.
// Sessions that are still open keep working until they are closed themselves.
func (s *Store) Close() error {
	runtime.SetFinalizer(s, nil)
	s.closeGuard()
	return nil
}

func (s *Store) closeGuard() {
	res, released := s.guard.close()
	if !released {
		return
	}
	if !res.IsSuccess() {
		Logger.Debugf("ignoring failed release of the store at %q: %s", s.path, lastMessage(s.b, res))
		return
	}
	Logger.Debugf("closed store at %q", s.path)
}

func (s *Store) finalize() {
	if !s.guard.closed() {
		Logger.Warningf("the store at %q was never closed, releasing it now", s.path)
		s.closeGuard()
	}
}
