package boundary

// --------------------------------------------------------------------------
// Wire Types
// --------------------------------------------------------------------------

// KeySize is the width of a key on the wire: 8 ASCII tag bytes followed by
// a 64-bit ordinal in native byte order.
const KeySize = 16

// Handle is an opaque value issued by the boundary for an open store or session.
// The zero value is never issued and marks a released handle on the client side.
type Handle uint64

// InvalidHandle is the sentinel value of a handle that is closed or was never opened.
const InvalidHandle Handle = 0

// --------------------------------------------------------------------------
// Boundary Interface
// --------------------------------------------------------------------------

// Boundary is the narrow call protocol to an external storage engine.
//
// Every call returns a Result. Ok and Done are successes, BufferTooSmall is a
// recoverable control signal and everything else is an error whose message can
// be recovered afterwards through LastResult.
//
// The boundary does not protect against use-after-release: callers must make sure
// a handle is not used again once its end/close call was made.
type Boundary interface {
	// LastResult copies the message of the most recently recorded result into msg.
	// last is the recorded result itself, msgLen the full length of its message.
	// If msg is too short, res is BufferTooSmall and nothing is copied.
	LastResult(msg []byte) (res Result, last Result, msgLen int)

	// StoreOpen opens the store at the given path.
	StoreOpen(path []byte) (store Handle, res Result)
	// StoreClose releases a store handle (best-effort).
	StoreClose(store Handle) (res Result)

	// ReadBegin starts a read session on an open store.
	ReadBegin(store Handle) (reader Handle, res Result)
	// ReadNext copies the next entry into key and value.
	// On BufferTooSmall n is the required value length and the entry is not consumed.
	// On Ok n is the actual value length. On Done there are no more entries.
	ReadNext(reader Handle, key *[KeySize]byte, value []byte) (n int, res Result)
	// ReadEnd releases a reader handle (best-effort).
	ReadEnd(reader Handle) (res Result)

	// WriteBegin starts a write session on an open store.
	WriteBegin(store Handle) (writer Handle, res Result)
	// WriteSet stores value under key within the session. value is not retained.
	WriteSet(writer Handle, key *[KeySize]byte, value []byte) (res Result)
	// WriteEnd completes the write session and releases its handle.
	WriteEnd(writer Handle) (res Result)

	// DeleteBegin starts a delete session on an open store.
	DeleteBegin(store Handle) (deleter Handle, res Result)
	// DeleteRemove marks key for removal within the session.
	DeleteRemove(deleter Handle, key *[KeySize]byte) (res Result)
	// DeleteEnd completes the delete session and releases its handle.
	DeleteEnd(deleter Handle) (res Result)
}
