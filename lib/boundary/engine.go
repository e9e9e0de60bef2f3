package boundary

// --------------------------------------------------------------------------
// Engine Interfaces (implemented by lib/boundary/engines/*)
// --------------------------------------------------------------------------

// Engine opens databases. Implementations only deal with plain Go values and
// errors; Host turns them into the handle and result protocol of Boundary.
type Engine interface {
	// Name returns the identifier of the engine (e.g. "bolt").
	Name() string
	// Open opens (or creates) the database at path.
	Open(path string) (Database, error)
}

// Database is a single open database of an Engine.
type Database interface {
	// Snapshot returns a cursor over a consistent view of all entries, ordered by key bytes.
	Snapshot() (Cursor, error)
	// Apply atomically applies a batch of operations. Once Apply returned
	// successfully the effects are visible to every later Snapshot.
	Apply(ops []Op) error
	// Close releases the database. It is called once, after every session ended.
	Close() error
}

// Cursor iterates the entries of a snapshot.
type Cursor interface {
	// Next advances to the next entry. The returned value is only valid until the
	// next call to Next or Close. ok is false once the cursor is exhausted.
	Next() (key [KeySize]byte, value []byte, ok bool, err error)
	// Close releases the snapshot.
	Close() error
}

// Op is one operation of a write or delete session.
type Op struct {
	Key    [KeySize]byte
	Value  []byte // owned copy, nil for removals
	Delete bool
}
