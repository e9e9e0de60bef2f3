package mem

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/bKV/lib/boundary"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/mem/internal"
	"github.com/ValentinKolb/bKV/lib/util"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
)

var Logger = logger.GetLogger("engine/mem")

// Name is the identifier of this engine
const Name = "mem"

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// Options configures the engine behavior during initialization
type Options struct {
	NumShards int // Number of shards per database (0 = runtime.NumCPU())
}

// DefaultOptions returns the default engine options
func DefaultOptions() *Options {
	return &Options{
		NumShards: runtime.NumCPU(), // Auto-determine based on CPU count
	}
}

// engineImpl keeps every database it opened for its whole lifetime, keyed by path.
// Reopening a path therefore sees the data written before it was closed.
type engineImpl struct {
	opts      Options
	databases *xsync.MapOf[string, *database]
}

// NewMemEngine creates a new in-memory engine with the specified options (optional)
func NewMemEngine(opts *Options) boundary.Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}

	return &engineImpl{
		opts:      *opts,
		databases: xsync.NewMapOf[string, *database](),
	}
}

func (e *engineImpl) Name() string {
	return Name
}

func (e *engineImpl) Open(path string) (boundary.Database, error) {
	db, loaded := e.databases.LoadOrCompute(path, func() *database {
		return newDatabase(e.opts.NumShards)
	})
	if !db.open.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("database %q is already open", path)
	}

	Logger.Debugf("opened database %q (existing=%t, entries=%d)", path, loaded, db.len())
	return db, nil
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

// database is a sharded in-memory key-value map.
// Apply and Snapshot are serialized by mu so a snapshot never sees half a batch.
type database struct {
	seed   uint64
	shards []*internal.Shard
	mu     sync.RWMutex
	open   atomic.Bool
}

func newDatabase(numShards int) *database {
	shards := make([]*internal.Shard, numShards)
	for i := range shards {
		shards[i] = internal.NewShard()
	}
	return &database{
		seed:   util.GenerateSeed(),
		shards: shards,
	}
}

// shardFor returns the shard responsible for key
func (db *database) shardFor(key [boundary.KeySize]byte) *internal.Shard {
	return util.GetShard(util.HashBytes(key[:], db.seed), db.shards)
}

// len returns the number of stored entries
func (db *database) len() int {
	n := 0
	for _, shard := range db.shards {
		n += shard.Data.Size()
	}
	return n
}

func (db *database) Snapshot() (boundary.Cursor, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if !db.open.Load() {
		return nil, fmt.Errorf("database is closed")
	}

	entries := make([]internal.Entry, 0, db.len())
	for _, shard := range db.shards {
		shard.Data.Range(func(key [boundary.KeySize]byte, value []byte) bool {
			entries = append(entries, internal.Entry{Key: key, Value: value})
			return true
		})
	}

	// stored values are never mutated, so sharing them with the snapshot is safe
	slices.SortFunc(entries, func(a, b internal.Entry) int {
		return bytes.Compare(a.Key[:], b.Key[:])
	})

	return &cursor{entries: entries}, nil
}

func (db *database) Apply(ops []boundary.Op) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.open.Load() {
		return fmt.Errorf("database is closed")
	}

	for i := range ops {
		op := &ops[i]
		shard := db.shardFor(op.Key)
		if op.Delete {
			shard.Data.Delete(op.Key)
		} else {
			shard.Data.Store(op.Key, op.Value)
		}
	}
	return nil
}

func (db *database) Close() error {
	if !db.open.CompareAndSwap(true, false) {
		return fmt.Errorf("database is not open")
	}
	return nil
}

// --------------------------------------------------------------------------
// Cursor
// --------------------------------------------------------------------------

type cursor struct {
	entries []internal.Entry
	pos     int
}

func (c *cursor) Next() ([boundary.KeySize]byte, []byte, bool, error) {
	if c.pos >= len(c.entries) {
		return [boundary.KeySize]byte{}, nil, false, nil
	}
	e := c.entries[c.pos]
	c.pos++
	return e.Key, e.Value, true, nil
}

func (c *cursor) Close() error {
	c.entries = nil
	return nil
}
