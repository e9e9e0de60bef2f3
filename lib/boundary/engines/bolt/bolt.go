package bolt

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/bKV/lib/boundary"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/internal/storedir"
	"github.com/gofrs/flock"
	"github.com/lni/dragonboat/v4/logger"
	bbolt "go.etcd.io/bbolt"
	"path/filepath"
	"time"
)

var Logger = logger.GetLogger("engine/bolt")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	Name           = "bolt"          // Identifier of this engine
	dataFile       = "data.db"       // bbolt file inside the store directory
	defaultTimeout = 1 * time.Second // Default time to wait for the bbolt file lock
)

var bucketName = []byte("entries")

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// Options configures the engine behavior during initialization
type Options struct {
	Timeout time.Duration // Time to wait for the bbolt file lock (0 = use default: 1 sec)
	NoSync  bool          // Skip fsync after each commit (only for tests and benchmarks)
}

// DefaultOptions returns the default engine options
func DefaultOptions() *Options {
	return &Options{
		Timeout: defaultTimeout,
	}
}

type engineImpl struct {
	opts Options
}

// NewBoltEngine creates a new bbolt backed engine with the specified options (optional)
func NewBoltEngine(opts *Options) boundary.Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &engineImpl{opts: *opts}
}

func (e *engineImpl) Name() string {
	return Name
}

// Open opens the store directory at path, creating it if it doesn't exist.
// The directory is locked for the lifetime of the database, a second Open of the
// same directory fails until the first database is closed.
func (e *engineImpl) Open(path string) (boundary.Database, error) {
	lock, err := storedir.Open(path)
	if err != nil {
		return nil, err
	}

	bdb, err := bbolt.Open(filepath.Join(path, dataFile), 0o600, &bbolt.Options{
		Timeout: e.opts.Timeout,
		NoSync:  e.opts.NoSync,
	})
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}

	Logger.Debugf("opened store %q", path)
	return &database{db: bdb, lock: lock}, nil
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

type database struct {
	db   *bbolt.DB
	lock *flock.Flock
}

// Snapshot starts a read-only transaction that is kept open until the cursor is closed
func (d *database) Snapshot() (boundary.Cursor, error) {
	tx, err := d.db.Begin(false)
	if err != nil {
		return nil, err
	}

	b := tx.Bucket(bucketName)
	if b == nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("bucket %s does not exist", bucketName)
	}

	return &cursor{tx: tx, c: b.Cursor()}, nil
}

// Apply writes all operations in a single read-write transaction
func (d *database) Apply(ops []boundary.Op) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return fmt.Errorf("bucket %s does not exist", bucketName)
		}

		// ops outlives the transaction, so its key arrays stay valid as bbolt requires
		for i := range ops {
			op := &ops[i]
			var err error
			if op.Delete {
				err = b.Delete(op.Key[:])
			} else {
				err = b.Put(op.Key[:], op.Value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *database) Close() error {
	return errors.Join(d.db.Close(), d.lock.Unlock())
}

// --------------------------------------------------------------------------
// Cursor
// --------------------------------------------------------------------------

type cursor struct {
	tx      *bbolt.Tx
	c       *bbolt.Cursor
	started bool
}

func (c *cursor) Next() (key [boundary.KeySize]byte, value []byte, ok bool, err error) {
	var k, v []byte
	if !c.started {
		k, v = c.c.First()
		c.started = true
	} else {
		k, v = c.c.Next()
	}

	if k == nil {
		return key, nil, false, nil
	}
	if len(k) != boundary.KeySize {
		return key, nil, false, fmt.Errorf("key length `%d` does not match the key size `%d`", len(k), boundary.KeySize)
	}

	// v points into the mmap and stays valid while the transaction is open
	copy(key[:], k)
	return key, v, true, nil
}

func (c *cursor) Close() error {
	return c.tx.Rollback()
}
