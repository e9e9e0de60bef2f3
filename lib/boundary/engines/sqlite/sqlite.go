package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"github.com/ValentinKolb/bKV/lib/boundary"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/internal/storedir"
	"github.com/gofrs/flock"
	"github.com/lni/dragonboat/v4/logger"
	_ "github.com/mattn/go-sqlite3"
	"net/url"
	"path/filepath"
	"strconv"
	"time"
)

var Logger = logger.GetLogger("engine/sqlite")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	Name               = "sqlite"        // Identifier of this engine
	dataFile           = "data.sqlite"   // database file inside the store directory
	defaultBusyTimeout = 5 * time.Second // Default time a writer waits for the database lock
)

const (
	createTable = `CREATE TABLE IF NOT EXISTS entries (
		key   BLOB PRIMARY KEY,
		value BLOB NOT NULL
	) WITHOUT ROWID`
	selectAll   = `SELECT key, value FROM entries ORDER BY key`
	upsertEntry = `INSERT OR REPLACE INTO entries (key, value) VALUES (?, ?)`
	deleteEntry = `DELETE FROM entries WHERE key = ?`
)

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// Options configures the engine behavior during initialization
type Options struct {
	BusyTimeout time.Duration // Time a writer waits for the database lock (0 = use default: 5 sec)
	NoSync      bool          // Skip fsync after each commit (only for tests and benchmarks)
}

// DefaultOptions returns the default engine options
func DefaultOptions() *Options {
	return &Options{
		BusyTimeout: defaultBusyTimeout,
	}
}

type engineImpl struct {
	opts Options
}

// NewSQLiteEngine creates a new SQLite backed engine with the specified options (optional)
func NewSQLiteEngine(opts *Options) boundary.Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}
	return &engineImpl{opts: *opts}
}

func (e *engineImpl) Name() string {
	return Name
}

// dsn builds the connection string for the database file. The driver strips the
// parameters from a plain path, so the path needs no URI escaping. WAL mode lets
// readers keep their snapshot while a writer commits.
func (e *engineImpl) dsn(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", strconv.FormatInt(e.opts.BusyTimeout.Milliseconds(), 10))
	if e.opts.NoSync {
		params.Set("_synchronous", "OFF")
	} else {
		params.Set("_synchronous", "NORMAL")
	}
	return filepath.Join(path, dataFile) + "?" + params.Encode()
}

// Open opens the store directory at path, creating it if it doesn't exist.
// Like the bolt engine, the directory is locked for the lifetime of the database.
func (e *engineImpl) Open(path string) (boundary.Database, error) {
	lock, err := storedir.Open(path)
	if err != nil {
		return nil, err
	}

	sdb, err := sql.Open("sqlite3", e.dsn(path))
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if _, err := sdb.Exec(createTable); err != nil {
		_ = sdb.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	Logger.Debugf("opened store %q", path)
	return &database{db: sdb, lock: lock}, nil
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

type database struct {
	db   *sql.DB
	lock *flock.Flock
}

// Snapshot starts a transaction that is kept open until the cursor is closed.
// SQLite only takes the read snapshot on the first step of the query, so the first
// row is fetched here to pin the snapshot to the time the session began.
func (d *database) Snapshot() (boundary.Cursor, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(selectAll)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	c := &cursor{tx: tx, rows: rows}
	c.pending = rows.Next()
	if !c.pending {
		if err := rows.Err(); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to query entries: %w", err)
		}
	}
	return c, nil
}

// Apply writes all operations in a single transaction
func (d *database) Apply(ops []boundary.Op) (err error) {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	upsert, err := tx.Prepare(upsertEntry)
	if err != nil {
		return err
	}
	defer upsert.Close()

	remove, err := tx.Prepare(deleteEntry)
	if err != nil {
		return err
	}
	defer remove.Close()

	for i := range ops {
		op := &ops[i]
		if op.Delete {
			_, err = remove.Exec(op.Key[:])
		} else {
			_, err = upsert.Exec(op.Key[:], op.Value)
		}
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *database) Close() error {
	return errors.Join(d.db.Close(), d.lock.Unlock())
}

// --------------------------------------------------------------------------
// Cursor
// --------------------------------------------------------------------------

type cursor struct {
	tx      *sql.Tx
	rows    *sql.Rows
	started bool // false until Next consumed the row fetched by Snapshot
	pending bool // result of the row fetch done by Snapshot
}

func (c *cursor) Next() (key [boundary.KeySize]byte, value []byte, ok bool, err error) {
	hasRow := c.pending
	if c.started {
		hasRow = c.rows.Next()
	}
	c.started = true
	if !hasRow {
		return key, nil, false, c.rows.Err()
	}

	var k []byte
	if err := c.rows.Scan(&k, &value); err != nil {
		return key, nil, false, err
	}
	if len(k) != boundary.KeySize {
		return key, nil, false, fmt.Errorf("key length `%d` does not match the key size `%d`", len(k), boundary.KeySize)
	}

	copy(key[:], k)
	if value == nil {
		value = []byte{}
	}
	return key, value, true, nil
}

func (c *cursor) Close() error {
	return errors.Join(c.rows.Close(), c.tx.Rollback())
}
