package internal

import (
	"github.com/ValentinKolb/bKV/lib/boundary"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Shard Type (partition of a database)
// --------------------------------------------------------------------------

// Shard represents a partition of the database
// Each shard has its own independent map
type Shard struct {
	Data *xsync.MapOf[[boundary.KeySize]byte, []byte] // Map of stored key-value pairs
}

// NewShard creates a new, empty shard
func NewShard() *Shard {
	return &Shard{
		Data: xsync.NewMapOf[[boundary.KeySize]byte, []byte](),
	}
}

// --------------------------------------------------------------------------
// Snapshot Entries
// --------------------------------------------------------------------------

// Entry is a key-value pair copied out of a shard
type Entry struct {
	Key   [boundary.KeySize]byte
	Value []byte
}
