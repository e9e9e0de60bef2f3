// Package bolt provides a persistent engine for the boundary host, built on
// bbolt (go.etcd.io/bbolt).
//
// Layout: the path given to Open is a directory that is created if it does not
// exist. It holds the bbolt file "data.db" with a single bucket of entries and an
// advisory lock file "LOCK" (github.com/gofrs/flock). The lock is taken without
// waiting, so a second instance opening the same directory fails right away with
// a readable error instead of blocking on bbolt's own file lock.
//
// Sessions:
//
//   - A snapshot is a read-only bbolt transaction that stays open until the cursor
//     is closed. Values returned by the cursor point into the memory map and are
//     valid while the transaction is open.
//   - A write or delete session is applied in one read-write transaction (Update)
//     when it ends, so all of its operations become visible at once.
//
// Note: bbolt may need to grow its memory map during a commit, which waits for all
// open read transactions. A goroutine must therefore not end a write session while
// it still holds an open reader of the same store.
//
// Keys are stored as their raw 16 bytes, so scans are ordered by key bytes.
package bolt
