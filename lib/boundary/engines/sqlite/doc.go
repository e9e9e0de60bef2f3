// Package sqlite provides an SQLite engine for the boundary host, using the
// github.com/mattn/go-sqlite3 driver through database/sql. The driver needs cgo.
//
// Layout: like the bolt engine, the path given to Open is a directory that holds the
// database file "data.sqlite" and the advisory lock file "LOCK". All entries live in
// one table with the raw 16 byte key as primary key, so scans (ORDER BY key) follow
// the byte order of the keys.
//
// The database runs in WAL mode: a snapshot is a transaction that stays open until
// the cursor is closed, and writers can commit while snapshots are open. A write or
// delete session is applied in one transaction when it ends.
package sqlite
