// Package mem provides an in-memory engine for the boundary host.
//
// Every engine instance keeps a set of named databases, one per path, for its whole
// lifetime: closing a database and opening the same path again on the same engine
// returns the previous content. Only one open database per path is allowed at a time.
//
// Entries are spread over shards (xsync.MapOf) by a seeded FNV-1a hash of the key.
// A snapshot copies all entries and sorts them by key bytes, so readers see a
// consistent view that is not affected by later writes. A write or delete session
// is applied under the database's write lock when it ends.
package mem
