// Package engines is the registry of the engines that can sit behind the boundary.
//
// Implementations:
//
//   - bolt (github.com/ValentinKolb/bKV/lib/boundary/engines/bolt): persistent,
//     one bbolt file per store directory guarded by a gofrs/flock lock file.
//   - mem (github.com/ValentinKolb/bKV/lib/boundary/engines/mem): sharded in-memory
//     maps, kept per path for the lifetime of the engine.
//   - sqlite (github.com/ValentinKolb/bKV/lib/boundary/engines/sqlite): persistent,
//     one SQLite database in WAL mode per store directory, same lock file as bolt.
//
// Lookup and NewBoundary resolve an engine by its name, which is how the
// configuration layer (lib/common.StoreConfig) selects one.
package engines
