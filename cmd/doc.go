// Package cmd implements the command-line interface for bKV. It provides a
// hierarchical command structure for working with a store directly.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value operations (set, del, scan, import, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All store settings can be given as flags or as environment variables with the
// prefix BKV_ (e.g. BKV_ENGINE, BKV_READ_BUFFER), also from a .env or .env.local
// file in the working directory.
//
// scan and import use key=value lines by default, --format yaml switches both to a
// single YAML mapping, so the output of scan can be imported into another store.
//
// See bkv -help for a list of all commands.
package cmd
