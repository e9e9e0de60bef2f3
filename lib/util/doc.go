// Package util provides small helpers shared by the engines behind the boundary.
//
// The package contains:
//   - functions: seed generation, the FNV-1a based HashBytes function
//     and GetShard, which maps a hashed key onto one of a fixed set of shards
package util
