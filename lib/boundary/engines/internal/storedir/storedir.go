// Package storedir prepares the directory of a file based store: it creates the
// directory and takes the advisory lock that keeps a second instance out.
package storedir

import (
	"fmt"
	"github.com/gofrs/flock"
	"os"
	"path/filepath"
)

// LockFile is the name of the lock file inside every store directory
const LockFile = "LOCK"

// Open creates the directory at path (if needed) and locks it without waiting.
// The returned lock must be released with Unlock once the store is closed.
func Open(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	lock := flock.New(filepath.Join(path, LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock store directory: %w", err)
	}
	if !locked {
		_ = lock.Close()
		return nil, fmt.Errorf("the store directory %q is locked by another instance", path)
	}
	return lock, nil
}
