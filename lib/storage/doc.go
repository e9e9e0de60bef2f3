// Package storage is the client side access layer to a key-value engine that is only
// reachable through the narrow call protocol of package boundary.
//
// The package turns the handle and result code protocol of a boundary.Boundary into
// ordinary Go values and errors:
//
//   - Key: A fixed 16 byte identifier made of an 8 byte ASCII tag and a 64-bit
//     ordinal. The canonical text form is "<tag>-<lo>" (e.g. "testdoc1-17").
//     Keys are comparable, equality is defined over all 16 bytes.
//
//   - Store: One open store behind the boundary, created with Open or OpenConfig.
//     A store mints read, write and delete sessions. Closing a store is idempotent
//     and never fails; sessions that are still open keep working until they are
//     closed themselves.
//
//   - Reader: A read session over all entries, ordered by the raw key bytes. The
//     low level TryReadNext reads one entry into a caller supplied buffer and reports
//     ReadBufferTooSmall (without advancing) if the value does not fit. Entries
//     wraps this into an iter.Seq2 that grows its buffer as needed and yields
//     entries owning their buffer (see the example below).
//
//   - Writer / Deleter: Write and delete sessions. Their effects become visible to
//     readers begun after the session's Close returned successfully.
//
// A typical scan:
//
//	reader, err := store.BeginRead()
//	if err != nil {
//		return err
//	}
//	defer reader.Close()
//
//	for entry, err := range reader.Entries() {
//		if err != nil {
//			return err
//		}
//		use(entry.Key, entry.Value)
//		entry.Release()
//	}
//
// Every store and session owns exactly one boundary handle through a resource
// guard. The handle is released exactly once, no matter how often Close is called.
// A finalizer releases handles that were never closed, but it is only a backstop:
// callers must close what they open (typically with defer).
//
// Errors are of type *Error and can be matched with errors.Is against ErrArgument,
// ErrResourceClosed and ErrNativeFailure. For a NativeFailure, the message is
// recovered from the boundary's diagnostic slot. Since the slot is shared, the
// message is only used if the recorded result has the same kind and correlation id
// as the failing call, otherwise a generic message for the kind is used.
//
// Package metrics (github.com/VictoriaMetrics/metrics) counters track the opened
// sessions, the entries read and written and the native failures.
package storage
