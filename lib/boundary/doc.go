// Package boundary defines the narrow call protocol between the storage access layer
// (package storage) and a key-value engine, and provides a host that serves any
// Engine through it.
//
// The protocol (Boundary) only passes plain values: opaque handles, fixed 16 byte
// keys, caller owned byte buffers and a Result for every call. Results carry a kind
// (Ok, Done, BufferTooSmall, ArgumentNull, InternalError) and, for errors, a
// correlation id. Messages are not returned inline. Instead the host records the
// last result together with its message in a diagnostic slot that LastResult reads:
//
//	n, res := b.ReadNext(reader, &key, buf)
//	if !res.IsSuccess() && !res.IsBufferTooSmall() {
//		msg := make([]byte, 1024)
//		_, last, msgLen := b.LastResult(msg)
//		if last == res { // same kind and id, the message belongs to this call
//			...
//		}
//	}
//
// Every call overwrites the slot, so callers must compare the recorded result with
// their own before trusting the message.
//
// Reading uses a fixed buffer protocol: ReadNext copies the next value into the
// supplied buffer. If it does not fit, the result is BufferTooSmall together with
// the required size and the entry is kept, so a retry with a large enough buffer
// returns the same entry.
//
// Host:
//
// NewHost turns an Engine (see engine.go and lib/boundary/engines) into a Boundary.
// It keeps handle tables for stores and sessions, recovers panics of the engine into
// InternalError results, buffers write and delete sessions until they end and
// defers the close of a store until its last session ended.
//
// The conformance suite in lib/boundary/testing checks Boundary implementations.
package boundary
