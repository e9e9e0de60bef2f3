package storage

import (
	"github.com/ValentinKolb/bKV/lib/boundary"
)

const (
	// defaultMessageBufferSize is the size of the first buffer LastResult is asked to fill
	defaultMessageBufferSize = 1024
	// maxMessageAttempts bounds the retries when the recorded message keeps growing
	maxMessageAttempts = 4
)

// --------------------------------------------------------------------------
// Diagnostic Channel
// --------------------------------------------------------------------------

// check turns a boundary result into an error. Ok and Done are no errors, everything
// else (including an unexpected BufferTooSmall) is a NativeFailure with the message
// recovered from the boundary.
func check(b boundary.Boundary, op string, res boundary.Result) error {
	if res.IsSuccess() {
		return nil
	}
	return nativeFailure(b, op, res)
}

// nativeFailure builds the NativeFailure error for a failed boundary call.
func nativeFailure(b boundary.Boundary, op string, res boundary.Result) *Error {
	nativeFailures.Inc()
	msg := lastMessage(b, res)
	Logger.Debugf("%s failed with %s: %s", op, res, msg)
	return newNativeFailure(res, msg)
}

// lastMessage recovers the message recorded for res.
// The message is only trusted if the recorded result has the same kind and id as
// res. Otherwise some other call overwrote the slot in between and the generic
// message of the kind is used.
func lastMessage(b boundary.Boundary, res boundary.Result) string {
	buf := make([]byte, defaultMessageBufferSize)

	for attempt := 0; attempt < maxMessageAttempts; attempt++ {
		status, last, n := b.LastResult(buf)

		if status.IsBufferTooSmall() {
			if last != res {
				break
			}
			buf = make([]byte, n)
			continue
		}

		if !status.IsOk() || last != res {
			break
		}
		return string(buf[:n])
	}
	return res.Kind.DefaultMessage()
}
