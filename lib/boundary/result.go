package boundary

import (
	"fmt"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Result Kinds
// --------------------------------------------------------------------------

// ResultKind discriminates the outcome of a boundary call.
type ResultKind uint32

const (
	KindOk             ResultKind = iota // 0: the call succeeded
	KindDone                             // 1: the call succeeded, there is nothing more to read
	KindBufferTooSmall                   // 2: a supplied buffer was too small, retry with a larger one
	KindArgumentNull                     // 3: a required argument was missing or invalid
	KindInternalError                    // 4: the engine failed
)

func (k ResultKind) String() string {
	switch k {
	case KindOk:
		return "Ok"
	case KindDone:
		return "Done"
	case KindBufferTooSmall:
		return "BufferTooSmall"
	case KindArgumentNull:
		return "ArgumentNull"
	case KindInternalError:
		return "InternalError"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(k))
	}
}

// DefaultMessage is the generic description of a kind. It is used whenever the
// recorded message can't be correlated to the failing call.
func (k ResultKind) DefaultMessage() string {
	switch k {
	case KindOk, KindDone:
		return ""
	case KindBufferTooSmall:
		return "a supplied buffer was too small"
	case KindArgumentNull:
		return "a required argument was null"
	case KindInternalError:
		return "an internal error occurred"
	default:
		return "an unknown error occurred"
	}
}

// --------------------------------------------------------------------------
// Result
// --------------------------------------------------------------------------

// Result is returned by every boundary call. ID correlates an error result with
// the message recorded for it; successful results always carry ID 0.
type Result struct {
	Kind ResultKind
	ID   uint32
}

// lastID is shared by all hosts in the process so that IDs never repeat between them.
var lastID atomic.Uint32

func nextID() uint32 {
	return lastID.Add(1)
}

// Ok returns a successful result.
func Ok() Result { return Result{Kind: KindOk} }

// Done returns the result signalling the end of a read.
func Done() Result { return Result{Kind: KindDone} }

// BufferTooSmall returns a new BufferTooSmall result with a fresh correlation id.
func BufferTooSmall() Result { return Result{Kind: KindBufferTooSmall, ID: nextID()} }

// ArgumentNull returns a new ArgumentNull result with a fresh correlation id.
func ArgumentNull() Result { return Result{Kind: KindArgumentNull, ID: nextID()} }

// InternalError returns a new InternalError result with a fresh correlation id.
func InternalError() Result { return Result{Kind: KindInternalError, ID: nextID()} }

// IsSuccess reports whether the result is Ok or Done.
func (r Result) IsSuccess() bool {
	return r.Kind == KindOk || r.Kind == KindDone
}

// IsOk reports whether the result is Ok.
func (r Result) IsOk() bool { return r.Kind == KindOk }

// IsDone reports whether the result is Done.
func (r Result) IsDone() bool { return r.Kind == KindDone }

// IsBufferTooSmall reports whether the result is BufferTooSmall.
func (r Result) IsBufferTooSmall() bool { return r.Kind == KindBufferTooSmall }

func (r Result) String() string {
	if r.ID == 0 {
		return r.Kind.String()
	}
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}
