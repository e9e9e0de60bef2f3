package storage

import (
	"fmt"
	"github.com/ValentinKolb/bKV/lib/boundary"
)

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

// ErrCode classifies the errors returned by this package.
type ErrCode uint8

const (
	ErrCArgument       ErrCode = iota + 1 // 1: an argument (key text, tag, path, ...) was malformed
	ErrCResourceClosed                    // 2: the store or session was already closed
	ErrCNativeFailure                     // 3: the boundary reported an error
)

func (c ErrCode) String() string {
	switch c {
	case ErrCArgument:
		return "Argument"
	case ErrCResourceClosed:
		return "ResourceClosed"
	case ErrCNativeFailure:
		return "NativeFailure"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error is the error type of this package. Native is only set for
// ErrCNativeFailure and holds the boundary result that failed.
type Error struct {
	Code   ErrCode
	Native boundary.Result
	Msg    string
}

// Sentinels to match errors by code with errors.Is.
var (
	ErrArgument       = &Error{Code: ErrCArgument}
	ErrResourceClosed = &Error{Code: ErrCResourceClosed}
	ErrNativeFailure  = &Error{Code: ErrCNativeFailure}
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case ErrCArgument:
		return "invalid argument: " + e.Msg
	case ErrCResourceClosed:
		return e.Msg
	case ErrCNativeFailure:
		if e.Msg == "" {
			return fmt.Sprintf("native storage failed with %s", e.Native.Kind)
		}
		return fmt.Sprintf("native storage failed (%s), %s", e.Native.Kind, e.Msg)
	default:
		return fmt.Sprintf("storage error (code %s): %s", e.Code, e.Msg)
	}
}

// Is reports whether target is the sentinel (or an error with an equal code and message).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Msg == "" || t.Msg == e.Msg)
}

func newArgumentError(msg string) *Error {
	return &Error{Code: ErrCArgument, Msg: msg}
}

func newResourceClosedError(resource string) *Error {
	return &Error{Code: ErrCResourceClosed, Msg: resource + " is closed"}
}

func newNativeFailure(res boundary.Result, msg string) *Error {
	return &Error{Code: ErrCNativeFailure, Native: res, Msg: msg}
}
