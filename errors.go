package iocore

import (
	"errors"
	"fmt"
	"syscall"
)

// Kind categorizes an Error. The core never conflates a transport
// error with an engine-level operation error: the two travel side by
// side wherever the API surfaces both (err and op_err).
type Kind string

const (
	// KindInvalidArgument covers a nil callback, a nil context where
	// one is required, or an unknown direction.
	KindInvalidArgument Kind = "invalid_argument"
	// KindResourceExhausted means the fd table has no free slot.
	KindResourceExhausted Kind = "resource_exhausted"
	// KindSystem wraps an OS errno from select, allocation, or fd
	// closure.
	KindSystem Kind = "system"
	// KindCancelled means the context was cancelled externally.
	KindCancelled Kind = "cancelled"
	// KindOperationError is an engine-level per-operation failure. It
	// is carried as op_err, never as the transport Error.
	KindOperationError Kind = "operation_error"
)

// Error is the structured error type returned throughout this
// package. Serial and Fd are zero when not applicable.
type Error struct {
	Op     string
	Kind   Kind
	Serial Serial
	Fd     int
	Errno  syscall.Errno
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Serial != 0 && e.Fd != 0 {
		return fmt.Sprintf("iocore: %s: op=%s serial=%d fd=%d: %s", e.Kind, e.Op, e.Serial, e.Fd, msg)
	}
	if e.Serial != 0 {
		return fmt.Sprintf("iocore: %s: op=%s serial=%d: %s", e.Kind, e.Op, e.Serial, msg)
	}
	return fmt.Sprintf("iocore: %s: op=%s: %s", e.Kind, e.Op, msg)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a structured error with no wrapped cause.
func NewError(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// WrapSystemError wraps err (typically a syscall.Errno) as a
// KindSystem Error for the given operation.
func WrapSystemError(op string, err error) *Error {
	if err == nil {
		return nil
	}
	e := &Error{Op: op, Kind: KindSystem, Err: err, Msg: err.Error()}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		e.Errno = errno
	}
	return e
}

// CancelledError builds the KindCancelled error posted when a context
// is cancelled externally.
func CancelledError(op string, serial Serial, cause error) *Error {
	e := &Error{Op: op, Kind: KindCancelled, Serial: serial}
	if cause != nil {
		e.Err = cause
		e.Msg = cause.Error()
	} else {
		e.Msg = "cancelled"
	}
	return e
}

// IsKind reports whether err is, or wraps, an *Error of the given
// Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsCancelled reports whether err represents a cancelled context.
func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}
