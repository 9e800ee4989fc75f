// Package cerrors defines the error taxonomy shared by every tier of the
// cloud storage environment: local disk, object store, and streaming log.
package cerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an Error the way the environment router needs to act on
// it. Only NotFound drives fallback between local, dest, and src; everything
// else is terminal for the calling operation.
type Kind int

const (
	// Unknown is the zero value and should not be constructed directly.
	Unknown Kind = iota
	// NotFound means the object or file is missing in the bucket or tier
	// that was asked about. It is the only Kind the router's fallback
	// chain (local -> dest -> src) consumes.
	NotFound
	// IOError covers any other remote or local I/O failure.
	IOError
	// InvalidArgument covers region mismatches and option conflicts
	// (e.g. mmap requested with keep_local_sst_files=false).
	InvalidArgument
	// NotSupported covers renames of SST/MANIFEST/LOG files.
	NotSupported
	// TimedOut means a retry driver exhausted its budget.
	TimedOut
	// Busy means a duplicate background operation was requested
	// (e.g. starting the streaming-log tailer twice).
	Busy
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case IOError:
		return "I/O error"
	case InvalidArgument:
		return "invalid argument"
	case NotSupported:
		return "not supported"
	case TimedOut:
		return "timed out"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every package in this
// module. Op and Path identify what was being attempted; Err, when set,
// wraps the underlying cause (an SDK error, an os.PathError, etc).
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, op, path string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: cause}
}

// NotFoundf builds a NotFound error for op/path.
func NotFoundf(op, path string, cause error) *Error {
	return newErr(NotFound, op, path, cause)
}

// IOErrorf builds an IOError for op/path.
func IOErrorf(op, path string, cause error) *Error {
	return newErr(IOError, op, path, cause)
}

// InvalidArgumentf builds an InvalidArgument error for op/path.
func InvalidArgumentf(op, path string, cause error) *Error {
	return newErr(InvalidArgument, op, path, cause)
}

// NotSupportedf builds a NotSupported error for op/path.
func NotSupportedf(op, path string, cause error) *Error {
	return newErr(NotSupported, op, path, cause)
}

// TimedOutf builds a TimedOut error for op/path.
func TimedOutf(op, path string, cause error) *Error {
	return newErr(TimedOut, op, path, cause)
}

// Busyf builds a Busy error for op/path.
func Busyf(op, path string, cause error) *Error {
	return newErr(Busy, op, path, cause)
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// IsNotFound reports whether err is, or wraps, a NotFound Error.
func IsNotFound(err error) bool { return Is(err, NotFound) }

// IsTimedOut reports whether err is, or wraps, a TimedOut Error.
func IsTimedOut(err error) bool { return Is(err, TimedOut) }

// IsNotSupported reports whether err is, or wraps, a NotSupported Error.
func IsNotSupported(err error) bool { return Is(err, NotSupported) }
