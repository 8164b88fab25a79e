// Package errors defines the classified errors the stream driver reacts to.
//
// Interruption by signal is deliberately absent: it arrives as context
// cancellation and is part of a normal shutdown, not a failure.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures by how the stream driver must react.
type ErrorType string

const (
	// ErrorTypeCheckpointCorrupt marks an unreadable or internally
	// inconsistent checkpoint. Never retried; the driver logs it and
	// falls back to a clean start.
	ErrorTypeCheckpointCorrupt ErrorType = "checkpoint_corrupt"

	// ErrorTypeDiskLow marks free space under the configured floor. The
	// driver pauses rather than retries; space comes back on its own or
	// not at all.
	ErrorTypeDiskLow ErrorType = "disk_low"

	// ErrorTypeWriteIO marks a failed append or flush on the digit file.
	// The only retryable classification.
	ErrorTypeWriteIO ErrorType = "write_io"

	// ErrorTypeLock marks an output directory already owned by another
	// process.
	ErrorTypeLock ErrorType = "lock"

	// ErrorTypeInvariant marks internal state that should be impossible.
	ErrorTypeInvariant ErrorType = "invariant"

	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a classified error with the operation that produced it.
type Error struct {
	Type ErrorType
	Op   string // e.g. "output.append"
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Type)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Type, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error from a message.
func New(t ErrorType, op, msg string) error {
	return &Error{Type: t, Op: op, Err: stderrors.New(msg)}
}

// Newf builds a classified error from a format string.
func Newf(t ErrorType, op, format string, args ...interface{}) error {
	return &Error{Type: t, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies an existing error, preserving it for errors.Is/As.
// Returns nil when err is nil.
func Wrap(t ErrorType, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Type: t, Op: op, Err: err}
}

// TypeOf extracts the classification from anywhere in err's chain.
// Unclassified errors report ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given classification.
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// IsRetryable reports whether an error type is worth retrying. Only write
// I/O qualifies: corruption and lock contention will not heal by waiting,
// and low disk pauses the stream instead.
func IsRetryable(t ErrorType) bool {
	return t == ErrorTypeWriteIO
}

// IsRetryableError is IsRetryable applied to an error chain.
func IsRetryableError(err error) bool {
	return IsRetryable(TypeOf(err))
}
