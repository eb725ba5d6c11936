package application

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure the services return on purpose wraps exactly one
// of these, so callers can branch with errors.Is.
var (
	// ErrValidation marks missing or malformed input the caller can correct.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an id or code that does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed marks a valid reference in the wrong state.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrExpired marks a redemption attempted after the code's expiry.
	ErrExpired = errors.New("access code expired")

	// ErrQuotaExhausted marks a redemption attempted with no uses left.
	ErrQuotaExhausted = errors.New("access code quota exhausted")
)

// Error carries a failure kind together with a message that is safe to show
// to the client. It never contains secrets or store internals.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
