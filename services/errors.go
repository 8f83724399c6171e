package services

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Handlers map these onto HTTP responses at the
// boundary; services never touch fiber directly.
var (
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden means the caller is not allowed to act on the entity
	// (instructor does not own the course, student is not enrolled).
	ErrForbidden = errors.New("access denied")

	// ErrConflict means a uniqueness rule was violated (duplicate
	// enrollment, duplicate review). Distinct from InvalidStateError so
	// clients can react differently.
	ErrConflict = errors.New("resource already exists")
)

// InvalidStateError is a client-correctable validation failure with a
// human-readable reason, e.g. requesting a certificate before completing
// the course, or accessing a lesson whose prerequisite is incomplete.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return e.Reason
}

// NewInvalidState builds an InvalidStateError from a format string.
func NewInvalidState(format string, args ...interface{}) error {
	return &InvalidStateError{Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidState reports whether err is an InvalidStateError.
func IsInvalidState(err error) bool {
	var ise *InvalidStateError
	return errors.As(err, &ise)
}
