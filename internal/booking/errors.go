package booking

import (
    "errors"
    "fmt"
)

// ErrNoCapacity is the legitimate business outcome of a full slot: not a
// fault, never retried automatically. The caller may offer a different
// time or the waitlist.
var ErrNoCapacity = errors.New("no capacity at requested time")

// ErrNotFound is returned when a referenced record — a booking, waitlist
// entry, or the restaurant itself — does not exist. A missing record is a
// terminal answer, never a storage fault, so it bypasses the persistence
// retry loop.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when a caller operates on a booking it does
// not own.
var ErrForbidden = errors.New("forbidden")

// ValidationError marks bad input the user must correct before retrying.
// Reason names the constraint that failed so the UI can offer the
// next-best action.
type ValidationError struct {
    Reason string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Reason }

func validationf(format string, args ...any) error {
    return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
    var ve *ValidationError
    return errors.As(err, &ve)
}

// PersistenceError wraps a storage-layer fault. The orchestrator retries
// a bounded number of times with fresh lock acquisition before
// surfacing it as fatal.
type PersistenceError struct {
    Err error
}

func (e *PersistenceError) Error() string { return "persistence failed: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
    var pe *PersistenceError
    return errors.As(err, &pe)
}
