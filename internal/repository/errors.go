// Package repository implements data access over MySQL. This file
// defines error values reused across repositories: sentinel values let
// the handler and engine layers distinguish failure scenarios with
// errors.Is instead of matching driver error strings.
package repository

import (
    "errors"

    "github.com/iliyamo/restaurant-table-booking/internal/booking"
)

// ErrNotFound is returned when a requested row does not exist. It is the
// same value the engine exposes, so errors.Is works across both layers
// and callers never compare against sql.ErrNoRows directly.
var ErrNotFound = booking.ErrNotFound

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update cannot proceed due to
// conflicting state, such as a duplicate confirmation code. Handlers
// translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering a user with an email that
// is already taken.
var ErrEmailExists = errors.New("email already exists")
