package database

import "errors"

var (
	// ErrNotFound covers both a missing row and a row the actor may not see;
	// the two are indistinguishable by design.
	ErrNotFound = errors.New("not found")

	// ErrNotAvailable means the resource is in maintenance or already booked
	// for an overlapping window.
	ErrNotAvailable = errors.New("resource not available")

	// ErrConcurrentModification is returned when a versioned update loses a race.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrIllegalTransition is returned for a status change with no legal path.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrInvalidInput is returned before any write when input fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPastDate and ErrDateTooFar guard the booking window horizon.
	ErrPastDate   = errors.New("booking start is in the past")
	ErrDateTooFar = errors.New("booking start is too far in the future")
)
