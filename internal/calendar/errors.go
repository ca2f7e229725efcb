package calendar

import "errors"

var (
	// ErrOutOfRange is returned when a timestamp falls outside the
	// scheduling window [now, now+1y].
	ErrOutOfRange = errors.New("timestamp outside scheduling window")

	// ErrInvalidArgument is returned for unrecognized recurrence
	// frequencies and unparsable front-end input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when no event exists at the requested
	// (title, timestamp) pair.
	ErrNotFound = errors.New("event not found")
)
