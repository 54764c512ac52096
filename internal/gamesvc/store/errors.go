package store

import "errors"

var (
	// ErrNotFound means the referenced session, team or question is absent.
	ErrNotFound = errors.New("record not found")

	// ErrConflict means a conditional write lost its compare-and-swap race:
	// the record had already moved away from the expected prior state.
	ErrConflict = errors.New("stale state transition")
)
