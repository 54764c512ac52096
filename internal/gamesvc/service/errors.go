package service

import (
	"errors"

	"github.com/avvvet/trivia-services/internal/gamesvc/store"
)

var (
	// ErrNotFound surfaces as "game not found" / "question not found".
	ErrNotFound = store.ErrNotFound

	// ErrConflict is a lost compare-and-swap race. Dropped silently by
	// callers: exactly one of the racing writers won and the record is in
	// the state everyone wanted.
	ErrConflict = store.ErrConflict

	// ErrInvalidState rejects an operation the current session state does
	// not permit, e.g. answering after the reveal.
	ErrInvalidState = errors.New("operation not allowed in current session state")
)
