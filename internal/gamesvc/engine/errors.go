package engine

import "errors"

var (
	// ErrInvalidState rejects an operation the game's lifecycle does not
	// allow right now (no open question, game not active, cell already
	// answered).
	ErrInvalidState = errors.New("invalid game state")

	// ErrConflict rejects a business-rule violation (duplicate buzz,
	// resolution for a contestant who is not the queue head, retroactive
	// award for an unanswered cell).
	ErrConflict = errors.New("conflict")

	// ErrContention is returned when the bounded retry loop around
	// optimistic-concurrency conflicts is exhausted. Transient; the caller
	// may try again.
	ErrContention = errors.New("too many concurrent updates, try again")
)
