package store

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStale is returned by compare-and-swap updates when the stored
	// version no longer matches the one the caller read. The caller is
	// expected to re-read and retry.
	ErrStale = errors.New("stale game version")
)
