package storage

import "errors"

// Errors shared by every backend. Items and snapshots are never updated in
// place; momentum sets are only ever replaced as a whole.
var (
	// ErrNotFound is returned when no item, run or momentum set matches.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an item or run with the same key
	// is already stored.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrDuplicateRun is returned when a snapshot for (item_id, run_id) already exists.
	// Callers re-running the same run treat it as a no-op.
	ErrDuplicateRun = errors.New("duplicate run: snapshot already recorded for this run")

	// ErrInvalidInput is returned when a record or query argument is malformed.
	ErrInvalidInput = errors.New("invalid input")
)
