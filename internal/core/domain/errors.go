package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRange indicates a time window whose start is not before its end.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrFullResyncRequired indicates incremental sync cannot run because no
	// prior successful run exists to supply a watermark. Callers branch on
	// this and fall back to full discovery; it is not a generic failure.
	ErrFullResyncRequired = errors.New("full resync required: no successful run on record")

	// ErrSyncInProgress indicates a sync is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrRunNotFound indicates a run record does not exist in the ledger.
	ErrRunNotFound = errors.New("run not found")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
