package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("arbor: record not found")

	// ErrAlreadyExists is returned when attempting to create a record with
	// an existing ID.
	ErrAlreadyExists = errors.New("arbor: record already exists")

	// ErrDuplicateValue is returned when a unique constraint is violated.
	ErrDuplicateValue = errors.New("arbor: duplicate value for unique field")

	// ErrConcurrentModification is returned when an optimistic lock fails
	// (version mismatch).
	ErrConcurrentModification = errors.New("arbor: record was modified concurrently")

	// ErrStaleReference is returned when a reference-set mutation targeted a
	// record that no longer exists. Callers treat it as a no-op or replan;
	// it is never surfaced past the cascade/toggle layer.
	ErrStaleReference = errors.New("arbor: referenced record no longer exists")

	// ErrTransactionTooLarge is returned by Commit when a transaction
	// exceeds the DynamoDB item limit after merging.
	ErrTransactionTooLarge = errors.New("arbor: transaction exceeds item limit")
)
