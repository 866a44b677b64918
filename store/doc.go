// Package store provides the DynamoDB persistence facade for arbor.
//
// Arbor keeps every cross-entity relationship as a pair of reference sets,
// one on each side, with no database-enforced foreign keys. This package
// knows nothing about those rules; it provides the primitives the social
// package composes them from:
//
//   - Single-record Get / Query / Scan / Update / Delete with optimistic
//     locking on a managed "version" attribute
//   - A transaction builder ([Tx]) committed via [Store.Commit], covering
//     entity puts, existence checks, string-set reference mutations, and
//     deletes in one TransactWriteItems call
//   - Unique-constraint records in a side table with hashed partition keys
//
// Reference sets are stored as DynamoDB string sets. ADD and DELETE on a
// string set are idempotent, so adding a present member or removing an
// absent one is a storage-level no-op; an empty set is an absent attribute.
//
// # Managed fields
//
// Every record carries "version", "created_at", and "updated_at". Content
// updates advance updated_at; reference-set mutations advance only the
// version, so feed ordering (by updated_at) is unaffected by likes and
// flags.
//
// # Errors
//
//   - [ErrNotFound] - record does not exist
//   - [ErrAlreadyExists] - id collision on create
//   - [ErrDuplicateValue] - unique constraint violated
//   - [ErrConcurrentModification] - optimistic lock failed
//   - [ErrStaleReference] - reference target vanished mid-operation
//   - [ErrTransactionTooLarge] - transaction exceeds the item limit
package store
