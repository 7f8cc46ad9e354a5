// Package store holds the four in-memory review stores: change groups,
// annotations, conflicts and checkpoints. The stores perform no I/O and no
// locking of their own; the review coordinator is their only writer and
// serializes access. Durability is delegated to the external executor.
package store

import "errors"

var (
	// ErrNotFound is wrapped by every lookup miss so callers can classify
	// failures with errors.Is without parsing messages.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is wrapped when an entity id is registered twice.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidTransition is wrapped when a conflict status change would
	// violate the pending -> resolving -> {resolved, failed} lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicatePath is wrapped when a proposed group lists the same path
	// in more than one bucket.
	ErrDuplicatePath = errors.New("path appears in more than one bucket")
)
