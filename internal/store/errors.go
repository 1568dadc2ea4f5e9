package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a task with an ID already in use).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrAmbiguousReference is returned when a task reference fragment
	// matches more than one task. The caller must disambiguate rather than
	// having the store silently pick one.
	ErrAmbiguousReference = errors.New("reference matches multiple tasks")

	// ErrNoTasksAvailable is returned by ClaimNext when no pending task
	// matches the claim filter. It is an informative result, not a failure:
	// callers poll or back off, the store never waits.
	ErrNoTasksAvailable = errors.New("no tasks available")

	// ErrNoChange is returned when an update carries no effective field
	// changes. Like ErrNoTasksAvailable it is informative, not exceptional.
	ErrNoChange = errors.New("no fields to update")

	// ErrStoreUnavailable is returned when the underlying storage cannot be
	// reached. The operation is safe to retry as a whole.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrTaskNotFound indicates that the requested task does not exist in the store.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// This includes the generic ErrNotFound and all entity-specific not found errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTaskNotFound)
}

// IsInformative reports whether the error is an informative, non-exceptional
// result that callers should render as a friendly message rather than a
// system failure.
func IsInformative(err error) bool {
	return errors.Is(err, ErrNoTasksAvailable) ||
		errors.Is(err, ErrNoChange)
}
