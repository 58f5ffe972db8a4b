package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested key or record does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when a record fails validation before
	// being stored or after being decoded.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when an atomic write cannot be committed.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidKey is returned for an empty key or a key that breaks the namespace.
	ErrInvalidKey = errors.New("invalid key")

	// Record-specific "not found" errors

	// ErrCharacterNotFound indicates that the player has no character state.
	ErrCharacterNotFound = fmt.Errorf("%w: character", ErrNotFound)

	// ErrRewardsNotFound indicates that the player has no rewards state.
	ErrRewardsNotFound = fmt.Errorf("%w: rewards", ErrNotFound)

	// ErrGatingNotFound indicates that no gating record exists for the day.
	ErrGatingNotFound = fmt.Errorf("%w: gating", ErrNotFound)

	// ErrDrawNotFound indicates that no daily draw exists for the day.
	ErrDrawNotFound = fmt.Errorf("%w: draw", ErrNotFound)

	// ErrSpreadNotFound indicates that the requested spread does not exist.
	ErrSpreadNotFound = fmt.Errorf("%w: spread", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// Record-specific errors wrap ErrNotFound, so a single errors.Is suffices.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The record type (e.g., "character", "spread")
	Operation string // The operation that failed (e.g., "get", "put")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
