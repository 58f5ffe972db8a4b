package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrInvalidCardCount is returned when more cards are requested than the deck can supply.
	ErrInvalidCardCount = errors.New("invalid card count")

	// ErrInvalidTopic is returned for a topic outside the closed topic set.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidOrientation is returned for an orientation other than upright or reversed.
	ErrInvalidOrientation = errors.New("invalid orientation")

	// ErrPatternMismatch is returned when a stored pattern disagrees with its cards.
	ErrPatternMismatch = errors.New("pattern does not match card orientations")

	// ErrSkinNotUnlocked is returned when selecting a cosmetic the player does not own.
	ErrSkinNotUnlocked = errors.New("skin not unlocked")

	// ErrTopicLocked is returned when a topic requires a higher level.
	ErrTopicLocked = errors.New("topic locked")

	// ErrFeatureLocked is returned when a feature requires a higher level.
	ErrFeatureLocked = errors.New("feature locked")

	// ErrAlreadySet is returned when an append-only field is written twice.
	ErrAlreadySet = errors.New("field already set")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Field, e.Message, e.Err)
}

// Unwrap returns the wrapped sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError. A nil err defaults to ErrValidation.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}
