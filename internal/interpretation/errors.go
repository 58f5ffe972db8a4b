package interpretation

import "errors"

// Common errors returned by the interpretation package and its adapters.
var (
	// ErrInterpretationFailed is returned when interpretation fails for any general reason
	ErrInterpretationFailed = errors.New("failed to interpret spread")

	// ErrInvalidResponse is returned when the model response is empty or malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrUnavailable is returned when no interpreter is configured
	ErrUnavailable = errors.New("interpretation unavailable")

	// ErrInvalidConfig is returned when the interpreter configuration is invalid
	ErrInvalidConfig = errors.New("invalid interpreter configuration")

	// ErrInvalidRequest is returned when a request cannot be built from a record
	ErrInvalidRequest = errors.New("invalid interpretation request")
)
