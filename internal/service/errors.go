package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/arcana/internal/domain/gating"
	"github.com/phrazzld/arcana/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrPlayerNotFound indicates the caller has no character state, either
	// because it never registered or because it was reset.
	// API layer should map this to HTTP 404 Not Found.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrSpreadNotFound indicates the spread does not exist for this player.
	// API layer should map this to HTTP 404 Not Found.
	ErrSpreadNotFound = errors.New("spread not found")

	// ErrFollowUpNotFound indicates a follow-up interpretation was requested
	// for a spread without a follow-up.
	ErrFollowUpNotFound = errors.New("spread has no follow-up")

	// ErrAdRequired indicates the action is ad-gated and no ad reward was presented.
	// API layer should map this to HTTP 402 Payment Required.
	ErrAdRequired = errors.New("ad reward required")

	// ErrQuotaExhausted indicates the day's quota for the action is used up.
	// API layer should map this to HTTP 429 Too Many Requests.
	ErrQuotaExhausted = errors.New("daily quota exhausted")

	// ErrAdCooldown indicates another ad may not be shown yet.
	// API layer should map this to HTTP 429 Too Many Requests.
	ErrAdCooldown = errors.New("ad cooldown active")

	// ErrRateLimited indicates the rate-limit collaborator denied the caller.
	ErrRateLimited = errors.New("interpretation rate limit exceeded")
)

// GatingError reports a refused ad-gated or blocked action together with the
// decision that refused it. It unwraps to ErrAdRequired, ErrQuotaExhausted or ErrAdCooldown.
type GatingError struct {
	Action   string
	Decision gating.Decision
	Err      error
}

// Error implements the error interface for GatingError.
func (e *GatingError) Error() string {
	return fmt.Sprintf("%s refused: %v", e.Action, e.Err)
}

// Unwrap returns the wrapped sentinel.
func (e *GatingError) Unwrap() error {
	return e.Err
}

// newGatingError maps a non-free decision to its error. It returns nil when
// the decision lets the action proceed.
func newGatingError(action string, d gating.Decision, adRewardEarned bool) error {
	switch d.Kind {
	case gating.KindFree:
		return nil
	case gating.KindAdGated:
		if adRewardEarned {
			return nil
		}
		return &GatingError{Action: action, Decision: d, Err: ErrAdRequired}
	}
	if d.Reason == gating.ReasonCooldown {
		return &GatingError{Action: action, Decision: d, Err: ErrAdCooldown}
	}
	return &GatingError{Action: action, Decision: d, Err: ErrQuotaExhausted}
}

// ServiceError wraps unexpected errors with the service and operation that failed.
type ServiceError struct {
	Service string // The service that failed (e.g., "reading", "player")
	Op      string // The operation that failed (e.g., "create_spread")
	Err     error  // Original error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
// Known sentinel errors are returned directly without wrapping, and store
// "not found" errors are translated to their service-level counterparts.
func NewServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrPlayerNotFound), errors.Is(err, store.ErrCharacterNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, ErrSpreadNotFound), errors.Is(err, store.ErrSpreadNotFound):
		return ErrSpreadNotFound
	case errors.Is(err, ErrFollowUpNotFound),
		errors.Is(err, ErrAdRequired),
		errors.Is(err, ErrQuotaExhausted),
		errors.Is(err, ErrAdCooldown),
		errors.Is(err, ErrRateLimited):
		return err
	}

	return &ServiceError{
		Service: service,
		Op:      op,
		Err:     err,
	}
}
