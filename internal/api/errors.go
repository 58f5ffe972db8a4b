package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/interpretation"
	"github.com/phrazzld/arcana/internal/platform/ratelimit"
	"github.com/phrazzld/arcana/internal/service"
	"github.com/phrazzld/arcana/internal/service/auth"
	"github.com/phrazzld/arcana/internal/store"
)

// MapErrorToStatusCode maps service and domain errors to HTTP status codes
// without exposing the error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrPlayerNotFound),
		errors.Is(err, service.ErrSpreadNotFound),
		errors.Is(err, service.ErrFollowUpNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrAdRequired):
		return http.StatusPaymentRequired

	case errors.Is(err, service.ErrQuotaExhausted),
		errors.Is(err, service.ErrAdCooldown),
		errors.Is(err, service.ErrRateLimited),
		errors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests

	case errors.Is(err, domain.ErrTopicLocked),
		errors.Is(err, domain.ErrFeatureLocked),
		errors.Is(err, domain.ErrSkinNotUnlocked):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrAlreadySet):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTopic),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, interpretation.ErrContentBlocked):
		return http.StatusUnprocessableEntity

	case errors.Is(err, interpretation.ErrUnavailable),
		errors.Is(err, ratelimit.ErrUnavailable):
		return http.StatusServiceUnavailable

	case errors.Is(err, interpretation.ErrInterpretationFailed),
		errors.Is(err, interpretation.ErrInvalidResponse),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, service.ErrPlayerNotFound):
		return "Player not found"
	case errors.Is(err, service.ErrSpreadNotFound):
		return "Spread not found"
	case errors.Is(err, service.ErrFollowUpNotFound):
		return "Spread has no follow-up"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, service.ErrAdRequired):
		return "Watch an ad to unlock this action"
	case errors.Is(err, service.ErrQuotaExhausted):
		return "Daily limit reached"
	case errors.Is(err, service.ErrAdCooldown):
		return "Please wait before watching another ad"
	case errors.Is(err, service.ErrRateLimited), errors.Is(err, ratelimit.ErrRateLimited):
		return "Too many interpretation requests"

	case errors.Is(err, domain.ErrTopicLocked):
		return "Topic is locked at your level"
	case errors.Is(err, domain.ErrFeatureLocked):
		return "Feature is locked at your level"
	case errors.Is(err, domain.ErrSkinNotUnlocked):
		return "Skin is not unlocked"
	case errors.Is(err, domain.ErrAlreadySet):
		return "Already set for this spread"

	case errors.As(err, &validationErr):
		if validationErr.Field != "" {
			return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
		}
		return "Validation error"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.Is(err, interpretation.ErrContentBlocked):
		return "The reading could not be written for this question"
	case errors.Is(err, interpretation.ErrUnavailable),
		errors.Is(err, ratelimit.ErrUnavailable):
		return "Interpretation is temporarily unavailable"
	case errors.Is(err, interpretation.ErrInterpretationFailed),
		errors.Is(err, interpretation.ErrInvalidResponse),
		errors.Is(err, context.DeadlineExceeded):
		return "Interpretation failed, please try again"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator output into a message naming the
// field and the failed rule.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", toSnake(fe.Field()), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// HandleAPIError writes the status and safe message for err. Gating refusals
// carry the decision that refused them so clients can show the cooldown or
// remaining quota.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)

	var opts []shared.ResponseOption
	var gatingErr *service.GatingError
	if errors.As(err, &gatingErr) {
		opts = append(opts, shared.WithDetail(gatingErr.Decision))
	}
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// HandleValidationError writes a 400 for request decoding or validation failures.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
}
