package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/platform/logger"
)

// getPathUUID parses the named chi path parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}
	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// requirePlayer returns the authenticated player or writes a 401.
func requirePlayer(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	playerID, ok := shared.PlayerIDFromContext(r.Context())
	if !ok {
		logger.FromContextOrDefault(r.Context(), log).Warn("player ID not found in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized)
		return uuid.Nil, false
	}
	return playerID, true
}

// requirePlayerAndSpread extracts the authenticated player and the {id} path
// parameter, writing an error response when either is missing.
func requirePlayerAndSpread(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, uuid.UUID, bool) {
	playerID, ok := requirePlayer(w, r, log)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	spreadID, err := getPathUUID(r, "id")
	if err != nil {
		logger.FromContextOrDefault(r.Context(), log).Debug("invalid spread id",
			slog.String("value", chi.URLParam(r, "id")))
		HandleAPIError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	return playerID, spreadID, true
}

// decodeAndValidate decodes a required JSON body into v and validates it.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		HandleValidationError(w, r, err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleValidationError(w, r, err)
		return false
	}
	return true
}

// decodeOptionalAndValidate is decodeAndValidate for bodies that may be omitted.
func decodeOptionalAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeOptionalJSON(w, r, v); err != nil {
		HandleValidationError(w, r, err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleValidationError(w, r, err)
		return false
	}
	return true
}
