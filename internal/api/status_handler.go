package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/service"
)

// StatusHandler reports gating and rewards status and selects skins.
type StatusHandler struct {
	status *service.StatusService
	logger *slog.Logger
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(status *service.StatusService, logger *slog.Logger) *StatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusHandler{
		status: status,
		logger: logger.With(slog.String("component", "status_handler")),
	}
}

// GatingStatus handles GET /api/gating.
func (h *StatusHandler) GatingStatus(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r, h.logger)
	if !ok {
		return
	}
	status, err := h.status.GatingStatus(r.Context(), playerID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// RewardsStatus handles GET /api/rewards.
func (h *StatusHandler) RewardsStatus(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r, h.logger)
	if !ok {
		return
	}
	status, err := h.status.RewardsStatus(r.Context(), playerID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// SelectSkin handles PUT /api/rewards/skin.
func (h *StatusHandler) SelectSkin(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r, h.logger)
	if !ok {
		return
	}
	var req SelectSkinRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rewards, err := h.status.SelectSkin(r.Context(), playerID, req.SkinID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, rewards)
}
