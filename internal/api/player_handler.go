package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/redact"
	"github.com/phrazzld/arcana/internal/service"
	"github.com/phrazzld/arcana/internal/service/auth"
)

// PlayerHandler registers players, reports profiles and resets state.
type PlayerHandler struct {
	players       *service.PlayerService
	jwtService    auth.JWTService
	tokenLifetime time.Duration
	logger        *slog.Logger
}

// NewPlayerHandler creates a PlayerHandler.
func NewPlayerHandler(
	players *service.PlayerService,
	jwtService auth.JWTService,
	tokenLifetime time.Duration,
	logger *slog.Logger,
) *PlayerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlayerHandler{
		players:       players,
		jwtService:    jwtService,
		tokenLifetime: tokenLifetime,
		logger:        logger.With(slog.String("component", "player_handler")),
	}
}

// Register handles POST /api/players. It creates a level 1 player and
// returns the access token that identifies it.
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	profile, err := h.players.Register(r.Context())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), profile.PlayerID)
	if err != nil {
		log.Error("failed to issue token for new player",
			slog.String("player_id", profile.PlayerID.String()),
			redact.ErrorAttr(err))
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	log.Info("player registered", slog.String("player_id", profile.PlayerID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, RegisterResponse{
		PlayerID:    profile.PlayerID,
		AccessToken: token,
		ExpiresAt:   time.Now().Add(h.tokenLifetime).UTC(),
		Profile:     profile,
	})
}

// GetProfile handles GET /api/player.
func (h *PlayerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r, h.logger)
	if !ok {
		return
	}
	profile, err := h.players.GetProfile(r.Context(), playerID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, profile)
}

// Reset handles DELETE /api/player. Every record of the player is removed;
// the token stays valid but the player must register again to play.
func (h *PlayerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	playerID, ok := requirePlayer(w, r, h.logger)
	if !ok {
		return
	}
	removed, err := h.players.Reset(r.Context(), playerID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ResetResponse{Removed: removed})
}
