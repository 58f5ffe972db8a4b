package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/service"
)

// RegisterResponse is returned when a new player is created.
type RegisterResponse struct {
	PlayerID uuid.UUID `json:"player_id"`

	// AccessToken authenticates every other endpoint as a bearer token.
	AccessToken string           `json:"token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Profile     *service.Profile `json:"profile"`
}

// ResetResponse reports how many stored records a reset removed.
type ResetResponse struct {
	Removed int `json:"removed"`
}

// CreateSpreadRequest is the body of POST /api/spreads.
type CreateSpreadRequest struct {
	Topic          string `json:"topic"            validate:"required"`
	Question       string `json:"question"         validate:"max=500"`
	AdRewardEarned bool   `json:"ad_reward_earned"`
}

// ClarifierRequest is the optional body of POST /api/spreads/{id}/clarifier.
type ClarifierRequest struct {
	AdRewardEarned bool `json:"ad_reward_earned"`
}

// FollowUpRequest is the body of POST /api/spreads/{id}/follow-up.
type FollowUpRequest struct {
	Question string `json:"question" validate:"max=500"`
}

// InterpretRequest is the optional body of POST /api/spreads/{id}/interpretation.
// Locale falls back to the Accept-Language header.
type InterpretRequest struct {
	Kind   string `json:"kind"   validate:"omitempty,oneof=spread follow_up"`
	Locale string `json:"locale" validate:"max=64"`
}

// ReflectionRequest is the body of PUT /api/spreads/{id}/reflection.
type ReflectionRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
	Mood string `json:"mood" validate:"max=32"`
}

// SelectSkinRequest is the body of PUT /api/rewards/skin.
type SelectSkinRequest struct {
	SkinID string `json:"skin_id" validate:"required,max=64"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
