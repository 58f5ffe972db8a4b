package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event types emitted by the services.
const (
	TypeXPAwarded      = "xp_awarded"
	TypeLevelUp        = "level_up"
	TypeRewardUnlocked = "reward_unlocked"
	TypeGatingDecision = "gating_decision"
	TypeSpreadCreated  = "spread_created"
	TypeInterpretation = "interpretation"
)

// Event is a single engine outcome for one player.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type constants
	Type string `json:"type"`

	// PlayerID identifies the player the event belongs to
	PlayerID uuid.UUID `json:"player_id"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the specified type and payload.
func NewEvent(eventType string, playerID uuid.UUID, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		PlayerID:  playerID,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// XPAwarded is the payload of TypeXPAwarded.
type XPAwarded struct {
	Source string `json:"source"`
	Amount int    `json:"amount"`
	Bonus  int    `json:"bonus"`
	Total  int    `json:"total"`
}

// LevelUp is the payload of TypeLevelUp.
type LevelUp struct {
	From    int      `json:"from"`
	To      int      `json:"to"`
	Unlocks []string `json:"unlocks,omitempty"`
}

// RewardUnlocked is the payload of TypeRewardUnlocked.
type RewardUnlocked struct {
	SkinID     string `json:"skin_id"`
	Attendance int    `json:"attendance"`
}

// GatingDecision is the payload of TypeGatingDecision.
type GatingDecision struct {
	Action string `json:"action"`
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

// SpreadCreated is the payload of TypeSpreadCreated.
type SpreadCreated struct {
	SpreadID uuid.UUID `json:"spread_id"`
	Topic    string    `json:"topic"`
	Access   string    `json:"access"`
	Pattern  string    `json:"pattern"`
}

// Interpretation is the payload of TypeInterpretation.
type Interpretation struct {
	SpreadID   uuid.UUID `json:"spread_id"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	DurationMS int64     `json:"duration_ms"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// Emit builds an event and publishes it. Handler failures are returned but
// never undo the state change that produced the event.
func Emit(ctx context.Context, emitter EventEmitter, eventType string, playerID uuid.UUID, payload any) error {
	if emitter == nil {
		return nil
	}
	event, err := NewEvent(eventType, playerID, payload)
	if err != nil {
		return err
	}
	return emitter.EmitEvent(ctx, event)
}
