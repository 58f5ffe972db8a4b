package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	playerID := uuid.New()
	event, err := NewEvent(TypeXPAwarded, playerID, XPAwarded{Source: "daily_draw", Amount: 20, Bonus: 2, Total: 22})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeXPAwarded, event.Type)
	assert.Equal(t, playerID, event.PlayerID)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded XPAwarded
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, 22, decoded.Total)
	assert.Equal(t, "daily_draw", decoded.Source)
}

func TestNewEventRejectsUnencodablePayload(t *testing.T) {
	_, err := NewEvent(TypeLevelUp, uuid.New(), make(chan int))
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *Event
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(_ context.Context, event *Event) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestEmitWithNilEmitter(t *testing.T) {
	assert.NoError(t, Emit(context.Background(), nil, TypeLevelUp, uuid.New(), LevelUp{From: 1, To: 2}))
}

func TestEmitBuildsAndPublishes(t *testing.T) {
	emitter := NewDispatcher(nil, nil)
	handler := &MockEventHandler{}
	emitter.Subscribe(handler)

	playerID := uuid.New()
	require.NoError(t, Emit(context.Background(), emitter, TypeRewardUnlocked, playerID,
		RewardUnlocked{SkinID: "skin_starlight", Attendance: 3}))

	require.Equal(t, 1, handler.HandledCount)
	assert.Equal(t, TypeRewardUnlocked, handler.LastEvent.Type)
	assert.Equal(t, playerID, handler.LastEvent.PlayerID)
}
