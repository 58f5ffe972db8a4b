package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpread() *SpreadRecord {
	return &SpreadRecord{
		ID:       uuid.New(),
		PlayerID: uuid.New(),
		DateKey:  "2024-01-01",
		Topic:    TopicLove,
		Cards: []SpreadCard{
			{Position: PositionPast, DrawnCard: DrawnCard{CardID: 0, Orientation: Upright}},
			{Position: PositionPresent, DrawnCard: DrawnCard{CardID: 7, Orientation: Reversed}},
			{Position: PositionFuture, DrawnCard: DrawnCard{CardID: 21, Orientation: Upright}},
		},
		Pattern:   PatternURU,
		Modifier:  ModifierSoften,
		Access:    AccessFree,
		CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestSpreadRecordValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *SpreadRecord)
		wantErr error
	}{
		{name: "valid", mutate: func(r *SpreadRecord) {}},
		{name: "missing id", mutate: func(r *SpreadRecord) { r.ID = uuid.Nil }, wantErr: ErrInvalidID},
		{name: "unknown topic", mutate: func(r *SpreadRecord) { r.Topic = "weather" }, wantErr: ErrInvalidTopic},
		{name: "two cards", mutate: func(r *SpreadRecord) { r.Cards = r.Cards[:2] }, wantErr: ErrInvalidCardCount},
		{
			name:    "bad orientation",
			mutate:  func(r *SpreadRecord) { r.Cards[1].Orientation = "sideways" },
			wantErr: ErrInvalidOrientation,
		},
		{
			name:    "swapped positions",
			mutate:  func(r *SpreadRecord) { r.Cards[0].Position, r.Cards[1].Position = PositionPresent, PositionPast },
			wantErr: ErrValidation,
		},
		{name: "duplicate card", mutate: func(r *SpreadRecord) { r.Cards[2].CardID = 0 }, wantErr: ErrValidation},
		{
			name: "short follow-up",
			mutate: func(r *SpreadRecord) {
				r.FollowUp = &FollowUp{Cards: r.Cards[:1]}
			},
			wantErr: ErrInvalidCardCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validSpread()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			var ve *ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestShownCardIDs(t *testing.T) {
	t.Parallel()

	r := validSpread()
	assert.Equal(t, []int{0, 7, 21}, r.ShownCardIDs())

	r.Clarifier = &DrawnCard{CardID: 3, Orientation: Upright}
	r.FollowUp = &FollowUp{Cards: []SpreadCard{
		{Position: PositionPast, DrawnCard: DrawnCard{CardID: 4, Orientation: Upright}},
		{Position: PositionPresent, DrawnCard: DrawnCard{CardID: 5, Orientation: Upright}},
		{Position: PositionFuture, DrawnCard: DrawnCard{CardID: 6, Orientation: Reversed}},
	}}
	assert.Equal(t, []int{0, 7, 21, 3, 4, 5, 6}, r.ShownCardIDs())
	assert.Equal(t, []Orientation{Upright, Upright, Reversed}, r.FollowUp.Orientations())
}

func TestParseTopic(t *testing.T) {
	t.Parallel()

	topic, err := ParseTopic(" Career ")
	require.NoError(t, err)
	assert.Equal(t, TopicCareer, topic)

	_, err = ParseTopic("lottery")
	assert.ErrorIs(t, err, ErrInvalidTopic)
	assert.Contains(t, err.Error(), "topic")
}

func TestRewardsStateDefaults(t *testing.T) {
	t.Parallel()

	r := NewRewardsState(time.Now())
	assert.True(t, r.HasSkin(DefaultSkinID))
	assert.Equal(t, DefaultSkinID, r.SelectedSkinID)
	assert.False(t, r.HasSkin("skin_aurora"))
}

func TestCardNameFallsBackToEnglish(t *testing.T) {
	t.Parallel()

	c := Card{Names: map[string]string{"en": "The Fool", "ko": "바보"}}
	assert.Equal(t, "바보", c.Name("ko"))
	assert.Equal(t, "The Fool", c.Name("fr"))
	assert.Equal(t, []string{"b"}, OrientedText[[]string]{Upright: []string{"a"}, Reversed: []string{"b"}}.For(Reversed))
}
