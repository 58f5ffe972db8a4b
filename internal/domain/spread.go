package domain

import (
	"time"

	"github.com/google/uuid"
)

// SpreadCard binds a position label to a drawn card.
type SpreadCard struct {
	Position Position `json:"position"`
	DrawnCard
}

// InterpretationStatus records the outcome of the last interpretation attempt.
type InterpretationStatus string

const (
	InterpretationSucceeded InterpretationStatus = "succeeded"
	InterpretationFailed    InterpretationStatus = "failed"
)

// Interpretation holds the AI-generated reading for a spread or follow-up.
type Interpretation struct {
	Status        InterpretationStatus `json:"status"`
	Text          string               `json:"text,omitempty"`
	Model         string               `json:"model,omitempty"`
	Locale        string               `json:"locale,omitempty"`
	FailureReason string               `json:"failure_reason,omitempty"`
	Attempts      int                  `json:"attempts"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

// Succeeded reports whether the interpretation holds usable text.
func (i *Interpretation) Succeeded() bool {
	return i != nil && i.Status == InterpretationSucceeded
}

// FollowUp is a chained three-card reading attached to a spread.
type FollowUp struct {
	Question       string          `json:"question,omitempty"`
	Cards          []SpreadCard    `json:"cards"`
	Pattern        PatternCode     `json:"pattern"`
	Interpretation *Interpretation `json:"interpretation,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	XPAwardedAt    *time.Time      `json:"xp_awarded_at,omitempty"`
}

// Reflection is the player's journal entry about a spread.
type Reflection struct {
	Text        string     `json:"text"`
	Mood        string     `json:"mood,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	XPAwardedAt *time.Time `json:"xp_awarded_at,omitempty"`
}

// Access records how a spread was unlocked.
type Access string

const (
	AccessFree    Access = "free"
	AccessAdGated Access = "ad_gated"
)

// SpreadRecord is a persisted three-card reading. Cards, pattern and modifier
// are fixed at creation; the optional parts are each filled at most once,
// except the reflection text which may be re-saved.
type SpreadRecord struct {
	ID             uuid.UUID       `json:"id"`
	PlayerID       uuid.UUID       `json:"player_id"`
	DateKey        string          `json:"date_key"`
	Topic          Topic           `json:"topic"`
	Cards          []SpreadCard    `json:"cards"`
	Pattern        PatternCode     `json:"pattern"`
	Modifier       Modifier        `json:"modifier"`
	Question       string          `json:"question,omitempty"`
	Access         Access          `json:"access"`
	CreatedAt      time.Time       `json:"created_at"`
	XPAwardedAt    *time.Time      `json:"xp_awarded_at,omitempty"`
	Interpretation *Interpretation `json:"interpretation,omitempty"`
	Clarifier      *DrawnCard      `json:"clarifier,omitempty"`
	FollowUp       *FollowUp       `json:"follow_up,omitempty"`
	Reflection     *Reflection     `json:"reflection,omitempty"`
}

// Orientations returns the card orientations in position order.
func (r *SpreadRecord) Orientations() []Orientation {
	return orientationsOf(r.Cards)
}

// ShownCardIDs returns every card identifier already shown for this spread,
// including the clarifier and follow-up cards.
func (r *SpreadRecord) ShownCardIDs() []int {
	ids := make([]int, 0, len(r.Cards)*2+1)
	for _, c := range r.Cards {
		ids = append(ids, c.CardID)
	}
	if r.Clarifier != nil {
		ids = append(ids, r.Clarifier.CardID)
	}
	if r.FollowUp != nil {
		for _, c := range r.FollowUp.Cards {
			ids = append(ids, c.CardID)
		}
	}
	return ids
}

// Validate checks the structural invariants of the record.
func (r *SpreadRecord) Validate() error {
	if r.ID == uuid.Nil {
		return NewValidationError("id", "spread ID cannot be empty", ErrInvalidID)
	}
	if r.PlayerID == uuid.Nil {
		return NewValidationError("player_id", "player ID cannot be empty", ErrInvalidID)
	}
	if _, err := ParseTopic(string(r.Topic)); err != nil {
		return err
	}
	if err := validateSpreadCards("cards", r.Cards); err != nil {
		return err
	}
	if r.FollowUp != nil {
		if err := validateSpreadCards("follow_up.cards", r.FollowUp.Cards); err != nil {
			return err
		}
	}
	if r.Clarifier != nil && !r.Clarifier.Orientation.Valid() {
		return NewValidationError("clarifier", "invalid orientation", ErrInvalidOrientation)
	}
	return nil
}

// Orientations returns the follow-up card orientations in position order.
func (f *FollowUp) Orientations() []Orientation {
	return orientationsOf(f.Cards)
}

func orientationsOf(cards []SpreadCard) []Orientation {
	out := make([]Orientation, len(cards))
	for i, c := range cards {
		out[i] = c.Orientation
	}
	return out
}

func validateSpreadCards(field string, cards []SpreadCard) error {
	if len(cards) != SpreadSize {
		return NewValidationError(field, "a spread must contain exactly 3 cards", ErrInvalidCardCount)
	}
	seen := make(map[int]struct{}, len(cards))
	for i, c := range cards {
		if c.Position != SpreadPositions[i] {
			return NewValidationError(field, "cards are not in position order", ErrValidation)
		}
		if !c.Orientation.Valid() {
			return NewValidationError(field, "invalid orientation", ErrInvalidOrientation)
		}
		if _, dup := seen[c.CardID]; dup {
			return NewValidationError(field, "duplicate card", ErrValidation)
		}
		seen[c.CardID] = struct{}{}
	}
	return nil
}
