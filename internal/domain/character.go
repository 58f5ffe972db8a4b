package domain

import (
	"time"

	"github.com/google/uuid"
)

// XPSource identifies why experience was awarded.
type XPSource string

const (
	XPSourceDailyDraw        XPSource = "daily_draw"
	XPSourceSpreadCompletion XPSource = "spread_completion"
	XPSourceDeepSpread       XPSource = "deep_spread"
	XPSourceJournalEntry     XPSource = "journal_entry"
	// XPSourceStreakBonus is a label only; its base award is zero.
	XPSourceStreakBonus XPSource = "streak_bonus"
)

// Streak tracks consecutive local days with activity.
type Streak struct {
	Current        int    `json:"current_streak"`
	LastActiveDate string `json:"last_active_date,omitempty"`
	Longest        int    `json:"longest_streak"`
}

// CharacterState is the player's level, experience and streak.
type CharacterState struct {
	PlayerID  uuid.UUID `json:"player_id"`
	Level     int       `json:"level"`
	CurrentXP int       `json:"current_xp"`
	TotalXP   int       `json:"total_xp"`
	Streak    Streak    `json:"streak"`
	// Timezone is the IANA zone that decides the player's local day. It is
	// set once and never follows later request headers.
	Timezone  string    `json:"timezone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCharacterState creates a level 1 character with no experience.
func NewCharacterState(playerID uuid.UUID, now time.Time) *CharacterState {
	return &CharacterState{
		PlayerID:  playerID,
		Level:     1,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// XPEvent describes a single award. It is returned to callers and never stored.
type XPEvent struct {
	Source      XPSource  `json:"source"`
	Amount      int       `json:"amount"`
	BonusAmount int       `json:"bonus_amount"`
	TotalAmount int       `json:"total_amount"`
	Timestamp   time.Time `json:"timestamp"`
}
