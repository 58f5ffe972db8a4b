package domain

import "time"

// DailyDraw is the single card a player draws each local day.
type DailyDraw struct {
	DateKey     string     `json:"date_key"`
	Card        DrawnCard  `json:"card"`
	CreatedAt   time.Time  `json:"created_at"`
	XPAwardedAt *time.Time `json:"xp_awarded_at,omitempty"`
}
