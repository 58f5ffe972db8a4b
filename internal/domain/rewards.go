package domain

import (
	"slices"
	"time"
)

// DefaultSkinID is owned by every player from the start.
const DefaultSkinID = "skin_default"

// RewardsState is the set of unlocked cosmetics and the selected one.
type RewardsState struct {
	UnlockedSkins  []string  `json:"unlocked_skins"`
	SelectedSkinID string    `json:"selected_skin_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewRewardsState returns a state owning and selecting only the default skin.
func NewRewardsState(now time.Time) *RewardsState {
	return &RewardsState{
		UnlockedSkins:  []string{DefaultSkinID},
		SelectedSkinID: DefaultSkinID,
		UpdatedAt:      now.UTC(),
	}
}

// HasSkin reports whether skinID is unlocked.
func (r *RewardsState) HasSkin(skinID string) bool {
	return slices.Contains(r.UnlockedSkins, skinID)
}
