// Package rewards implements the milestone engine: attendance counting and
// the monotone unlocking of cosmetic skins.
package rewards

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/arcana/internal/calendar"
	"github.com/phrazzld/arcana/internal/domain"
)

// ErrInvalidMilestones is returned for a table that is not strictly increasing.
var ErrInvalidMilestones = errors.New("milestones must be strictly increasing by required days")

// Milestone unlocks SkinID once attendance reaches RequiredDays.
type Milestone struct {
	RequiredDays int    `json:"required_days"`
	SkinID       string `json:"skin_id"`
}

// DefaultMilestones returns the lifetime attendance milestone table.
func DefaultMilestones() []Milestone {
	return []Milestone{
		{RequiredDays: 3, SkinID: "skin_starlight"},
		{RequiredDays: 7, SkinID: "skin_moonlight"},
		{RequiredDays: 14, SkinID: "skin_sunrise"},
		{RequiredDays: 30, SkinID: "skin_aurora"},
		{RequiredDays: 60, SkinID: "skin_nebula"},
		{RequiredDays: 100, SkinID: "skin_eclipse"},
	}
}

// Scope selects which attendance days are counted.
type Scope string

const (
	ScopeLifetime Scope = "lifetime"
	ScopeMonth    Scope = "month"
)

// CountAttendance counts distinct valid day keys. With ScopeMonth only days
// inside month ("YYYY-MM") are counted.
func CountAttendance(dateKeys []string, scope Scope, month string) int {
	seen := make(map[string]struct{}, len(dateKeys))
	for _, key := range dateKeys {
		m, err := calendar.MonthOf(key)
		if err != nil {
			continue
		}
		if scope == ScopeMonth && m != month {
			continue
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}

// Engine evaluates milestones against a rewards state.
type Engine struct {
	milestones []Milestone
}

// NewEngine validates the milestone table and creates an Engine.
func NewEngine(milestones []Milestone) (*Engine, error) {
	for i, m := range milestones {
		if m.SkinID == "" || m.RequiredDays < 0 {
			return nil, fmt.Errorf("%w: entry %d", ErrInvalidMilestones, i)
		}
		if i > 0 && m.RequiredDays <= milestones[i-1].RequiredDays {
			return nil, fmt.Errorf("%w: entry %d", ErrInvalidMilestones, i)
		}
	}
	table := make([]Milestone, len(milestones))
	copy(table, milestones)
	return &Engine{milestones: table}, nil
}

// NewDefaultEngine creates an Engine over DefaultMilestones.
func NewDefaultEngine() *Engine {
	e, err := NewEngine(DefaultMilestones())
	if err != nil {
		panic(err)
	}
	return e
}

// Milestones returns a copy of the milestone table.
func (e *Engine) Milestones() []Milestone {
	out := make([]Milestone, len(e.milestones))
	copy(out, e.milestones)
	return out
}

// CheckAndUnlock adds every milestone skin whose threshold attendance meets.
// It never removes a skin, and calling it again with the same attendance
// changes nothing. The newly unlocked skin identifiers are returned.
func (e *Engine) CheckAndUnlock(
	state *domain.RewardsState,
	attendance int,
	now time.Time,
) (*domain.RewardsState, []string) {
	next := e.Normalize(state, now)
	var unlocked []string
	for _, m := range e.milestones {
		if attendance < m.RequiredDays {
			break
		}
		if next.HasSkin(m.SkinID) {
			continue
		}
		next.UnlockedSkins = append(next.UnlockedSkins, m.SkinID)
		unlocked = append(unlocked, m.SkinID)
	}
	if len(unlocked) > 0 {
		next.UpdatedAt = now.UTC()
	}
	return next, unlocked
}

// SelectSkin sets the selected skin. It refuses skins that are not unlocked.
func (e *Engine) SelectSkin(state *domain.RewardsState, skinID string, now time.Time) (*domain.RewardsState, error) {
	next := e.Normalize(state, now)
	if !next.HasSkin(skinID) {
		return nil, domain.NewValidationError("skin_id", "skin "+skinID+" is not unlocked", domain.ErrSkinNotUnlocked)
	}
	next.SelectedSkinID = skinID
	next.UpdatedAt = now.UTC()
	return next, nil
}

// NextMilestone returns the first milestone attendance has not reached.
func (e *Engine) NextMilestone(attendance int) (Milestone, bool) {
	for _, m := range e.milestones {
		if attendance < m.RequiredDays {
			return m, true
		}
	}
	return Milestone{}, false
}

// Normalize returns a copy of state with duplicates removed, the default skin
// present, and a selected skin that is a member of the unlocked set.
func (e *Engine) Normalize(state *domain.RewardsState, now time.Time) *domain.RewardsState {
	if state == nil {
		return domain.NewRewardsState(now)
	}
	next := &domain.RewardsState{
		UnlockedSkins:  make([]string, 0, len(state.UnlockedSkins)+1),
		SelectedSkinID: state.SelectedSkinID,
		UpdatedAt:      state.UpdatedAt,
	}
	seen := map[string]struct{}{}
	add := func(id string) {
		if _, ok := seen[id]; ok || id == "" {
			return
		}
		seen[id] = struct{}{}
		next.UnlockedSkins = append(next.UnlockedSkins, id)
	}
	add(domain.DefaultSkinID)
	for _, id := range state.UnlockedSkins {
		add(id)
	}
	if !next.HasSkin(next.SelectedSkinID) {
		next.SelectedSkinID = domain.DefaultSkinID
	}
	return next
}
