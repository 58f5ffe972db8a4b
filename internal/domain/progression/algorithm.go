package progression

import (
	"time"

	"github.com/phrazzld/arcana/internal/calendar"
	"github.com/phrazzld/arcana/internal/domain"
)

// XPAward is the result of a single addXP operation.
type XPAward struct {
	Event         domain.XPEvent `json:"event"`
	LeveledUp     bool           `json:"leveled_up"`
	PreviousLevel int            `json:"previous_level"`
	Level         int            `json:"level"`
	// Unlocks lists topic and feature identifiers reached by this award.
	Unlocks []string `json:"unlocks"`
}

// Progress describes the position within the current level.
type Progress struct {
	Current    int `json:"current"`
	Needed     int `json:"needed"`
	Percentage int `json:"percentage"`
}

// calculateStreakBonus returns the streak surcharge for a base award. It is
// zero for a zero base or an empty streak and never decreases as the streak grows.
func calculateStreakBonus(base, streak int, params *Params) int {
	if base <= 0 || streak <= 0 {
		return 0
	}
	if streak > params.StreakBonusCapDays {
		streak = params.StreakBonusCapDays
	}
	return base * streak * params.StreakBonusPercent / 100
}

// cascadeLevels moves surplus XP into levels until the invariant
// currentXP < XPRequiredForLevel(level) holds or MaxLevel is reached.
// It returns the unlocks collected on the way.
func cascadeLevels(state *domain.CharacterState, params *Params) []string {
	unlocks := []string{}
	for state.Level < params.MaxLevel && state.CurrentXP >= params.XPRequiredForLevel(state.Level) {
		state.CurrentXP -= params.XPRequiredForLevel(state.Level)
		state.Level++
		unlocks = append(unlocks, params.UnlocksAtLevel(state.Level)...)
	}
	return unlocks
}

// calculateXPAward returns a new state with the award applied, leaving the
// original untouched.
func calculateXPAward(
	state *domain.CharacterState,
	source domain.XPSource,
	base int,
	now time.Time,
	params *Params,
) (*domain.CharacterState, *XPAward) {
	next := *state
	if base < 0 {
		base = 0
	}

	bonus := calculateStreakBonus(base, state.Streak.Current, params)
	total := base + bonus

	next.CurrentXP += total
	next.TotalXP += total
	next.UpdatedAt = now.UTC()

	unlocks := cascadeLevels(&next, params)

	award := &XPAward{
		Event: domain.XPEvent{
			Source:      source,
			Amount:      base,
			BonusAmount: bonus,
			TotalAmount: total,
			Timestamp:   now.UTC(),
		},
		LeveledUp:     next.Level > state.Level,
		PreviousLevel: state.Level,
		Level:         next.Level,
		Unlocks:       unlocks,
	}
	return &next, award
}

// calculateStreak returns a new state with today's activity counted. The
// boolean reports whether anything changed.
func calculateStreak(state *domain.CharacterState, today string) (*domain.CharacterState, bool) {
	if state.Streak.LastActiveDate == today {
		return state, false
	}

	next := *state
	diff := 0
	if state.Streak.LastActiveDate != "" {
		if d, err := calendar.DaysBetween(state.Streak.LastActiveDate, today); err == nil {
			diff = d
		}
	}

	if diff == 1 {
		next.Streak.Current++
	} else {
		next.Streak.Current = 1
	}
	if next.Streak.Current > next.Streak.Longest {
		next.Streak.Longest = next.Streak.Current
	}
	next.Streak.LastActiveDate = today
	return &next, true
}

// normalizeState clamps malformed persisted values into the valid range.
func normalizeState(state *domain.CharacterState, params *Params) *domain.CharacterState {
	next := *state
	if next.Level < 1 {
		next.Level = 1
	}
	if next.Level > params.MaxLevel {
		next.Level = params.MaxLevel
	}
	if next.CurrentXP < 0 {
		next.CurrentXP = 0
	}
	if next.TotalXP < 0 {
		next.TotalXP = 0
	}
	if next.Streak.Current < 0 {
		next.Streak.Current = 0
	}
	if next.Streak.Longest < next.Streak.Current {
		next.Streak.Longest = next.Streak.Current
	}
	if next.Streak.LastActiveDate != "" && !calendar.IsDateKey(next.Streak.LastActiveDate) {
		next.Streak.LastActiveDate = ""
	}
	cascadeLevels(&next, params)
	if next.TotalXP < next.CurrentXP {
		next.TotalXP = next.CurrentXP
	}
	return &next
}

func calculateProgress(state *domain.CharacterState, params *Params) Progress {
	if state.Level >= params.MaxLevel {
		return Progress{Current: state.CurrentXP, Needed: 0, Percentage: 100}
	}
	needed := params.XPRequiredForLevel(state.Level)
	pct := 0
	if needed > 0 {
		pct = state.CurrentXP * 100 / needed
	}
	return Progress{Current: state.CurrentXP, Needed: needed, Percentage: pct}
}

func stageForLevel(level int, params *Params) Stage {
	stage := params.Stages[0].Stage
	for _, s := range params.Stages {
		if level >= s.MinLevel {
			stage = s.Stage
		}
	}
	return stage
}
