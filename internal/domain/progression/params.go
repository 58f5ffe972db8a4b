package progression

import (
	"github.com/phrazzld/arcana/internal/domain"
)

// Stage is a character's evolution stage, derived from its level.
type Stage string

const (
	StageSeed      Stage = "seed"
	StageSprout    Stage = "sprout"
	StageBloom     Stage = "bloom"
	StageRadiant   Stage = "radiant"
	StageCelestial Stage = "celestial"
)

// StageThreshold is the lowest level at which a stage applies.
type StageThreshold struct {
	Stage    Stage
	MinLevel int
}

// Params defines all configurable parameters for the progression engine
type Params struct {
	MaxLevel int

	// XP required to finish level l is BaseLevelXP + LevelXPIncrement*(l-1).
	BaseLevelXP      int
	LevelXPIncrement int

	BaseXP map[domain.XPSource]int

	// Streak bonus is base * min(streak, StreakBonusCapDays) * StreakBonusPercent / 100.
	StreakBonusPercent int
	StreakBonusCapDays int

	TopicUnlockLevels   map[domain.Topic]int
	FeatureUnlockLevels map[domain.Feature]int

	// Stages must be ordered by ascending MinLevel, starting at level 1.
	Stages []StageThreshold
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MaxLevel         int
	BaseLevelXP      int
	LevelXPIncrement int

	DailyDrawXP        int
	SpreadCompletionXP int
	DeepSpreadXP       int
	JournalEntryXP     int

	StreakBonusPercent int
	StreakBonusCapDays int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MaxLevel:         30,
		BaseLevelXP:      100,
		LevelXPIncrement: 50,

		BaseXP: map[domain.XPSource]int{
			domain.XPSourceDailyDraw:        20,
			domain.XPSourceSpreadCompletion: 50,
			domain.XPSourceDeepSpread:       80,
			domain.XPSourceJournalEntry:     30,
			domain.XPSourceStreakBonus:      0,
		},

		StreakBonusPercent: 5,
		StreakBonusCapDays: 10,

		TopicUnlockLevels: map[domain.Topic]int{
			domain.TopicGeneral:      1,
			domain.TopicLove:         1,
			domain.TopicCareer:       3,
			domain.TopicMoney:        5,
			domain.TopicHealth:       7,
			domain.TopicRelationship: 10,
		},
		FeatureUnlockLevels: map[domain.Feature]int{
			domain.FeatureClarifier:   2,
			domain.FeatureDeepReading: 5,
		},

		Stages: []StageThreshold{
			{Stage: StageSeed, MinLevel: 1},
			{Stage: StageSprout, MinLevel: 5},
			{Stage: StageBloom, MinLevel: 10},
			{Stage: StageRadiant, MinLevel: 20},
			{Stage: StageCelestial, MinLevel: 30},
		},
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MaxLevel > 0 {
		params.MaxLevel = config.MaxLevel
	}
	if config.BaseLevelXP > 0 {
		params.BaseLevelXP = config.BaseLevelXP
	}
	if config.LevelXPIncrement > 0 {
		params.LevelXPIncrement = config.LevelXPIncrement
	}

	if config.DailyDrawXP > 0 {
		params.BaseXP[domain.XPSourceDailyDraw] = config.DailyDrawXP
	}
	if config.SpreadCompletionXP > 0 {
		params.BaseXP[domain.XPSourceSpreadCompletion] = config.SpreadCompletionXP
	}
	if config.DeepSpreadXP > 0 {
		params.BaseXP[domain.XPSourceDeepSpread] = config.DeepSpreadXP
	}
	if config.JournalEntryXP > 0 {
		params.BaseXP[domain.XPSourceJournalEntry] = config.JournalEntryXP
	}

	if config.StreakBonusPercent > 0 {
		params.StreakBonusPercent = config.StreakBonusPercent
	}
	if config.StreakBonusCapDays > 0 {
		params.StreakBonusCapDays = config.StreakBonusCapDays
	}

	return params
}

// XPRequiredForLevel returns the XP needed to advance from level to level+1.
func (p *Params) XPRequiredForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return p.BaseLevelXP + p.LevelXPIncrement*(level-1)
}

// UnlocksAtLevel returns the topic and feature identifiers that become
// available exactly at level, topics first in display order.
func (p *Params) UnlocksAtLevel(level int) []string {
	var unlocks []string
	for _, topic := range domain.Topics() {
		if p.TopicUnlockLevels[topic] == level {
			unlocks = append(unlocks, string(topic))
		}
	}
	for _, feature := range []domain.Feature{domain.FeatureClarifier, domain.FeatureDeepReading} {
		if lvl, ok := p.FeatureUnlockLevels[feature]; ok && lvl == level {
			unlocks = append(unlocks, string(feature))
		}
	}
	return unlocks
}
