package progression

import (
	"errors"
	"time"

	"github.com/phrazzld/arcana/internal/calendar"
	"github.com/phrazzld/arcana/internal/domain"
)

// Common errors
var (
	ErrNilState       = errors.New("character state cannot be nil")
	ErrUnknownSource  = errors.New("unknown XP source")
	ErrNegativeAmount = errors.New("XP amount cannot be negative")
)

// Service defines the interface for progression engine operations. Every
// method is pure: states are never modified in place.
type Service interface {
	// AddXP applies an award for source. A nil override uses the source's base value.
	// The engine does not deduplicate calls; callers guard against double awards.
	AddXP(
		state *domain.CharacterState,
		source domain.XPSource,
		override *int,
		now time.Time,
	) (*domain.CharacterState, *XPAward, error)

	// UpdateStreak counts activity on the local day today ("YYYY-MM-DD").
	UpdateStreak(state *domain.CharacterState, today string) (*domain.CharacterState, bool, error)

	// Normalize clamps a state read from storage into the valid range.
	Normalize(state *domain.CharacterState) *domain.CharacterState

	EvolutionStage(level int) Stage
	XPProgress(state *domain.CharacterState) Progress
	IsTopicUnlocked(topic domain.Topic, level int) bool
	IsFeatureUnlocked(feature domain.Feature, level int) bool
	IsDeepReadingUnlocked(level int) bool

	// UnlockLevel returns the level at which topic becomes available.
	UnlockLevel(topic domain.Topic) int
	XPRequiredForLevel(level int) int
	MaxLevel() int
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new progression service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new progression service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

func (s *defaultService) AddXP(
	state *domain.CharacterState,
	source domain.XPSource,
	override *int,
	now time.Time,
) (*domain.CharacterState, *XPAward, error) {
	if state == nil {
		return nil, nil, ErrNilState
	}

	base, ok := s.params.BaseXP[source]
	if !ok {
		return nil, nil, ErrUnknownSource
	}
	if override != nil {
		if *override < 0 {
			return nil, nil, ErrNegativeAmount
		}
		base = *override
	}

	next, award := calculateXPAward(state, source, base, now, s.params)
	return next, award, nil
}

func (s *defaultService) UpdateStreak(
	state *domain.CharacterState,
	today string,
) (*domain.CharacterState, bool, error) {
	if state == nil {
		return nil, false, ErrNilState
	}
	if !calendar.IsDateKey(today) {
		return nil, false, calendar.ErrInvalidDateKey
	}

	next, changed := calculateStreak(state, today)
	return next, changed, nil
}

func (s *defaultService) Normalize(state *domain.CharacterState) *domain.CharacterState {
	if state == nil {
		return nil
	}
	return normalizeState(state, s.params)
}

func (s *defaultService) EvolutionStage(level int) Stage {
	return stageForLevel(level, s.params)
}

func (s *defaultService) XPProgress(state *domain.CharacterState) Progress {
	if state == nil {
		return Progress{}
	}
	return calculateProgress(state, s.params)
}

func (s *defaultService) IsTopicUnlocked(topic domain.Topic, level int) bool {
	required, ok := s.params.TopicUnlockLevels[topic]
	return ok && level >= required
}

func (s *defaultService) IsFeatureUnlocked(feature domain.Feature, level int) bool {
	required, ok := s.params.FeatureUnlockLevels[feature]
	return ok && level >= required
}

func (s *defaultService) IsDeepReadingUnlocked(level int) bool {
	return s.IsFeatureUnlocked(domain.FeatureDeepReading, level)
}

func (s *defaultService) UnlockLevel(topic domain.Topic) int {
	return s.params.TopicUnlockLevels[topic]
}

func (s *defaultService) XPRequiredForLevel(level int) int {
	return s.params.XPRequiredForLevel(level)
}

func (s *defaultService) MaxLevel() int {
	return s.params.MaxLevel
}
