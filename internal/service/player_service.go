package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/calendar"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/domain/progression"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/store"
)

// TopicStatus describes whether a topic is available at the player's level.
type TopicStatus struct {
	Topic       domain.Topic `json:"topic"`
	Unlocked    bool         `json:"unlocked"`
	UnlockLevel int          `json:"unlock_level"`
}

// Profile is the derived view of a player's progression.
type Profile struct {
	PlayerID  uuid.UUID               `json:"player_id"`
	Character *domain.CharacterState  `json:"character"`
	Stage     progression.Stage       `json:"stage"`
	Progress  progression.Progress    `json:"progress"`
	MaxLevel  int                     `json:"max_level"`
	Topics    []TopicStatus           `json:"topics"`
	Features  map[domain.Feature]bool `json:"features"`
	Rewards   *domain.RewardsState    `json:"rewards"`
}

// PlayerService registers players and reports or resets their state.
type PlayerService struct {
	core
}

// NewPlayerService creates a PlayerService.
func NewPlayerService(deps Deps) (*PlayerService, error) {
	c, err := newCore(deps, "player_service")
	if err != nil {
		return nil, err
	}
	return &PlayerService{core: c}, nil
}

// Register creates a new player at level 1 owning only the default skin. The
// zone carried by ctx becomes the player's pinned time zone.
func (s *PlayerService) Register(ctx context.Context) (*Profile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.clock.Now()
	playerID := uuid.New()

	character := domain.NewCharacterState(playerID, now)
	character.Timezone = calendar.LocationFromContext(ctx).String()
	rewards := domain.NewRewardsState(now)

	batch := store.NewBatch().
		PutCharacter(character).
		PutRewards(playerID, rewards)
	if err := s.records.Commit(ctx, batch); err != nil {
		log.Error("failed to register player", slog.String("error", err.Error()))
		return nil, NewServiceError("player", "register", err)
	}

	log.Info("player registered",
		slog.String("player_id", playerID.String()),
		slog.String("timezone", character.Timezone))
	return s.profile(&player{id: playerID, character: character, rewards: rewards}), nil
}

// GetProfile returns the player's derived progression view.
func (s *PlayerService) GetProfile(ctx context.Context, playerID uuid.UUID) (*Profile, error) {
	now := s.clock.Now()
	p, err := s.loadPlayer(ctx, playerID, now)
	if err != nil {
		return nil, NewServiceError("player", "get_profile", err)
	}
	return s.profile(p), nil
}

// Reset deletes every record the player owns and returns how many keys were
// removed. The player must register again afterwards.
func (s *PlayerService) Reset(ctx context.Context, playerID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	unlock, err := s.lock(ctx, store.CharacterKey(playerID), store.RewardsKey(playerID))
	if err != nil {
		return 0, NewServiceError("player", "reset", err)
	}
	defer unlock()

	if _, err := s.records.GetCharacter(ctx, playerID); err != nil {
		return 0, NewServiceError("player", "reset", err)
	}

	removed, err := s.records.DeletePlayer(ctx, playerID)
	if err != nil {
		log.Error("failed to reset player",
			slog.String("player_id", playerID.String()),
			slog.String("error", err.Error()))
		return 0, NewServiceError("player", "reset", err)
	}

	log.Info("player reset",
		slog.String("player_id", playerID.String()),
		slog.Int("removed_keys", removed))
	return removed, nil
}

func (s *PlayerService) profile(p *player) *Profile {
	prog := s.engines.Progression
	level := p.character.Level

	topics := make([]TopicStatus, 0, len(domain.Topics()))
	for _, topic := range domain.Topics() {
		topics = append(topics, TopicStatus{
			Topic:       topic,
			Unlocked:    prog.IsTopicUnlocked(topic, level),
			UnlockLevel: prog.UnlockLevel(topic),
		})
	}

	return &Profile{
		PlayerID:  p.id,
		Character: p.character,
		Stage:     prog.EvolutionStage(level),
		Progress:  prog.XPProgress(p.character),
		MaxLevel:  prog.MaxLevel(),
		Topics:    topics,
		Features: map[domain.Feature]bool{
			domain.FeatureClarifier:   prog.IsFeatureUnlocked(domain.FeatureClarifier, level),
			domain.FeatureDeepReading: prog.IsDeepReadingUnlocked(level),
		},
		Rewards: p.rewards,
	}
}
