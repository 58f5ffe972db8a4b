package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/calendar"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/domain/gating"
	"github.com/phrazzld/arcana/internal/domain/pattern"
	"github.com/phrazzld/arcana/internal/domain/progression"
	"github.com/phrazzld/arcana/internal/interpretation"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/platform/ratelimit"
	"github.com/phrazzld/arcana/internal/store"
)

// Input limits, counted in runes.
const (
	MaxQuestionLength   = 500
	MaxReflectionLength = 4000
	MaxMoodLength       = 32
)

// Gating actions reported in decisions and events.
const (
	ActionSpread    = "spread"
	ActionClarifier = "clarifier"
)

// DrawResult is the outcome of the daily draw.
type DrawResult struct {
	Draw      *domain.DailyDraw      `json:"draw"`
	Card      domain.Card            `json:"card"`
	Created   bool                   `json:"created"`
	Award     *progression.XPAward   `json:"award,omitempty"`
	NewSkins  []string               `json:"new_skins,omitempty"`
	Character *domain.CharacterState `json:"character,omitempty"`
}

// CreateSpreadInput describes a spread request.
type CreateSpreadInput struct {
	Topic    string
	Question string
	// AdRewardEarned reports that the caller completed an ad for this action.
	AdRewardEarned bool
}

// SpreadResult is the outcome of an operation that changed a spread.
type SpreadResult struct {
	Spread    *domain.SpreadRecord   `json:"spread"`
	Decision  *gating.Decision       `json:"decision,omitempty"`
	Award     *progression.XPAward   `json:"award,omitempty"`
	NewSkins  []string               `json:"new_skins,omitempty"`
	Character *domain.CharacterState `json:"character,omitempty"`
}

// InterpretInput selects which reading of a spread to interpret.
type InterpretInput struct {
	Kind   interpretation.Kind
	Locale string
}

// ReadingService runs the daily draw and the spread lifecycle.
type ReadingService struct {
	core
	interpreter interpretation.Interpreter
	limiter     ratelimit.Limiter
}

// NewReadingService creates a ReadingService. A nil interpreter disables
// interpretation and a nil limiter allows every call.
func NewReadingService(
	deps Deps,
	interpreter interpretation.Interpreter,
	limiter ratelimit.Limiter,
) (*ReadingService, error) {
	c, err := newCore(deps, "reading_service")
	if err != nil {
		return nil, err
	}
	if interpreter == nil {
		interpreter = interpretation.Disabled("no interpreter configured")
	}
	if limiter == nil {
		limiter = ratelimit.AllowAll()
	}
	return &ReadingService{core: c, interpreter: interpreter, limiter: limiter}, nil
}

// DailyDraw returns the player's card of the day, drawing it on first request.
// The daily_draw award and the streak update happen once per local day.
func (s *ReadingService) DailyDraw(ctx context.Context, playerID uuid.UUID) (*DrawResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now, today, _, err := s.now(ctx, playerID)
	if err != nil {
		return nil, NewServiceError("reading", "daily_draw", err)
	}

	unlock, err := s.lock(ctx,
		store.CharacterKey(playerID),
		store.RewardsKey(playerID),
		store.DrawKey(playerID, today))
	if err != nil {
		return nil, NewServiceError("reading", "daily_draw", err)
	}
	defer unlock()

	p, err := s.loadPlayer(ctx, playerID, now)
	if err != nil {
		return nil, NewServiceError("reading", "daily_draw", err)
	}

	draw, err := s.records.GetDraw(ctx, playerID, today)
	if err != nil && !errors.Is(err, store.ErrDrawNotFound) {
		return nil, NewServiceError("reading", "daily_draw", err)
	}
	if draw != nil && draw.XPAwardedAt != nil {
		return s.drawResult(draw, false, nil, nil, p.character)
	}

	if draw == nil {
		cards, err := s.engines.Sampler.DrawCards(1)
		if err != nil {
			return nil, NewServiceError("reading", "daily_draw", err)
		}
		draw = &domain.DailyDraw{DateKey: today, Card: cards[0], CreatedAt: now.UTC()}
	}

	act, err := s.recordActivity(ctx, p, today, now)
	if err != nil {
		return nil, NewServiceError("reading", "daily_draw", err)
	}
	award, err := s.awardXP(p, domain.XPSourceDailyDraw, now)
	if err != nil {
		return nil, NewServiceError("reading", "daily_draw", err)
	}
	stamp := now.UTC()
	draw.XPAwardedAt = &stamp

	batch := store.NewBatch().
		PutDraw(playerID, draw).
		PutCharacter(p.character).
		PutRewards(playerID, p.rewards)
	if err := s.records.Commit(ctx, batch); err != nil {
		log.Error("failed to store daily draw",
			slog.String("player_id", playerID.String()),
			slog.String("date", today),
			slog.String("error", err.Error()))
		return nil, NewServiceError("reading", "daily_draw", err)
	}

	s.emitAward(ctx, playerID, award)
	s.emitActivity(ctx, playerID, act)

	log.Debug("daily draw created",
		slog.String("player_id", playerID.String()),
		slog.String("date", today),
		slog.Int("card_id", draw.Card.CardID))
	return s.drawResult(draw, true, award, act.NewSkins, p.character)
}

func (s *ReadingService) drawResult(
	draw *domain.DailyDraw,
	created bool,
	award *progression.XPAward,
	newSkins []string,
	character *domain.CharacterState,
) (*DrawResult, error) {
	card, ok := s.engines.Deck.Card(draw.Card.CardID)
	if !ok {
		return nil, NewServiceError("reading", "daily_draw",
			fmt.Errorf("%w: unknown card %d", store.ErrInvalidEntity, draw.Card.CardID))
	}
	return &DrawResult{
		Draw:      draw,
		Card:      card,
		Created:   created,
		Award:     award,
		NewSkins:  newSkins,
		Character: character,
	}, nil
}

// CreateSpread draws a three-card spread on an unlocked topic. The day's
// first spread is free; later ones need an ad reward and are subject to the
// daily quota and the ad cooldown.
func (s *ReadingService) CreateSpread(
	ctx context.Context,
	playerID uuid.UUID,
	in CreateSpreadInput,
) (*SpreadResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	topic, err := domain.ParseTopic(in.Topic)
	if err != nil {
		return nil, NewServiceError("reading", "create_spread", err)
	}
	question, err := cleanText("question", in.Question, MaxQuestionLength, false)
	if err != nil {
		return nil, NewServiceError("reading", "create_spread", err)
	}

	now, today, _, err := s.now(ctx, playerID)
	if err != nil {
		return nil, NewServiceError("reading", "create_spread", err)
	}
	unlock, err := s.lock(ctx,
		store.CharacterKey(playerID),
		store.RewardsKey(playerID),
		store.GatingKey(playerID, today))
	if err != nil {
		return nil, NewServiceError("reading", "create_spread", err)
	}
	defer unlock()

	p, err := s.loadPlayer(ctx, playerID, now)
	if err != nil {
		return nil, NewServiceError("reading", "create_spread", err)
	}
	if !s.engines.Progression.IsTopicUnlocked(topic, p.character.Level) {
		return nil, NewServiceError("reading", "create_spread", domain.NewValidationError("topic",
			fmt.Sprintf("topic %s unlocks at level %d", topic, s.engines.Progression.UnlockLevel(topic)),
			domain.ErrTopicLocked))
	}

	g, err := s.loadGating(ctx, playerID, today)
	if err != nil {
		return nil, NewServiceError("reading", "create_spread", err)
	}
	decision := s.engines.Gating.DecideSpread(g, now)
	if err := newGatingError(ActionSpread, decision, in.AdRewardEarned); err != nil {
		s.emitDecision(ctx, playerID, ActionSpread, decision)
		return nil, err
	}

	access := domain.AccessFree
	if decision.Kind == gating.KindFree {
		g = s.engines.Gating.UseFreeSpread(g, today)
	} else {
		access = domain.AccessAdGated
		g = s.engines.Gating.UseAnotherTopic(g, today, now)
	}

	drawn, err := s.engines.Sampler.DrawCards(domain.SpreadSize)
	if err != nil {
		return nil, NewServiceError("reading", "create_spread", err)
	}
	cards := positionCards(drawn)
	code, err := pattern.Classify(orientations(cards))
	if err != nil {
		return nil, NewServiceError("reading", "create_spread", err)
	}
	modifier, err := pattern.ModifierForTopic(topic)
	if err != nil {
		return nil, NewServiceError("reading", "create_spread", err)
	}

	rec := &domain.SpreadRecord{
		ID:        uuid.New(),
		PlayerID:  playerID,
		DateKey:   today,
		Topic:     topic,
		Cards:     cards,
		Pattern:   code,
		Modifier:  modifier,
		Question:  question,
		Access:    access,
		CreatedAt: now.UTC(),
	}

	act, err := s.recordActivity(ctx, p, today, now)
	if err != nil {
		return nil, NewServiceError("reading", "create_spread", err)
	}

	batch := store.NewBatch().
		PutSpread(rec).
		PutGating(playerID, g).
		PutCharacter(p.character).
		PutRewards(playerID, p.rewards)
	if err := s.records.Commit(ctx, batch); err != nil {
		log.Error("failed to store spread",
			slog.String("player_id", playerID.String()),
			slog.String("topic", string(topic)),
			slog.String("error", err.Error()))
		return nil, NewServiceError("reading", "create_spread", err)
	}

	s.emitDecision(ctx, playerID, ActionSpread, decision)
	s.emitSpreadCreated(ctx, rec)
	s.emitActivity(ctx, playerID, act)

	log.Info("spread created",
		slog.String("player_id", playerID.String()),
		slog.String("spread_id", rec.ID.String()),
		slog.String("topic", string(topic)),
		slog.String("access", string(access)),
		slog.String("pattern", string(code)))

	return &SpreadResult{
		Spread:    rec,
		Decision:  &decision,
		NewSkins:  act.NewSkins,
		Character: p.character,
	}, nil
}

// CompleteSpread marks a spread as read and awards spread_completion XP.
// The award is made at most once per spread; later calls return the spread
// without an award.
func (s *ReadingService) CompleteSpread(ctx context.Context, playerID, spreadID uuid.UUID) (*SpreadResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.clock.Now()

	unlock, err := s.lock(ctx, store.CharacterKey(playerID), store.SpreadIndexKey(playerID, spreadID))
	if err != nil {
		return nil, NewServiceError("reading", "complete_spread", err)
	}
	defer unlock()

	p, err := s.loadPlayer(ctx, playerID, now)
	if err != nil {
		return nil, NewServiceError("reading", "complete_spread", err)
	}
	rec, err := s.loadSpread(ctx, playerID, spreadID)
	if err != nil {
		return nil, NewServiceError("reading", "complete_spread", err)
	}
	if rec.XPAwardedAt != nil {
		return &SpreadResult{Spread: rec, Character: p.character}, nil
	}

	award, err := s.awardXP(p, domain.XPSourceSpreadCompletion, now)
	if err != nil {
		return nil, NewServiceError("reading", "complete_spread", err)
	}
	stamp := now.UTC()
	rec.XPAwardedAt = &stamp

	if err := s.records.Commit(ctx, store.NewBatch().PutSpread(rec).PutCharacter(p.character)); err != nil {
		log.Error("failed to complete spread",
			slog.String("spread_id", spreadID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("reading", "complete_spread", err)
	}

	s.emitAward(ctx, playerID, award)
	return &SpreadResult{Spread: rec, Award: award, Character: p.character}, nil
}

// AddClarifier draws one extra card for a spread, excluding every card the
// spread already shows. Clarifiers need the clarifier feature, are always
// ad-gated and can be drawn once per spread.
func (s *ReadingService) AddClarifier(
	ctx context.Context,
	playerID, spreadID uuid.UUID,
	adRewardEarned bool,
) (*SpreadResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now, today, _, err := s.now(ctx, playerID)
	if err != nil {
		return nil, NewServiceError("reading", "add_clarifier", err)
	}

	unlock, err := s.lock(ctx,
		store.CharacterKey(playerID),
		store.GatingKey(playerID, today),
		store.SpreadIndexKey(playerID, spreadID))
	if err != nil {
		return nil, NewServiceError("reading", "add_clarifier", err)
	}
	defer unlock()

	p, err := s.loadPlayer(ctx, playerID, now)
	if err != nil {
		return nil, NewServiceError("reading", "add_clarifier", err)
	}
	if err := s.requireFeature(domain.FeatureClarifier, p.character.Level); err != nil {
		return nil, NewServiceError("reading", "add_clarifier", err)
	}
	rec, err := s.loadSpread(ctx, playerID, spreadID)
	if err != nil {
		return nil, NewServiceError("reading", "add_clarifier", err)
	}
	if rec.Clarifier != nil {
		return nil, NewServiceError("reading", "add_clarifier",
			domain.NewValidationError("clarifier", "clarifier already drawn", domain.ErrAlreadySet))
	}

	g, err := s.loadGating(ctx, playerID, today)
	if err != nil {
		return nil, NewServiceError("reading", "add_clarifier", err)
	}
	decision := s.engines.Gating.DecideClarifier(g, now)
	if err := newGatingError(ActionClarifier, decision, adRewardEarned); err != nil {
		s.emitDecision(ctx, playerID, ActionClarifier, decision)
		return nil, err
	}

	drawn, err := s.engines.Sampler.DrawCardsExcluding(1, rec.ShownCardIDs())
	if err != nil {
		return nil, NewServiceError("reading", "add_clarifier", err)
	}
	rec.Clarifier = &drawn[0]
	g = s.engines.Gating.UseClarifier(g, today, now)

	if err := s.records.Commit(ctx, store.NewBatch().PutSpread(rec).PutGating(playerID, g)); err != nil {
		log.Error("failed to store clarifier",
			slog.String("spread_id", spreadID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("reading", "add_clarifier", err)
	}

	s.emitDecision(ctx, playerID, ActionClarifier, decision)
	return &SpreadResult{Spread: rec, Decision: &decision}, nil
}

// AddFollowUp draws a deep reading of three new cards for a spread and
// awards deep_spread XP. It needs the deep reading feature and can be done
// once per spread.
func (s *ReadingService) AddFollowUp(
	ctx context.Context,
	playerID, spreadID uuid.UUID,
	question string,
) (*SpreadResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	question, err := cleanText("question", question, MaxQuestionLength, false)
	if err != nil {
		return nil, NewServiceError("reading", "add_follow_up", err)
	}

	now := s.clock.Now()
	unlock, err := s.lock(ctx, store.CharacterKey(playerID), store.SpreadIndexKey(playerID, spreadID))
	if err != nil {
		return nil, NewServiceError("reading", "add_follow_up", err)
	}
	defer unlock()

	p, err := s.loadPlayer(ctx, playerID, now)
	if err != nil {
		return nil, NewServiceError("reading", "add_follow_up", err)
	}
	if err := s.requireFeature(domain.FeatureDeepReading, p.character.Level); err != nil {
		return nil, NewServiceError("reading", "add_follow_up", err)
	}
	rec, err := s.loadSpread(ctx, playerID, spreadID)
	if err != nil {
		return nil, NewServiceError("reading", "add_follow_up", err)
	}
	if rec.FollowUp != nil {
		return nil, NewServiceError("reading", "add_follow_up",
			domain.NewValidationError("follow_up", "follow-up already drawn", domain.ErrAlreadySet))
	}

	drawn, err := s.engines.Sampler.DrawCardsExcluding(domain.SpreadSize, rec.ShownCardIDs())
	if err != nil {
		return nil, NewServiceError("reading", "add_follow_up", err)
	}
	cards := positionCards(drawn)
	code, err := pattern.Classify(orientations(cards))
	if err != nil {
		return nil, NewServiceError("reading", "add_follow_up", err)
	}

	award, err := s.awardXP(p, domain.XPSourceDeepSpread, now)
	if err != nil {
		return nil, NewServiceError("reading", "add_follow_up", err)
	}
	stamp := now.UTC()
	rec.FollowUp = &domain.FollowUp{
		Question:    question,
		Cards:       cards,
		Pattern:     code,
		CreatedAt:   stamp,
		XPAwardedAt: &stamp,
	}

	if err := s.records.Commit(ctx, store.NewBatch().PutSpread(rec).PutCharacter(p.character)); err != nil {
		log.Error("failed to store follow-up",
			slog.String("spread_id", spreadID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("reading", "add_follow_up", err)
	}

	s.emitAward(ctx, playerID, award)
	return &SpreadResult{Spread: rec, Award: award, Character: p.character}, nil
}

// SaveReflection stores the player's journal entry for a spread. Saving again
// overwrites the text; journal_entry XP is awarded on the first save only.
func (s *ReadingService) SaveReflection(
	ctx context.Context,
	playerID, spreadID uuid.UUID,
	text, mood string,
) (*SpreadResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	text, err := cleanText("text", text, MaxReflectionLength, true)
	if err != nil {
		return nil, NewServiceError("reading", "save_reflection", err)
	}
	mood, err = cleanText("mood", mood, MaxMoodLength, false)
	if err != nil {
		return nil, NewServiceError("reading", "save_reflection", err)
	}

	now := s.clock.Now()
	unlock, err := s.lock(ctx, store.CharacterKey(playerID), store.SpreadIndexKey(playerID, spreadID))
	if err != nil {
		return nil, NewServiceError("reading", "save_reflection", err)
	}
	defer unlock()

	p, err := s.loadPlayer(ctx, playerID, now)
	if err != nil {
		return nil, NewServiceError("reading", "save_reflection", err)
	}
	rec, err := s.loadSpread(ctx, playerID, spreadID)
	if err != nil {
		return nil, NewServiceError("reading", "save_reflection", err)
	}

	stamp := now.UTC()
	batch := store.NewBatch()
	var award *progression.XPAward
	if rec.Reflection == nil {
		rec.Reflection = &domain.Reflection{CreatedAt: stamp}
	}
	rec.Reflection.Text = text
	rec.Reflection.Mood = mood
	rec.Reflection.UpdatedAt = stamp
	if rec.Reflection.XPAwardedAt == nil {
		award, err = s.awardXP(p, domain.XPSourceJournalEntry, now)
		if err != nil {
			return nil, NewServiceError("reading", "save_reflection", err)
		}
		rec.Reflection.XPAwardedAt = &stamp
		batch.PutCharacter(p.character)
	}
	batch.PutSpread(rec)

	if err := s.records.Commit(ctx, batch); err != nil {
		log.Error("failed to store reflection",
			slog.String("spread_id", spreadID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("reading", "save_reflection", err)
	}

	s.emitAward(ctx, playerID, award)
	return &SpreadResult{Spread: rec, Award: award, Character: p.character}, nil
}

// GetSpread returns one of the player's spreads.
func (s *ReadingService) GetSpread(ctx context.Context, playerID, spreadID uuid.UUID) (*domain.SpreadRecord, error) {
	rec, err := s.loadSpread(ctx, playerID, spreadID)
	if err != nil {
		return nil, NewServiceError("reading", "get_spread", err)
	}
	return rec, nil
}

// ListSpreads returns the spreads created on dateKey, or on the player's
// local today when dateKey is empty.
func (s *ReadingService) ListSpreads(
	ctx context.Context,
	playerID uuid.UUID,
	dateKey string,
) ([]*domain.SpreadRecord, error) {
	if dateKey == "" {
		var err error
		if _, dateKey, _, err = s.now(ctx, playerID); err != nil {
			return nil, NewServiceError("reading", "list_spreads", err)
		}
	}
	if !calendar.IsDateKey(dateKey) {
		return nil, NewServiceError("reading", "list_spreads",
			domain.NewValidationError("date", "date must be YYYY-MM-DD", domain.ErrInvalidFormat))
	}
	spreads, err := s.records.ListSpreadsByDate(ctx, playerID, dateKey)
	if err != nil {
		return nil, NewServiceError("reading", "list_spreads", err)
	}
	return spreads, nil
}

// GetDailyDraw returns the player's draw for dateKey without creating one.
func (s *ReadingService) GetDailyDraw(ctx context.Context, playerID uuid.UUID, dateKey string) (*DrawResult, error) {
	if !calendar.IsDateKey(dateKey) {
		return nil, NewServiceError("reading", "get_daily_draw",
			domain.NewValidationError("date", "date must be YYYY-MM-DD", domain.ErrInvalidFormat))
	}
	draw, err := s.records.GetDraw(ctx, playerID, dateKey)
	if err != nil {
		return nil, NewServiceError("reading", "get_daily_draw", err)
	}
	return s.drawResult(draw, false, nil, nil, nil)
}

func (s *ReadingService) requireFeature(feature domain.Feature, level int) error {
	if s.engines.Progression.IsFeatureUnlocked(feature, level) {
		return nil
	}
	return domain.NewValidationError(string(feature),
		fmt.Sprintf("%s is not unlocked at level %d", feature, level), domain.ErrFeatureLocked)
}

func positionCards(drawn []domain.DrawnCard) []domain.SpreadCard {
	cards := make([]domain.SpreadCard, len(drawn))
	for i, d := range drawn {
		cards[i] = domain.SpreadCard{Position: domain.SpreadPositions[i], DrawnCard: d}
	}
	return cards
}

func orientations(cards []domain.SpreadCard) []domain.Orientation {
	out := make([]domain.Orientation, len(cards))
	for i, c := range cards {
		out[i] = c.Orientation
	}
	return out
}

// cleanText trims s and checks its length in runes.
func cleanText(field, s string, limit int, required bool) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" && required {
		return "", domain.NewValidationError(field, "cannot be empty", domain.ErrEmptyContent)
	}
	if utf8.RuneCountInString(s) > limit {
		return "", domain.NewValidationError(field, fmt.Sprintf("must be at most %d characters", limit), domain.ErrValidation)
	}
	return s, nil
}
