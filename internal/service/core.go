package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/calendar"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/domain/deck"
	"github.com/phrazzld/arcana/internal/domain/gating"
	"github.com/phrazzld/arcana/internal/domain/progression"
	"github.com/phrazzld/arcana/internal/domain/rewards"
	"github.com/phrazzld/arcana/internal/events"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/store"
)

// Engines bundles the stateless domain engines shared by the services.
type Engines struct {
	Progression progression.Service
	Gating      *gating.Engine
	Rewards     *rewards.Engine
	Deck        *deck.Deck
	Sampler     *deck.Sampler
}

// NewEngines builds the engines over d. A nil rng draws from the system source.
func NewEngines(d *deck.Deck, rng deck.RNG, gatingParams gating.Params) *Engines {
	return &Engines{
		Progression: progression.NewDefaultService(),
		Gating:      gating.NewEngine(gatingParams),
		Rewards:     rewards.NewDefaultEngine(),
		Deck:        d,
		Sampler:     deck.NewSampler(d.Size(), rng),
	}
}

// Deps holds the collaborators every service needs.
type Deps struct {
	Records *store.Records
	Locker  *store.KeyLocker
	Engines *Engines
	Events  events.EventEmitter
	Clock   calendar.Clock
	Logger  *slog.Logger
}

// core is embedded by each service. It owns locking, player loading and the
// shared activity bookkeeping.
type core struct {
	records *store.Records
	locker  *store.KeyLocker
	engines *Engines
	emitter events.EventEmitter
	clock   calendar.Clock
	logger  *slog.Logger
}

func newCore(deps Deps, component string) (core, error) {
	if deps.Records == nil {
		return core{}, &ServiceError{Service: component, Op: "create_service", Err: errors.New("records cannot be nil")}
	}
	if deps.Engines == nil || deps.Engines.Deck == nil || deps.Engines.Sampler == nil {
		return core{}, &ServiceError{Service: component, Op: "create_service", Err: errors.New("engines cannot be nil")}
	}

	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	locker := deps.Locker
	if locker == nil {
		locker = store.NewKeyLocker()
	}
	clock := deps.Clock
	if clock == nil {
		clock = calendar.SystemClock()
	}
	emitter := deps.Events
	if emitter == nil {
		emitter = events.NewDispatcher(log, nil)
	}

	return core{
		records: deps.Records,
		locker:  locker,
		engines: deps.Engines,
		emitter: emitter,
		clock:   clock,
		logger:  log.With(slog.String("component", component)),
	}, nil
}

// now returns the current instant and the player's local day. The day is
// computed in the zone pinned on the player's character; the zone carried by
// ctx only decides the pin for a character that has none yet.
func (c *core) now(ctx context.Context, playerID uuid.UUID) (time.Time, string, *time.Location, error) {
	loc, err := c.playerLocation(ctx, playerID)
	if err != nil {
		return time.Time{}, "", nil, err
	}
	now := c.clock.Now()
	return now, calendar.LocalDateKey(now, loc), loc, nil
}

func (c *core) playerLocation(ctx context.Context, playerID uuid.UUID) (*time.Location, error) {
	character, err := c.records.GetCharacter(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrCharacterNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if character.Timezone != "" {
		return c.loadLocation(ctx, character.Timezone), nil
	}
	return c.pinLocation(ctx, playerID)
}

// pinLocation stores the zone carried by ctx on a character that has none.
func (c *core) pinLocation(ctx context.Context, playerID uuid.UUID) (*time.Location, error) {
	unlock, err := c.lock(ctx, store.CharacterKey(playerID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	character, err := c.records.GetCharacter(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrCharacterNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if character.Timezone != "" {
		return c.loadLocation(ctx, character.Timezone), nil
	}

	loc := calendar.LocationFromContext(ctx)
	character.Timezone = loc.String()
	if err := c.records.Commit(ctx, store.NewBatch().PutCharacter(character)); err != nil {
		return nil, err
	}
	logger.FromContextOrDefault(ctx, c.logger).Info("player time zone pinned",
		slog.String("player_id", playerID.String()),
		slog.String("timezone", character.Timezone))
	return loc, nil
}

// loadLocation resolves a pinned zone name. A name the runtime cannot load
// falls back to UTC rather than to the request's zone.
func (c *core) loadLocation(ctx context.Context, name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("pinned time zone cannot be loaded, using UTC",
			slog.String("timezone", name),
			slog.String("error", err.Error()))
		return time.UTC
	}
	return loc
}

func (c *core) lock(ctx context.Context, keys ...string) (func(), error) {
	unlock, err := c.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire record lock: %w", err)
	}
	return unlock, nil
}

// player is a working copy of a player's long-lived state.
type player struct {
	id        uuid.UUID
	character *domain.CharacterState
	rewards   *domain.RewardsState
}

// loadPlayer reads and normalizes the player's character and rewards state.
// A missing rewards record is recreated with the default skin.
func (c *core) loadPlayer(ctx context.Context, playerID uuid.UUID, now time.Time) (*player, error) {
	character, err := c.records.GetCharacter(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrCharacterNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	rs, err := c.records.GetRewards(ctx, playerID)
	if err != nil && !errors.Is(err, store.ErrRewardsNotFound) {
		return nil, err
	}

	return &player{
		id:        playerID,
		character: c.engines.Progression.Normalize(character),
		rewards:   c.engines.Rewards.Normalize(rs, now),
	}, nil
}

// loadGating returns the day's gating record, or nil when the day has none.
func (c *core) loadGating(ctx context.Context, playerID uuid.UUID, dateKey string) (*domain.GatingState, error) {
	g, err := c.records.GetGating(ctx, playerID, dateKey)
	if err != nil {
		if errors.Is(err, store.ErrGatingNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}

func (c *core) loadSpread(ctx context.Context, playerID, spreadID uuid.UUID) (*domain.SpreadRecord, error) {
	rec, err := c.records.GetSpread(ctx, playerID, spreadID)
	if err != nil {
		if errors.Is(err, store.ErrSpreadNotFound) {
			return nil, ErrSpreadNotFound
		}
		return nil, err
	}
	return rec, nil
}

// activity is the result of counting a tracked action on a day.
type activity struct {
	StreakChanged bool
	Attendance    int
	NewSkins      []string
}

// recordActivity counts today for the streak and re-evaluates milestones
// against lifetime attendance including today.
func (c *core) recordActivity(ctx context.Context, p *player, today string, now time.Time) (*activity, error) {
	character, changed, err := c.engines.Progression.UpdateStreak(p.character, today)
	if err != nil {
		return nil, err
	}
	p.character = character

	dates, err := c.records.AttendanceDates(ctx, p.id)
	if err != nil {
		return nil, err
	}
	attendance := rewards.CountAttendance(append(dates, today), rewards.ScopeLifetime, "")

	var unlocked []string
	p.rewards, unlocked = c.engines.Rewards.CheckAndUnlock(p.rewards, attendance, now)

	return &activity{StreakChanged: changed, Attendance: attendance, NewSkins: unlocked}, nil
}

func (c *core) awardXP(p *player, source domain.XPSource, now time.Time) (*progression.XPAward, error) {
	character, award, err := c.engines.Progression.AddXP(p.character, source, nil, now)
	if err != nil {
		return nil, err
	}
	character.UpdatedAt = now.UTC()
	p.character = character
	return award, nil
}

func (c *core) emit(ctx context.Context, playerID uuid.UUID, eventType string, payload any) {
	if err := events.Emit(ctx, c.emitter, eventType, playerID, payload); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("failed to emit event",
			slog.String("event_type", eventType),
			slog.String("player_id", playerID.String()),
			slog.String("error", err.Error()))
	}
}

func (c *core) emitAward(ctx context.Context, playerID uuid.UUID, award *progression.XPAward) {
	if award == nil {
		return
	}
	c.emit(ctx, playerID, events.TypeXPAwarded, events.XPAwarded{
		Source: string(award.Event.Source),
		Amount: award.Event.Amount,
		Bonus:  award.Event.BonusAmount,
		Total:  award.Event.TotalAmount,
	})
	if award.LeveledUp {
		c.emit(ctx, playerID, events.TypeLevelUp, events.LevelUp{
			From:    award.PreviousLevel,
			To:      award.Level,
			Unlocks: award.Unlocks,
		})
	}
}

func (c *core) emitActivity(ctx context.Context, playerID uuid.UUID, act *activity) {
	if act == nil {
		return
	}
	for _, skinID := range act.NewSkins {
		c.emit(ctx, playerID, events.TypeRewardUnlocked, events.RewardUnlocked{
			SkinID:     skinID,
			Attendance: act.Attendance,
		})
	}
}

func (c *core) emitDecision(ctx context.Context, playerID uuid.UUID, action string, d gating.Decision) {
	c.emit(ctx, playerID, events.TypeGatingDecision, events.GatingDecision{
		Action: action,
		Kind:   string(d.Kind),
		Reason: d.Reason,
	})
}

func (c *core) emitSpreadCreated(ctx context.Context, rec *domain.SpreadRecord) {
	c.emit(ctx, rec.PlayerID, events.TypeSpreadCreated, events.SpreadCreated{
		SpreadID: rec.ID,
		Topic:    string(rec.Topic),
		Access:   string(rec.Access),
		Pattern:  string(rec.Pattern),
	})
}
