package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/calendar"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/domain/gating"
	"github.com/phrazzld/arcana/internal/domain/rewards"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/store"
)

// GatingStatus describes the caller's quotas for the local day.
type GatingStatus struct {
	DateKey             string          `json:"date_key"`
	FreeSpreadAvailable bool            `json:"free_spread_available"`
	AnotherTopicUsed    int             `json:"another_topic_used"`
	AnotherTopicLimit   int             `json:"another_topic_limit"`
	ClarifierUsed       int             `json:"clarifier_used"`
	ClarifierLimit      int             `json:"clarifier_limit"`
	CooldownRemaining   time.Duration   `json:"cooldown_remaining"`
	NextSpread          gating.Decision `json:"next_spread"`
	NextClarifier       gating.Decision `json:"next_clarifier"`
}

// RewardsStatus describes unlocked skins and attendance progress.
type RewardsStatus struct {
	Rewards            *domain.RewardsState `json:"rewards"`
	LifetimeAttendance int                  `json:"lifetime_attendance"`
	Month              string               `json:"month"`
	MonthAttendance    int                  `json:"month_attendance"`
	NextMilestone      *rewards.Milestone   `json:"next_milestone,omitempty"`
	DaysToNext         int                  `json:"days_to_next"`
	Milestones         []rewards.Milestone  `json:"milestones"`
}

// StatusService reports gating and rewards state and selects skins.
type StatusService struct {
	core
}

// NewStatusService creates a StatusService.
func NewStatusService(deps Deps) (*StatusService, error) {
	c, err := newCore(deps, "status_service")
	if err != nil {
		return nil, err
	}
	return &StatusService{core: c}, nil
}

// GatingStatus reports the caller's quotas and the next spread and clarifier
// decisions for the local day.
func (s *StatusService) GatingStatus(ctx context.Context, playerID uuid.UUID) (*GatingStatus, error) {
	now, today, _, err := s.now(ctx, playerID)
	if err != nil {
		return nil, NewServiceError("status", "gating_status", err)
	}
	g, err := s.loadGating(ctx, playerID, today)
	if err != nil {
		return nil, NewServiceError("status", "gating_status", err)
	}

	engine := s.engines.Gating
	params := engine.Params()
	status := &GatingStatus{
		DateKey:             today,
		FreeSpreadAvailable: engine.CanDoFreeSpread(g),
		AnotherTopicLimit:   params.MaxAnotherTopicPerDay,
		ClarifierLimit:      params.MaxClarifierPerDay,
		CooldownRemaining:   engine.AdCooldownRemaining(g, now),
		NextSpread:          engine.DecideSpread(g, now),
		NextClarifier:       engine.DecideClarifier(g, now),
	}
	if g != nil {
		status.AnotherTopicUsed = g.AnotherTopicUsedCount
		status.ClarifierUsed = g.ClarifierUsedCount
	}
	return status, nil
}

// RewardsStatus reports unlocked skins with lifetime and current-month
// attendance. Milestones are measured against lifetime attendance; the month
// count is informational.
func (s *StatusService) RewardsStatus(ctx context.Context, playerID uuid.UUID) (*RewardsStatus, error) {
	now, _, loc, err := s.now(ctx, playerID)
	if err != nil {
		return nil, NewServiceError("status", "rewards_status", err)
	}
	p, err := s.loadPlayer(ctx, playerID, now)
	if err != nil {
		return nil, NewServiceError("status", "rewards_status", err)
	}

	dates, err := s.records.AttendanceDates(ctx, playerID)
	if err != nil {
		return nil, NewServiceError("status", "rewards_status", err)
	}
	month := calendar.MonthKey(now, loc)
	lifetime := rewards.CountAttendance(dates, rewards.ScopeLifetime, "")

	status := &RewardsStatus{
		Rewards:            p.rewards,
		LifetimeAttendance: lifetime,
		Month:              month,
		MonthAttendance:    rewards.CountAttendance(dates, rewards.ScopeMonth, month),
		Milestones:         s.engines.Rewards.Milestones(),
	}
	if next, ok := s.engines.Rewards.NextMilestone(lifetime); ok {
		status.NextMilestone = &next
		status.DaysToNext = next.RequiredDays - lifetime
	}
	return status, nil
}

// SelectSkin makes an unlocked skin the selected one.
func (s *StatusService) SelectSkin(ctx context.Context, playerID uuid.UUID, skinID string) (*domain.RewardsState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.clock.Now()

	unlock, err := s.lock(ctx, store.RewardsKey(playerID))
	if err != nil {
		return nil, NewServiceError("status", "select_skin", err)
	}
	defer unlock()

	p, err := s.loadPlayer(ctx, playerID, now)
	if err != nil {
		return nil, NewServiceError("status", "select_skin", err)
	}
	next, err := s.engines.Rewards.SelectSkin(p.rewards, skinID, now)
	if err != nil {
		return nil, NewServiceError("status", "select_skin", err)
	}

	if err := s.records.Commit(ctx, store.NewBatch().PutRewards(playerID, next)); err != nil {
		log.Error("failed to store skin selection",
			slog.String("player_id", playerID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("status", "select_skin", err)
	}

	log.Debug("skin selected",
		slog.String("player_id", playerID.String()),
		slog.String("skin_id", skinID))
	return next, nil
}
