// Package gating implements the daily quota engine. State is one
// domain.GatingState per local calendar day; a day without a record behaves
// as an all-zero record, so counters reset implicitly when the day rolls over.
package gating

import (
	"time"

	"github.com/phrazzld/arcana/internal/domain"
)

// Kind classifies the next action.
type Kind string

const (
	KindFree    Kind = "free"
	KindAdGated Kind = "ad_gated"
	KindBlocked Kind = "blocked"
)

// Reasons attached to blocked decisions.
const (
	ReasonQuotaExhausted = "quota_exhausted"
	ReasonCooldown       = "cooldown"
)

// Decision is the outcome of asking whether an action may proceed.
type Decision struct {
	Kind              Kind          `json:"kind"`
	Reason            string        `json:"reason,omitempty"`
	Remaining         int           `json:"remaining"`
	CooldownRemaining time.Duration `json:"cooldown_remaining"`
}

// Params holds the daily limits.
type Params struct {
	MaxAnotherTopicPerDay int
	MaxClarifierPerDay    int
	AdCooldown            time.Duration
}

// NewDefaultParams returns one free spread plus three ad-unlocked topics and
// three clarifiers per day, with a five minute cooldown between ads.
func NewDefaultParams() Params {
	return Params{
		MaxAnotherTopicPerDay: 3,
		MaxClarifierPerDay:    3,
		AdCooldown:            5 * time.Minute,
	}
}

// Engine evaluates and applies gating transitions. It holds no state.
type Engine struct {
	params Params
}

// NewEngine creates an Engine with the given limits.
func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// Params returns the configured limits.
func (e *Engine) Params() Params {
	return e.params
}

// CanDoFreeSpread reports whether the day's free spread is still available.
// A nil state means the day has no record yet.
func (e *Engine) CanDoFreeSpread(state *domain.GatingState) bool {
	return state == nil || !state.FreeSpreadUsed
}

// UseFreeSpread marks the free spread as used. Marking twice is a no-op.
func (e *Engine) UseFreeSpread(state *domain.GatingState, dateKey string) *domain.GatingState {
	next := copyOrNew(state, dateKey)
	next.FreeSpreadUsed = true
	return next
}

// UseAnotherTopic counts an ad-unlocked spread and stamps the ad time.
// Eligibility is the caller's responsibility.
func (e *Engine) UseAnotherTopic(state *domain.GatingState, dateKey string, now time.Time) *domain.GatingState {
	next := copyOrNew(state, dateKey)
	next.AnotherTopicUsedCount++
	next.LastAdAt = now.UTC()
	return next
}

// UseClarifier counts an ad-unlocked clarifier and stamps the ad time.
// Eligibility is the caller's responsibility.
func (e *Engine) UseClarifier(state *domain.GatingState, dateKey string, now time.Time) *domain.GatingState {
	next := copyOrNew(state, dateKey)
	next.ClarifierUsedCount++
	next.LastAdAt = now.UTC()
	return next
}

// AdCooldownRemaining returns how long until another ad may be shown.
func (e *Engine) AdCooldownRemaining(state *domain.GatingState, now time.Time) time.Duration {
	if state == nil || state.LastAdAt.IsZero() {
		return 0
	}
	remaining := e.params.AdCooldown - now.Sub(state.LastAdAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DecideSpread classifies the next spread of the day.
func (e *Engine) DecideSpread(state *domain.GatingState, now time.Time) Decision {
	if e.CanDoFreeSpread(state) {
		return Decision{Kind: KindFree, Remaining: e.params.MaxAnotherTopicPerDay}
	}
	used := 0
	if state != nil {
		used = state.AnotherTopicUsedCount
	}
	return e.decideAd(state, used, e.params.MaxAnotherTopicPerDay, now)
}

// DecideClarifier classifies the next clarifier of the day. Clarifiers are
// never free.
func (e *Engine) DecideClarifier(state *domain.GatingState, now time.Time) Decision {
	used := 0
	if state != nil {
		used = state.ClarifierUsedCount
	}
	return e.decideAd(state, used, e.params.MaxClarifierPerDay, now)
}

func (e *Engine) decideAd(state *domain.GatingState, used, limit int, now time.Time) Decision {
	remaining := limit - used
	if remaining <= 0 {
		return Decision{Kind: KindBlocked, Reason: ReasonQuotaExhausted}
	}
	if cooldown := e.AdCooldownRemaining(state, now); cooldown > 0 {
		return Decision{Kind: KindBlocked, Reason: ReasonCooldown, Remaining: remaining, CooldownRemaining: cooldown}
	}
	return Decision{Kind: KindAdGated, Remaining: remaining}
}

func copyOrNew(state *domain.GatingState, dateKey string) *domain.GatingState {
	if state == nil {
		return domain.NewGatingState(dateKey)
	}
	next := *state
	return &next
}
