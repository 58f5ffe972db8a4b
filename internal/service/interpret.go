package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/events"
	"github.com/phrazzld/arcana/internal/interpretation"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/platform/ratelimit"
	"github.com/phrazzld/arcana/internal/store"
)

// Failure reasons recorded on a failed interpretation.
const (
	FailureRateLimited    = "rate_limited"
	FailureLimiterDown    = "rate_limiter_unavailable"
	FailureContentBlocked = "content_blocked"
	FailureTimeout        = "timeout"
	FailureUnavailable    = "interpreter_unavailable"
	FailureGeneration     = "generation_failed"
)

// Interpret asks the interpretation collaborator to read a spread or its
// follow-up and stores the outcome on the record. A stored success is
// returned unchanged; a stored failure may be retried by calling again.
// The collaborator is called once per call and a failure is recorded
// before the error is returned.
func (s *ReadingService) Interpret(
	ctx context.Context,
	playerID, spreadID uuid.UUID,
	in InterpretInput,
) (*domain.SpreadRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("player_id", playerID.String()),
		slog.String("spread_id", spreadID.String()))

	kind := in.Kind
	if kind == "" {
		kind = interpretation.KindSpread
	}

	rec, err := s.loadSpread(ctx, playerID, spreadID)
	if err != nil {
		return nil, NewServiceError("reading", "interpret", err)
	}
	current, err := interpretationOf(rec, kind)
	if err != nil {
		return nil, NewServiceError("reading", "interpret", err)
	}
	if current.Succeeded() {
		return rec, nil
	}

	var req interpretation.Request
	if kind == interpretation.KindFollowUp {
		req, err = interpretation.BuildFollowUpRequest(s.engines.Deck, rec, in.Locale)
	} else {
		req, err = interpretation.BuildSpreadRequest(s.engines.Deck, rec, in.Locale)
	}
	if err != nil {
		return nil, NewServiceError("reading", "interpret", err)
	}

	started := s.clock.Now()
	result, reason, callErr := s.call(ctx, playerID, req)
	duration := s.clock.Now().Sub(started)

	outcome := &domain.Interpretation{Locale: req.Locale, GeneratedAt: s.clock.Now().UTC()}
	if callErr == nil {
		outcome.Status = domain.InterpretationSucceeded
		outcome.Text = result.Text
		outcome.Model = result.Model
	} else {
		outcome.Status = domain.InterpretationFailed
		outcome.FailureReason = reason
		log.Warn("interpretation failed",
			slog.String("kind", string(kind)),
			slog.String("reason", reason),
			slog.String("error", callErr.Error()))
	}

	// The outcome is persisted even if the caller has gone away.
	persistCtx := context.WithoutCancel(ctx)
	stored, err := s.storeInterpretation(persistCtx, playerID, spreadID, kind, outcome)
	if err != nil {
		log.Error("failed to store interpretation", slog.String("error", err.Error()))
		return nil, NewServiceError("reading", "interpret", err)
	}

	s.emit(ctx, playerID, events.TypeInterpretation, events.Interpretation{
		SpreadID:   spreadID,
		Kind:       string(kind),
		Status:     string(outcome.Status),
		DurationMS: duration.Milliseconds(),
	})

	if callErr != nil {
		return stored, NewServiceError("reading", "interpret", callErr)
	}
	return stored, nil
}

// call checks the rate limiter and makes the single collaborator call. On
// failure it returns the error and the reason to record.
func (s *ReadingService) call(
	ctx context.Context,
	playerID uuid.UUID,
	req interpretation.Request,
) (*interpretation.Result, string, error) {
	decision, err := s.limiter.Check(ctx, playerID.String())
	if err != nil {
		return nil, FailureLimiterDown, err
	}
	if !decision.Allowed {
		return nil, FailureRateLimited, fmt.Errorf("%w: resets at %s", ErrRateLimited, decision.ResetAt.Format(time.RFC3339))
	}

	result, err := s.interpreter.Interpret(ctx, req)
	if err != nil {
		return nil, failureReason(err), err
	}
	if result == nil || result.Text == "" {
		return nil, FailureGeneration, interpretation.ErrInvalidResponse
	}
	return result, "", nil
}

// storeInterpretation re-reads the spread under its lock and records the
// outcome. A success stored concurrently is kept rather than overwritten.
// The character lock keeps a concurrent reset from running between the read
// and the commit, which would leave the spread behind a deleted player.
func (s *ReadingService) storeInterpretation(
	ctx context.Context,
	playerID, spreadID uuid.UUID,
	kind interpretation.Kind,
	outcome *domain.Interpretation,
) (*domain.SpreadRecord, error) {
	unlock, err := s.lock(ctx, store.CharacterKey(playerID), store.SpreadIndexKey(playerID, spreadID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.records.GetCharacter(ctx, playerID); err != nil {
		if errors.Is(err, store.ErrCharacterNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	rec, err := s.loadSpread(ctx, playerID, spreadID)
	if err != nil {
		return nil, err
	}
	current, err := interpretationOf(rec, kind)
	if err != nil {
		return nil, err
	}
	if current.Succeeded() {
		return rec, nil
	}
	if current != nil {
		outcome.Attempts = current.Attempts
	}
	outcome.Attempts++

	if kind == interpretation.KindFollowUp {
		rec.FollowUp.Interpretation = outcome
	} else {
		rec.Interpretation = outcome
	}

	if err := s.records.Commit(ctx, store.NewBatch().PutSpread(rec)); err != nil {
		return nil, err
	}
	return rec, nil
}

func interpretationOf(rec *domain.SpreadRecord, kind interpretation.Kind) (*domain.Interpretation, error) {
	switch kind {
	case interpretation.KindSpread:
		return rec.Interpretation, nil
	case interpretation.KindFollowUp:
		if rec.FollowUp == nil {
			return nil, ErrFollowUpNotFound
		}
		return rec.FollowUp.Interpretation, nil
	default:
		return nil, domain.NewValidationError("kind", "unknown interpretation kind "+string(kind), domain.ErrValidation)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, interpretation.ErrContentBlocked):
		return FailureContentBlocked
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, interpretation.ErrUnavailable), errors.Is(err, ratelimit.ErrUnavailable):
		return FailureUnavailable
	default:
		return FailureGeneration
	}
}
