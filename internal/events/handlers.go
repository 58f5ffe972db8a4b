package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/platform/metrics"
)

// MetricsHandler turns events into prometheus measurements.
type MetricsHandler struct {
	recorder metrics.Recorder
}

// NewMetricsHandler creates a MetricsHandler. A nil recorder records nothing.
func NewMetricsHandler(recorder metrics.Recorder) *MetricsHandler {
	if recorder == nil {
		recorder = metrics.Noop()
	}
	return &MetricsHandler{recorder: recorder}
}

// HandleEvent implements EventHandler.
func (h *MetricsHandler) HandleEvent(_ context.Context, event *Event) error {
	switch event.Type {
	case TypeXPAwarded:
		var p XPAwarded
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		h.recorder.AddXPAwarded(p.Source, p.Total)
	case TypeLevelUp:
		var p LevelUp
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		for level := p.From; level < p.To; level++ {
			h.recorder.IncLevelUps()
		}
	case TypeRewardUnlocked:
		var p RewardUnlocked
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		h.recorder.IncRewardUnlocks(p.SkinID)
	case TypeGatingDecision:
		var p GatingDecision
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		h.recorder.IncGatingDecisions(p.Action, p.Kind)
	case TypeSpreadCreated:
		var p SpreadCreated
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		h.recorder.IncSpreadsCreated(p.Topic, p.Access)
	case TypeInterpretation:
		var p Interpretation
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		h.recorder.IncInterpretations(p.Status)
	}
	return nil
}

// LogHandler writes every event as a structured audit line.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(log *slog.Logger) *LogHandler {
	if log == nil {
		log = slog.Default()
	}
	return &LogHandler{logger: log.With(slog.String("component", "event_log"))}
}

// HandleEvent implements EventHandler.
func (h *LogHandler) HandleEvent(ctx context.Context, event *Event) error {
	logger.FromContextOrDefault(ctx, h.logger).InfoContext(ctx, "engine event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("player_id", event.PlayerID.String()),
		slog.String("payload", string(event.Payload)))
	return nil
}
