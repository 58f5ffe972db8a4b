package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/arcana/internal/platform/metrics"
)

// ErrInvalidEvent is returned for a nil event or one without a type.
var ErrInvalidEvent = errors.New("invalid event")

// Types lists every event type the services emit.
func Types() []string {
	return []string{
		TypeXPAwarded,
		TypeLevelUp,
		TypeRewardUnlocked,
		TypeGatingDecision,
		TypeSpreadCreated,
		TypeInterpretation,
	}
}

// Dispatcher delivers events synchronously to the handlers subscribed to
// their type. A failing or panicking handler is logged and counted against
// the event type, and the remaining handlers still receive the event.
type Dispatcher struct {
	mu       sync.RWMutex
	wildcard []EventHandler
	byType   map[string][]EventHandler
	recorder metrics.Recorder
	logger   *slog.Logger
}

var _ EventEmitter = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher. A nil recorder counts nothing.
func NewDispatcher(log *slog.Logger, recorder metrics.Recorder) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.Noop()
	}
	return &Dispatcher{
		byType:   make(map[string][]EventHandler),
		recorder: recorder,
		logger:   log.With(slog.String("component", "event_dispatcher")),
	}
}

// Subscribe registers handler for the given event types, or for every
// event when no type is named.
func (d *Dispatcher) Subscribe(handler EventHandler, types ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(types) == 0 {
		d.wildcard = append(d.wildcard, handler)
		return
	}
	for _, t := range types {
		d.byType[t] = append(d.byType[t], handler)
	}
}

// handlersFor returns the type-specific handlers followed by the wildcard
// ones, in subscription order.
func (d *Dispatcher) handlersFor(eventType string) []EventHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	specific := d.byType[eventType]
	out := make([]EventHandler, 0, len(specific)+len(d.wildcard))
	out = append(out, specific...)
	return append(out, d.wildcard...)
}

// EmitEvent implements EventEmitter. Every handler failure is joined into the
// returned error.
func (d *Dispatcher) EmitEvent(ctx context.Context, event *Event) error {
	if event == nil || event.Type == "" {
		return ErrInvalidEvent
	}

	handlers := d.handlersFor(event.Type)
	if len(handlers) == 0 {
		d.logger.Debug("event has no subscribers", slog.String("event_type", event.Type))
		return nil
	}

	var errs []error
	for i, handler := range handlers {
		if err := deliver(ctx, handler, event); err != nil {
			d.recorder.IncEventHandlerErrors(event.Type)
			d.logger.Error("event handler failed",
				slog.Int("handler_index", i),
				slog.String("event_id", event.ID.String()),
				slog.String("event_type", event.Type),
				slog.String("player_id", event.PlayerID.String()),
				slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func deliver(ctx context.Context, handler EventHandler, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked on %s: %v", event.Type, r)
		}
	}()
	return handler.HandleEvent(ctx, event)
}
