package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/calendar"
	"github.com/phrazzld/arcana/internal/domain/deck"
	"github.com/phrazzld/arcana/internal/domain/gating"
	"github.com/phrazzld/arcana/internal/events"
	"github.com/phrazzld/arcana/internal/interpretation"
	"github.com/phrazzld/arcana/internal/platform/migrations"
	"github.com/phrazzld/arcana/internal/platform/ratelimit"
	"github.com/phrazzld/arcana/internal/platform/sqlite"
	"github.com/phrazzld/arcana/internal/store"
	"github.com/stretchr/testify/require"
)

// recordingHandler collects emitted event types.
type recordingHandler struct {
	mu    sync.Mutex
	types []string
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.types = append(h.types, event.Type)
	return nil
}

func (h *recordingHandler) count(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, t := range h.types {
		if t == eventType {
			n++
		}
	}
	return n
}

type limiterFunc func(ctx context.Context, callerID string) (ratelimit.Decision, error)

func (f limiterFunc) Check(ctx context.Context, callerID string) (ratelimit.Decision, error) {
	return f(ctx, callerID)
}

type testEnv struct {
	records *store.Records
	deps    Deps
	events  *recordingHandler

	mu  sync.Mutex
	now time.Time
}

func newTestEnv(t *testing.T, start time.Time) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(ctx, db, migrations.DialectSQLite, migrations.CommandUp))

	d, err := deck.Default()
	require.NoError(t, err)

	env := &testEnv{
		records: store.NewRecords(sqlite.NewKVStore(db, nil)),
		events:  &recordingHandler{},
		now:     start,
	}
	emitter := events.NewDispatcher(nil, nil)
	emitter.Subscribe(env.events)

	env.deps = Deps{
		Records: env.records,
		Locker:  store.NewKeyLocker(),
		Engines: NewEngines(d, nil, gating.NewDefaultParams()),
		Events:  emitter,
		Clock:   calendar.ClockFunc(env.clockNow),
	}
	return env
}

func (e *testEnv) clockNow() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

func (e *testEnv) players(t *testing.T) *PlayerService {
	t.Helper()
	svc, err := NewPlayerService(e.deps)
	require.NoError(t, err)
	return svc
}

func (e *testEnv) readings(t *testing.T, interpreter interpretation.Interpreter, limiter ratelimit.Limiter) *ReadingService {
	t.Helper()
	svc, err := NewReadingService(e.deps, interpreter, limiter)
	require.NoError(t, err)
	return svc
}

func (e *testEnv) status(t *testing.T) *StatusService {
	t.Helper()
	svc, err := NewStatusService(e.deps)
	require.NoError(t, err)
	return svc
}

func (e *testEnv) register(t *testing.T) uuid.UUID {
	t.Helper()
	profile, err := e.players(t).Register(context.Background())
	require.NoError(t, err)
	return profile.PlayerID
}

// registerIn registers a player whose requests arrive from loc.
func (e *testEnv) registerIn(t *testing.T, loc *time.Location) uuid.UUID {
	t.Helper()
	profile, err := e.players(t).Register(calendar.WithLocation(context.Background(), loc))
	require.NoError(t, err)
	return profile.PlayerID
}

// setLevel moves a registered player to level with no progress inside it.
func (e *testEnv) setLevel(t *testing.T, playerID uuid.UUID, level int) {
	t.Helper()
	ctx := context.Background()
	character, err := e.records.GetCharacter(ctx, playerID)
	require.NoError(t, err)
	character.Level = level
	character.CurrentXP = 0
	require.NoError(t, e.records.Commit(ctx, store.NewBatch().PutCharacter(character)))
}
