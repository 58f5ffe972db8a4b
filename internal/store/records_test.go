package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/platform/migrations"
	"github.com/phrazzld/arcana/internal/platform/sqlite"
	"github.com/phrazzld/arcana/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecords(t *testing.T) *store.Records {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(ctx, db, migrations.DialectSQLite, migrations.CommandUp))

	return store.NewRecords(sqlite.NewKVStore(db, nil))
}

func testSpread(playerID uuid.UUID, dateKey string, createdAt time.Time) *domain.SpreadRecord {
	return &domain.SpreadRecord{
		ID:       uuid.New(),
		PlayerID: playerID,
		DateKey:  dateKey,
		Topic:    domain.TopicGeneral,
		Cards: []domain.SpreadCard{
			{Position: domain.PositionPast, DrawnCard: domain.DrawnCard{CardID: 0, Orientation: domain.Upright}},
			{Position: domain.PositionPresent, DrawnCard: domain.DrawnCard{CardID: 5, Orientation: domain.Reversed}},
			{Position: domain.PositionFuture, DrawnCard: domain.DrawnCard{CardID: 9, Orientation: domain.Upright}},
		},
		Pattern:   domain.PatternURU,
		Modifier:  domain.ModifierMirror,
		Access:    domain.AccessFree,
		CreatedAt: createdAt,
	}
}

func TestRecordsMissingRecordsReportNotFound(t *testing.T) {
	t.Parallel()
	records := newTestRecords(t)
	ctx := context.Background()
	pid := uuid.New()

	_, err := records.GetCharacter(ctx, pid)
	assert.ErrorIs(t, err, store.ErrCharacterNotFound)
	assert.True(t, store.IsNotFoundError(err))

	_, err = records.GetRewards(ctx, pid)
	assert.ErrorIs(t, err, store.ErrRewardsNotFound)

	_, err = records.GetGating(ctx, pid, "2026-03-01")
	assert.ErrorIs(t, err, store.ErrGatingNotFound)

	_, err = records.GetDraw(ctx, pid, "2026-03-01")
	assert.ErrorIs(t, err, store.ErrDrawNotFound)

	_, err = records.GetSpread(ctx, pid, uuid.New())
	assert.ErrorIs(t, err, store.ErrSpreadNotFound)
}

func TestRecordsCommitAndRead(t *testing.T) {
	t.Parallel()
	records := newTestRecords(t)
	ctx := context.Background()
	pid := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	character := domain.NewCharacterState(pid, now)
	character.CurrentXP = 12
	character.TotalXP = 12
	gatingState := domain.NewGatingState("2026-03-01")
	gatingState.FreeSpreadUsed = true
	spread := testSpread(pid, "2026-03-01", now)

	batch := store.NewBatch().
		PutCharacter(character).
		PutRewards(pid, domain.NewRewardsState(now)).
		PutGating(pid, gatingState).
		PutDraw(pid, &domain.DailyDraw{
			DateKey:   "2026-03-01",
			Card:      domain.DrawnCard{CardID: 3, Orientation: domain.Upright},
			CreatedAt: now,
		}).
		PutSpread(spread)
	assert.Equal(t, 6, batch.Len(), "spread writes its record and its index entry")
	require.NoError(t, records.Commit(ctx, batch))

	gotCharacter, err := records.GetCharacter(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 12, gotCharacter.TotalXP)
	assert.Equal(t, 1, gotCharacter.Level)

	gotRewards, err := records.GetRewards(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSkinID, gotRewards.SelectedSkinID)

	gotGating, err := records.GetGating(ctx, pid, "2026-03-01")
	require.NoError(t, err)
	assert.True(t, gotGating.FreeSpreadUsed)

	gotDraw, err := records.GetDraw(ctx, pid, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 3, gotDraw.Card.CardID)

	gotSpread, err := records.GetSpread(ctx, pid, spread.ID)
	require.NoError(t, err)
	assert.Equal(t, spread.Cards, gotSpread.Cards)
	assert.Equal(t, domain.PatternURU, gotSpread.Pattern)
	assert.True(t, spread.CreatedAt.Equal(gotSpread.CreatedAt))
}

func TestRecordsBatchRejectsPatternMismatch(t *testing.T) {
	t.Parallel()
	records := newTestRecords(t)
	ctx := context.Background()
	pid := uuid.New()

	wrongPattern := testSpread(pid, "2026-03-01", time.Now())
	wrongPattern.Pattern = domain.PatternRRR
	err := records.Commit(ctx, store.NewBatch().PutSpread(wrongPattern))
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.ErrorIs(t, err, domain.ErrPatternMismatch)

	wrongModifier := testSpread(pid, "2026-03-01", time.Now())
	wrongModifier.Modifier = domain.ModifierShadow
	err = records.Commit(ctx, store.NewBatch().PutSpread(wrongModifier))
	assert.ErrorIs(t, err, domain.ErrPatternMismatch)

	_, err = records.GetSpread(ctx, pid, wrongPattern.ID)
	assert.ErrorIs(t, err, store.ErrSpreadNotFound)
}

func TestSpreadIndexValueIsJSON(t *testing.T) {
	t.Parallel()
	records := newTestRecords(t)
	ctx := context.Background()
	pid := uuid.New()
	spread := testSpread(pid, "2026-03-01", time.Now())

	require.NoError(t, records.Commit(ctx, store.NewBatch().PutSpread(spread)))

	raw, err := records.KV().Get(ctx, store.SpreadIndexKey(pid, spread.ID))
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-03-01"`, string(raw))

	require.NoError(t, records.KV().Set(ctx, store.SpreadIndexKey(pid, spread.ID), []byte("2026-03-01")))
	_, err = records.GetSpread(ctx, pid, spread.ID)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestRecordsBatchRejectsInvalidRecords(t *testing.T) {
	t.Parallel()
	records := newTestRecords(t)
	ctx := context.Background()
	pid := uuid.New()
	now := time.Now()

	bad := testSpread(pid, "2026-03-01", now)
	bad.Cards = bad.Cards[:2]

	batch := store.NewBatch().
		PutCharacter(domain.NewCharacterState(pid, now)).
		PutSpread(bad)
	err := records.Commit(ctx, batch)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.ErrorIs(t, err, domain.ErrInvalidCardCount)

	_, err = records.GetCharacter(ctx, pid)
	assert.ErrorIs(t, err, store.ErrCharacterNotFound, "nothing from a failed batch is written")

	rewards := domain.NewRewardsState(now)
	rewards.SelectedSkinID = "skin_moon"
	err = records.Commit(ctx, store.NewBatch().PutRewards(pid, rewards))
	assert.ErrorIs(t, err, domain.ErrSkinNotUnlocked)

	err = records.Commit(ctx, store.NewBatch().PutCharacter(domain.NewCharacterState(uuid.Nil, now)))
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	var storeErr *store.StoreError
	assert.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "character", storeErr.Entity)
}

func TestRecordsListSpreadsAndAttendance(t *testing.T) {
	t.Parallel()
	records := newTestRecords(t)
	ctx := context.Background()
	pid := uuid.New()
	other := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	later := testSpread(pid, "2026-03-01", base.Add(2*time.Hour))
	earlier := testSpread(pid, "2026-03-01", base)
	nextDay := testSpread(pid, "2026-03-03", base.Add(48*time.Hour))
	require.NoError(t, records.Commit(ctx, store.NewBatch().
		PutSpread(later).
		PutSpread(earlier).
		PutSpread(nextDay).
		PutSpread(testSpread(other, "2026-02-01", base)).
		PutDraw(pid, &domain.DailyDraw{DateKey: "2026-03-01", Card: domain.DrawnCard{CardID: 1, Orientation: domain.Upright}}).
		PutDraw(pid, &domain.DailyDraw{DateKey: "2026-03-02", Card: domain.DrawnCard{CardID: 2, Orientation: domain.Reversed}})))

	spreads, err := records.ListSpreadsByDate(ctx, pid, "2026-03-01")
	require.NoError(t, err)
	require.Len(t, spreads, 2)
	assert.Equal(t, earlier.ID, spreads[0].ID)
	assert.Equal(t, later.ID, spreads[1].ID)

	spreads, err = records.ListSpreadsByDate(ctx, pid, "2026-03-05")
	require.NoError(t, err)
	assert.Empty(t, spreads)

	dates, err := records.AttendanceDates(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-01", "2026-03-02", "2026-03-03"}, dates)
}

func TestRecordsDeletePlayer(t *testing.T) {
	t.Parallel()
	records := newTestRecords(t)
	ctx := context.Background()
	pid := uuid.New()
	other := uuid.New()
	now := time.Now().UTC()

	require.NoError(t, records.Commit(ctx, store.NewBatch().
		PutCharacter(domain.NewCharacterState(pid, now)).
		PutCharacter(domain.NewCharacterState(other, now)).
		PutSpread(testSpread(pid, "2026-03-01", now))))

	n, err := records.DeletePlayer(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = records.GetCharacter(ctx, pid)
	assert.ErrorIs(t, err, store.ErrCharacterNotFound)
	_, err = records.GetCharacter(ctx, other)
	assert.NoError(t, err)
}

func TestNewRecordsPanicsOnNilKV(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { store.NewRecords(nil) })
}
