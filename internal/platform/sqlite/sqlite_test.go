package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/phrazzld/arcana/internal/platform/migrations"
	"github.com/phrazzld/arcana/internal/platform/sqlite"
	"github.com/phrazzld/arcana/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (store.KV, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(ctx, db, migrations.DialectSQLite, migrations.CommandUp))
	return sqlite.NewKVStore(db, nil), db
}

func TestKVRoundTrip(t *testing.T) {
	kv, _ := newStore(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "player/a/character", []byte(`{"level":1}`)))
	got, err := kv.Get(ctx, "player/a/character")
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":1}`, string(got))

	require.NoError(t, kv.Set(ctx, "player/a/character", []byte(`{"level":2}`)))
	got, err = kv.Get(ctx, "player/a/character")
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":2}`, string(got))

	require.NoError(t, kv.Remove(ctx, "player/a/character"))
	require.NoError(t, kv.Remove(ctx, "player/a/character"), "removing an absent key is not an error")
	_, err = kv.Get(ctx, "player/a/character")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, kv.Set(ctx, "", []byte("x")), store.ErrInvalidKey)
}

func TestKVPrefixOperations(t *testing.T) {
	kv, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, kv.SetMany(ctx, []store.Entry{
		{Key: "player/a/draw/2024-01-02", Value: []byte("2")},
		{Key: "player/a/draw/2024-01-01", Value: []byte("1")},
		{Key: "player/a/gating/2024-01-01", Value: []byte("g")},
		{Key: "player/A/draw/2024-01-01", Value: []byte("upper")},
		{Key: "player/b/draw/2024-01-01", Value: []byte("b")},
		{Key: "player/a_x/draw/2024-01-01", Value: []byte("underscore")},
	}))

	keys, err := kv.ListKeys(ctx, "player/a/draw/")
	require.NoError(t, err)
	assert.Equal(t, []string{"player/a/draw/2024-01-01", "player/a/draw/2024-01-02"}, keys)

	keys, err = kv.ListKeys(ctx, "player/a/")
	require.NoError(t, err)
	assert.Len(t, keys, 3, "prefix match is case-sensitive and treats _ literally")

	keys, err = kv.ListKeys(ctx, "nothing/")
	require.NoError(t, err)
	assert.Empty(t, keys)

	n, err := kv.RemovePrefix(ctx, "player/a/")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	keys, err = kv.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	_, err = kv.RemovePrefix(ctx, "")
	assert.ErrorIs(t, err, store.ErrInvalidKey)
}

func TestSetManyIsAtomic(t *testing.T) {
	kv, _ := newStore(t)
	ctx := context.Background()

	err := kv.SetMany(ctx, []store.Entry{
		{Key: "player/a/character", Value: []byte("1")},
		{Key: "", Value: []byte("bad")},
	})
	assert.ErrorIs(t, err, store.ErrInvalidKey)

	_, err = kv.Get(ctx, "player/a/character")
	assert.ErrorIs(t, err, store.ErrNotFound, "nothing from a rejected batch is written")
}

func TestRunInTransactionRollsBack(t *testing.T) {
	kv, db := newStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `INSERT INTO kv_entries (key, value) VALUES (?, ?)`, "tx/key", []byte("v"))
		require.NoError(t, execErr)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = kv.Get(ctx, "tx/key")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `INSERT INTO kv_entries (key, value) VALUES (?, ?)`, "tx/key", []byte("v"))
		return execErr
	})
	require.NoError(t, err)
	got, err := kv.Get(ctx, "tx/key")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, sqlite.MapError(nil))
	assert.ErrorIs(t, sqlite.MapError(sql.ErrNoRows), store.ErrNotFound)

	other := errors.New("other")
	assert.Equal(t, other, sqlite.MapError(other))
}

func TestConstraintViolationMapsToInvalidEntity(t *testing.T) {
	_, db := newStore(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO kv_entries (key, value) VALUES (?, ?)`, "dup", []byte("1"))
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO kv_entries (key, value) VALUES (?, ?)`, "dup", []byte("2"))
	require.Error(t, err)
	assert.ErrorIs(t, sqlite.MapError(err), store.ErrInvalidEntity)
}
