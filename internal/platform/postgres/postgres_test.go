package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/phrazzld/arcana/internal/platform/migrations"
	"github.com/phrazzld/arcana/internal/platform/postgres"
	"github.com/phrazzld/arcana/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDatabaseURLEnv names the database used by the integration tests. The
// tests are skipped when it is unset.
const testDatabaseURLEnv = "ARCANA_TEST_DATABASE_URL"

func openTestStore(t *testing.T) store.KV {
	t.Helper()

	url := os.Getenv(testDatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseURLEnv)
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Run(ctx, db, migrations.DialectPostgres, migrations.CommandUp))

	kv := postgres.NewKVStore(db, nil)
	_, err = kv.RemovePrefix(ctx, "pgtest:")
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = kv.RemovePrefix(context.Background(), "pgtest:") })
	return kv
}

func TestKVStoreRoundTrip(t *testing.T) {
	kv := openTestStore(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "pgtest:missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "pgtest:a", []byte("one")))
	require.NoError(t, kv.Set(ctx, "pgtest:a", []byte("two")))

	got, err := kv.Get(ctx, "pgtest:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	require.NoError(t, kv.Remove(ctx, "pgtest:a"))
	require.NoError(t, kv.Remove(ctx, "pgtest:a"))
	_, err = kv.Get(ctx, "pgtest:a")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestKVStorePrefixOperations(t *testing.T) {
	kv := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, kv.SetMany(ctx, []store.Entry{
		{Key: "pgtest:p1:b", Value: []byte("b")},
		{Key: "pgtest:p1:a", Value: []byte("a")},
		{Key: "pgtest:p1_x", Value: []byte("x")},
		{Key: "pgtest:P1:c", Value: []byte("c")},
	}))

	keys, err := kv.ListKeys(ctx, "pgtest:p1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"pgtest:p1:a", "pgtest:p1:b"}, keys)

	n, err := kv.RemovePrefix(ctx, "pgtest:p1:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err = kv.ListKeys(ctx, "pgtest:")
	require.NoError(t, err)
	assert.Equal(t, []string{"pgtest:P1:c", "pgtest:p1_x"}, keys)
}
