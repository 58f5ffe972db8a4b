package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/arcana/internal/platform/sqlkv"
	"github.com/phrazzld/arcana/internal/store"
)

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

// Open opens a PostgreSQL connection pool and verifies it with a ping.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Dialect returns the PostgreSQL statements for the kv_entries table.
func Dialect() sqlkv.Dialect {
	return sqlkv.Dialect{
		Name:     "postgres",
		GetQuery: `SELECT value FROM kv_entries WHERE key = $1`,
		UpsertQuery: `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		DeleteQuery:       `DELETE FROM kv_entries WHERE key = $1`,
		DeletePrefixQuery: `DELETE FROM kv_entries WHERE key LIKE $1 ESCAPE '\'`,
		ListPrefixQuery:   `SELECT key FROM kv_entries WHERE key LIKE $1 ESCAPE '\' ORDER BY key COLLATE "C"`,
		PrefixArgs: func(prefix string) []any {
			return []any{store.EscapeLike(prefix) + "%"}
		},
		MapError: MapError,
	}
}

// NewKVStore creates a store.KV over an open PostgreSQL pool.
// It panics on a nil db; a nil logger uses slog.Default().
func NewKVStore(db *sql.DB, logger *slog.Logger) *sqlkv.Store {
	return sqlkv.New(db, Dialect(), logger)
}
