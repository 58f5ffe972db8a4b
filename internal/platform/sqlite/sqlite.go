// Package sqlite provides the SQLite key-value backend built on the pure-Go
// modernc.org/sqlite driver. It serves single-device deployments, local
// development and tests (":memory:").
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/arcana/internal/platform/sqlkv"
	"github.com/phrazzld/arcana/internal/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Open opens and pings a SQLite database. In-memory databases are limited to
// a single connection because every connection would otherwise see its own
// empty database.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(4)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Dialect returns the SQLite statements for the kv_entries table.
func Dialect() sqlkv.Dialect {
	return sqlkv.Dialect{
		Name:     "sqlite",
		GetQuery: `SELECT value FROM kv_entries WHERE key = ?`,
		UpsertQuery: `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		DeleteQuery: `DELETE FROM kv_entries WHERE key = ?`,
		// substr comparison keeps the match case-sensitive, unlike LIKE.
		DeletePrefixQuery: `DELETE FROM kv_entries WHERE substr(key, 1, length(?)) = ?`,
		ListPrefixQuery:   `SELECT key FROM kv_entries WHERE substr(key, 1, length(?)) = ? ORDER BY key`,
		PrefixArgs: func(prefix string) []any {
			return []any{prefix, prefix}
		},
		MapError: MapError,
	}
}

// NewKVStore creates a store.KV over an open SQLite database.
func NewKVStore(db *sql.DB, logger *slog.Logger) *sqlkv.Store {
	return sqlkv.New(db, Dialect(), logger)
}

// MapError maps a SQLite error to an appropriate store error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: database is busy: %v", store.ErrTransactionFailed, err)
		case sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: constraint violation: %v", store.ErrInvalidEntity, err)
		}
	}
	return err
}
