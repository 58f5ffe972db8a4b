// Package sqlkv implements store.KV on a single kv_entries table through
// database/sql. The PostgreSQL and SQLite backends supply a Dialect with their
// placeholder syntax, prefix matching, and driver error mapping.
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/store"
)

// Dialect holds the backend-specific SQL.
type Dialect struct {
	Name string

	GetQuery          string
	UpsertQuery       string
	DeleteQuery       string
	DeletePrefixQuery string
	ListPrefixQuery   string

	// PrefixArgs builds the arguments for the prefix queries.
	PrefixArgs func(prefix string) []any

	// MapError translates driver errors into store errors.
	MapError func(err error) error
}

// Store is a store.KV backed by a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// New creates a Store. It panics on a nil db; a nil logger uses slog.Default().
func New(db *sql.DB, dialect Dialect, logger *slog.Logger) *Store {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", dialect.Name+"_kv_store")),
	}
}

// Ensure Store implements store.KV interface
var _ store.KV = (*Store)(nil)

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks connectivity to the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// Get implements store.KV.Get
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.dialect.GetQuery, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		s.log(ctx).Error("failed to get key", slog.String("key", key), slog.String("error", err.Error()))
		return nil, s.dialect.MapError(err)
	}
	return value, nil
}

// Set implements store.KV.Set
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.UpsertQuery, key, value); err != nil {
		s.log(ctx).Error("failed to set key", slog.String("key", key), slog.String("error", err.Error()))
		return s.dialect.MapError(err)
	}
	return nil
}

// SetMany implements store.KV.SetMany
func (s *Store) SetMany(ctx context.Context, entries []store.Entry) error {
	for _, e := range entries {
		if e.Key == "" {
			return store.ErrInvalidKey
		}
	}
	if len(entries) == 1 {
		return s.Set(ctx, entries[0].Key, entries[0].Value)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.dialect.UpsertQuery)
		if err != nil {
			return s.dialect.MapError(err)
		}
		defer func() { _ = stmt.Close() }()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.Key, e.Value); err != nil {
				return fmt.Errorf("set %s: %w", e.Key, s.dialect.MapError(err))
			}
		}
		return nil
	})
}

// Remove implements store.KV.Remove
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.DeleteQuery, key); err != nil {
		s.log(ctx).Error("failed to remove key", slog.String("key", key), slog.String("error", err.Error()))
		return s.dialect.MapError(err)
	}
	return nil
}

// RemovePrefix implements store.KV.RemovePrefix
func (s *Store) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, fmt.Errorf("%w: refusing to remove every key", store.ErrInvalidKey)
	}
	result, err := s.db.ExecContext(ctx, s.dialect.DeletePrefixQuery, s.dialect.PrefixArgs(prefix)...)
	if err != nil {
		s.log(ctx).Error("failed to remove prefix", slog.String("prefix", prefix), slog.String("error", err.Error()))
		return 0, s.dialect.MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// ListKeys implements store.KV.ListKeys
func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.ListPrefixQuery, s.dialect.PrefixArgs(prefix)...)
	if err != nil {
		s.log(ctx).Error("failed to list keys", slog.String("prefix", prefix), slog.String("error", err.Error()))
		return nil, s.dialect.MapError(err)
	}
	defer func() { _ = rows.Close() }()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, s.dialect.MapError(err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.MapError(err)
	}
	return keys, nil
}
