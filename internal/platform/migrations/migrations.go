// Package migrations applies the embedded goose migrations for each
// supported database dialect.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/pressly/goose/v3"
)

//go:embed sql/postgres/*.sql sql/sqlite/*.sql
var embedded embed.FS

// TableName is the goose version table.
const TableName = "schema_migrations"

// Supported dialects, named as goose names them.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// Supported commands.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandReset   = "reset"
	CommandStatus  = "status"
	CommandVersion = "version"
)

var dirs = map[string]string{
	DialectPostgres: "sql/postgres",
	DialectSQLite:   "sql/sqlite",
}

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// slogGooseLogger adapts the goose logger interface to use slog
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements the goose.Logger Printf method by forwarding messages to slog.Info
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method. It does not exit; the
// error is returned to the caller instead.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// DialectForDriver maps a configured database driver to a goose dialect.
func DialectForDriver(driver string) (string, error) {
	switch driver {
	case "postgres", "pgx":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Run executes a migration command against db.
func Run(ctx context.Context, db *sql.DB, dialect, command string) error {
	dir, ok := dirs[dialect]
	if !ok {
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	migrationLogger := logger.FromContext(ctx).With(
		"correlation_id", uuid.New().String(),
		"component", "migrations",
		"command", command,
		"dialect", dialect,
	)

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(&slogGooseLogger{logger: migrationLogger})
	goose.SetBaseFS(embedded)
	goose.SetTableName(TableName)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	start := time.Now()
	var err error
	switch command {
	case CommandUp:
		err = goose.UpContext(ctx, db, dir)
	case CommandDown:
		err = goose.DownContext(ctx, db, dir)
	case CommandReset:
		err = goose.ResetContext(ctx, db, dir)
	case CommandStatus:
		err = goose.StatusContext(ctx, db, dir)
	case CommandVersion:
		err = goose.VersionContext(ctx, db, dir)
	default:
		return fmt.Errorf("unknown migration command: %s (expected up, down, reset, status, or version)", command)
	}
	if err != nil {
		migrationLogger.Error("migration failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	migrationLogger.Debug("migration completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// CurrentVersion returns the latest applied migration version.
func CurrentVersion(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetTableName(TableName)
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}
