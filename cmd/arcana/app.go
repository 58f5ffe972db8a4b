package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/arcana/internal/calendar"
	"github.com/phrazzld/arcana/internal/config"
	"github.com/phrazzld/arcana/internal/domain/deck"
	"github.com/phrazzld/arcana/internal/domain/gating"
	"github.com/phrazzld/arcana/internal/events"
	"github.com/phrazzld/arcana/internal/interpretation"
	"github.com/phrazzld/arcana/internal/platform/cache"
	"github.com/phrazzld/arcana/internal/platform/gemini"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/platform/metrics"
	"github.com/phrazzld/arcana/internal/platform/migrations"
	"github.com/phrazzld/arcana/internal/platform/postgres"
	"github.com/phrazzld/arcana/internal/platform/ratelimit"
	"github.com/phrazzld/arcana/internal/platform/sqlite"
	"github.com/phrazzld/arcana/internal/service"
	"github.com/phrazzld/arcana/internal/service/auth"
	"github.com/phrazzld/arcana/internal/store"
)

// storage is an open database with its key-value view.
type storage struct {
	db      *sql.DB
	dialect string
	kv      store.KV
}

func (s *storage) Close() error {
	return s.db.Close()
}

// openStorage connects to the configured database and builds the raw
// key-value store over it. Migrations are not applied here.
func openStorage(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*storage, error) {
	dialect, err := migrations.DialectForDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	var (
		db *sql.DB
		kv store.KV
	)
	switch dialect {
	case migrations.DialectPostgres:
		db, err = postgres.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		kv = postgres.NewKVStore(db, log)
	default:
		db, err = sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		kv = sqlite.NewKVStore(db, log)
	}

	log.Info("Database connection established", "driver", cfg.Driver)
	return &storage{db: db, dialect: dialect, kv: kv}, nil
}

// openMigratedStorage opens storage and brings the schema up to date.
func openMigratedStorage(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*storage, error) {
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(ctx, st.db, st.dialect, migrations.CommandUp); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// application holds the shared dependencies of the serve and reset commands.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	storage *storage
	metrics metrics.Recorder

	jwtService auth.JWTService
	players    *service.PlayerService
	readings   *service.ReadingService
	status     *service.StatusService
	location   *time.Location
}

// newApplication wires services over already-open storage.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger, st *storage) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  log,
		storage: st,
		metrics: metrics.New(cfg.Metrics.Enabled),
	}

	var err error
	app.location, err = time.LoadLocation(cfg.Server.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid default timezone %q: %w", cfg.Server.DefaultTimezone, err)
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	log.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	kv := st.kv
	if cfg.Cache.Enabled {
		kv = cache.Wrap(kv, cache.Options{
			SizeMB:  cfg.Cache.SizeMB,
			TTL:     time.Duration(cfg.Cache.TTLSeconds) * time.Second,
			Metrics: app.metrics,
			Logger:  log.With("component", "kv_cache"),
		})
	}

	emitter := events.NewDispatcher(log, app.metrics)
	emitter.Subscribe(events.NewMetricsHandler(app.metrics), events.Types()...)
	emitter.Subscribe(events.NewLogHandler(log.With("component", "events")))

	d, err := deck.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load card deck: %w", err)
	}

	deps := service.Deps{
		Records: store.NewRecords(kv),
		Locker:  store.NewKeyLocker(),
		Engines: service.NewEngines(d, nil, gatingParams(cfg.Gating)),
		Events:  emitter,
		Clock:   calendar.SystemClock(),
		Logger:  log,
	}

	interpreter, err := newInterpreter(ctx, cfg.LLM, log)
	if err != nil {
		return nil, err
	}
	limiter := newLimiter(cfg.RateLimit, log)

	if app.players, err = service.NewPlayerService(deps); err != nil {
		return nil, err
	}
	if app.readings, err = service.NewReadingService(deps, interpreter, limiter); err != nil {
		return nil, err
	}
	if app.status, err = service.NewStatusService(deps); err != nil {
		return nil, err
	}
	return app, nil
}

func gatingParams(cfg config.GatingConfig) gating.Params {
	return gating.Params{
		MaxAnotherTopicPerDay: cfg.MaxAnotherTopicPerDay,
		MaxClarifierPerDay:    cfg.MaxClarifierPerDay,
		AdCooldown:            time.Duration(cfg.AdCooldownSeconds) * time.Second,
	}
}

// newInterpreter returns the Gemini interpreter, or a disabled one when no
// API key is configured.
func newInterpreter(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (interpretation.Interpreter, error) {
	if cfg.GeminiAPIKey == "" {
		log.Warn("no Gemini API key configured, interpretation is disabled")
		return interpretation.Disabled("no Gemini API key configured"), nil
	}
	interpreter, err := gemini.NewInterpreter(ctx, log.With("component", "interpreter"), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize interpreter: %w", err)
	}
	log.Info("Gemini interpreter initialized", "model", cfg.ModelName)
	return interpreter, nil
}

func newLimiter(cfg config.RateLimitConfig, log *slog.Logger) ratelimit.Limiter {
	if cfg.URL == "" {
		return ratelimit.AllowAll()
	}
	return ratelimit.NewClient(cfg.URL, time.Duration(cfg.TimeoutSeconds)*time.Second,
		log.With("component", "ratelimit"))
}

// setup loads configuration and installs the logger, the shared first step
// of every command.
func setup(load configLoader) (*config.Config, *slog.Logger, error) {
	cfg, err := load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"database_driver", cfg.Database.Driver,
		"default_timezone", cfg.Server.DefaultTimezone)
	return cfg, log, nil
}
