package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/arcana/internal/api/middleware"
	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/platform/metrics"
	"github.com/phrazzld/arcana/internal/redact"
	"github.com/phrazzld/arcana/internal/service"
	"github.com/phrazzld/arcana/internal/service/auth"
)

// RouterConfig holds everything the HTTP layer depends on.
type RouterConfig struct {
	Players  *service.PlayerService
	Readings *service.ReadingService
	Status   *service.StatusService

	JWTService    auth.JWTService
	TokenLifetime time.Duration

	// DefaultLocation is pinned on players that register without an X-Timezone header.
	DefaultLocation *time.Location
	Metrics         metrics.Recorder
	Logger          *slog.Logger

	// HealthCheck reports storage reachability for GET /health. Optional.
	HealthCheck func(ctx context.Context) error
}

// NewRouter builds the chi router with middleware and every route.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Noop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(log))
	r.Use(apiMiddleware.NewMetricsMiddleware(recorder))
	r.Use(chimw.Recoverer)

	playerHandler := NewPlayerHandler(cfg.Players, cfg.JWTService, cfg.TokenLifetime, log)
	readingHandler := NewReadingHandler(cfg.Readings, log)
	statusHandler := NewStatusHandler(cfg.Status, log)
	authMiddleware := apiMiddleware.NewAuthMiddleware(cfg.JWTService)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware.NewTimezoneMiddleware(cfg.DefaultLocation))

		r.Post("/players", playerHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/player", playerHandler.GetProfile)
			r.Delete("/player", playerHandler.Reset)

			r.Post("/draws/today", readingHandler.DailyDraw)
			r.Get("/draws/{date}", readingHandler.GetDailyDraw)

			r.Post("/spreads", readingHandler.CreateSpread)
			r.Get("/spreads", readingHandler.ListSpreads)
			r.Route("/spreads/{id}", func(r chi.Router) {
				r.Get("/", readingHandler.GetSpread)
				r.Post("/complete", readingHandler.CompleteSpread)
				r.Post("/clarifier", readingHandler.AddClarifier)
				r.Post("/follow-up", readingHandler.AddFollowUp)
				r.Post("/interpretation", readingHandler.Interpret)
				r.Put("/reflection", readingHandler.SaveReflection)
			})

			r.Get("/gating", statusHandler.GatingStatus)
			r.Get("/rewards", statusHandler.RewardsStatus)
			r.Put("/rewards/skin", statusHandler.SelectSkin)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(r.Context()); err != nil {
				log.Error("health check failed", redact.ErrorAttr(err))
				shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
				return
			}
		}
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
	})
	r.Method(http.MethodGet, "/metrics", recorder.Handler())

	return r
}
