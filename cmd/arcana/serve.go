package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/arcana/internal/api"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(load)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openMigratedStorage(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			app, err := newApplication(ctx, cfg, log, st)
			if err != nil {
				return err
			}
			return app.serve(ctx)
		},
	}
}

func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Players:         app.players,
		Readings:        app.readings,
		Status:          app.status,
		JWTService:      app.jwtService,
		TokenLifetime:   time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute,
		DefaultLocation: app.location,
		Metrics:         app.metrics,
		Logger:          app.logger,
		HealthCheck:     app.storage.db.PingContext,
	})
}

// serve runs the HTTP server until ctx is canceled, then shuts it down
// gracefully.
func (app *application) serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			app.logger.Error("Server failed", "error", err)
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("Server shutdown completed")
	return nil
}
