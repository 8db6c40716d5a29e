package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/uk-towns-map/internal/controls"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/config"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/health"
	middleware "github.com/mohammed-shakir/uk-towns-map/internal/core/middleware"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/router"
)

type Deps struct {
	Maps     router.MapService
	Controls *controls.Controls
	Ready    health.Checker
	// Metrics is mounted at cfg.MetricsPath when set.
	Metrics http.Handler
}

// NewHandler builds the full route tree.
func NewHandler(cfg config.Config, logger *slog.Logger, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	if d.Ready != nil {
		r.Get("/readyz", health.Readiness(d.Ready))
	}
	if d.Metrics != nil {
		r.Handle(cfg.MetricsPath, d.Metrics)
	}
	router.Mount(r, logger, d.Maps, d.Controls)
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, d Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg, logger, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// reloads wait on the town service without a deadline of their own
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
