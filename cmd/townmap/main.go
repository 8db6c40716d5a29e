package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/uk-towns-map/internal/cache/redisstore"
	"github.com/mohammed-shakir/uk-towns-map/internal/controls"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/config"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/health"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/httpclient"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/model"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/server"
	"github.com/mohammed-shakir/uk-towns-map/internal/geo/boundary"
	"github.com/mohammed-shakir/uk-towns-map/internal/logger"
	"github.com/mohammed-shakir/uk-towns-map/internal/mapview"
	"github.com/mohammed-shakir/uk-towns-map/internal/metrics"
	"github.com/mohammed-shakir/uk-towns-map/internal/projection"
	"github.com/mohammed-shakir/uk-towns-map/internal/towns"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "townmap",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting townmap",
		"addr", cfg.Addr,
		"version", Version,
		"towns_url", cfg.TownsURL,
		"boundary", cfg.BoundaryPath)

	provider := metrics.Init(metrics.Config{
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})

	mode, err := model.ParseMode(cfg.Controls.DefaultMode)
	if err != nil {
		appLog.Error("invalid DEFAULT_MODE", "err", err)
		return 1
	}

	proj := projection.ForCanvas(
		orb.Point{cfg.Projection.CenterLng, cfg.Projection.CenterLat},
		cfg.Projection.Scale, cfg.MapWidth, cfg.MapHeight)

	base, err := boundary.Load(cfg.BoundaryPath, proj)
	if err != nil {
		appLog.Error("failed to load boundary data", "path", cfg.BoundaryPath, "err", err)
		return 1
	}
	appLog.Info("boundary loaded", "shapes", len(base.Shapes))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := towns.NewClient(appLog, httpclient.NewOutbound(cfg.TownsTimeout), cfg.TownsURL)
	if err != nil {
		appLog.Error("failed to initialize town data client", "err", err)
		return 1
	}
	var fetcher towns.Fetcher = client
	// reloads within the ttl reuse the cached list
	if cfg.RedisAddr != "" && cfg.TownsCacheTTL > 0 {
		store, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis init failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = store.Close() }()
		fetcher = towns.NewCachedClient(client, store, client.BaseURL(), cfg.TownsCacheTTL, cfg.CacheOpTimeout, appLog)
		appLog.Info("town data cache enabled", "redis", cfg.RedisAddr, "ttl", cfg.TownsCacheTTL)
	}

	maps := mapview.New(fetcher, proj, appLog, mapview.Options{
		Width:           cfg.MapWidth,
		Height:          cfg.MapHeight,
		Base:            base,
		OutputCacheSize: cfg.RenderCacheSize,
	})

	ctl := controls.New(cfg.Controls.SliderMin, cfg.Controls.SliderMax, cfg.Controls.DefaultLimit, mode)
	ctl.OnReload(func(ctx context.Context, limit int, mode model.DisplayMode) error {
		_, err := maps.Reload(ctx, limit, mode)
		return err
	})

	var ready health.Checker = health.CheckerFunc(func(context.Context) error { return nil })
	if cfg.ReloadOnStart {
		ready = maps
		go func() {
			// failures are already logged by the controller
			_ = ctl.Reload(ctx)
		}()
	}

	deps := server.Deps{Maps: maps, Controls: ctl, Ready: ready}
	if cfg.MetricsEnabled {
		startMetricsServer(ctx, cfg, provider, appLog)
	} else {
		deps.Metrics = provider.Handler()
	}

	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

// startMetricsServer serves the registry on its own listener until ctx ends.
func startMetricsServer(ctx context.Context, cfg config.Config, p *metrics.Provider, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.MetricsPath, p.Handler())

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("metrics listen", "addr", cfg.MetricsAddr, "path", cfg.MetricsPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server exited", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics shutdown", "err", err)
		}
	}()
}
