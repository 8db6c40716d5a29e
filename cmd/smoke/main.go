// Command smoke checks that the collaborators townmap depends on are
// reachable: the boundary file, the town data service and, when configured,
// Redis.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/uk-towns-map/internal/cache/redisstore"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/config"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/httpclient"
	"github.com/mohammed-shakir/uk-towns-map/internal/geo/boundary"
	"github.com/mohammed-shakir/uk-towns-map/internal/logger"
	"github.com/mohammed-shakir/uk-towns-map/internal/projection"
	"github.com/mohammed-shakir/uk-towns-map/internal/towns"
)

func testBoundary(cfg config.Config) error {
	fmt.Println("Boundary test")
	proj := projection.ForCanvas(orb.Point{cfg.Projection.CenterLng, cfg.Projection.CenterLat},
		cfg.Projection.Scale, cfg.MapWidth, cfg.MapHeight)
	layer, err := boundary.Load(cfg.BoundaryPath, proj)
	if err != nil {
		return err
	}
	fmt.Printf("boundary %s: %d shapes, bound %v\n", cfg.BoundaryPath, len(layer.Shapes), layer.Bound)
	return nil
}

func testTowns(ctx context.Context, cfg config.Config) error {
	fmt.Println("Town data test")
	zl := logger.Build(logger.Config{Level: "warn", Console: true, Component: "smoke"}, os.Stderr)
	client, err := towns.NewClient(logger.NewSlog(&zl), httpclient.NewOutbound(10*time.Second), cfg.TownsURL)
	if err != nil {
		return err
	}
	records, err := client.Fetch(ctx, 2)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("  %s (%s): %d at %.4f,%.4f\n", r.Town, r.County, r.Population, r.Lng, r.Lat)
	}
	return nil
}

func testRedis(ctx context.Context, addr string) error {
	fmt.Println("Redis test")
	store, err := redisstore.New(ctx, addr, redisstore.WithDialTimeout(2*time.Second))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Set(ctx, "townmap:smoke", []byte("ok"), 30*time.Second); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	val, ok, err := store.Get(ctx, "townmap:smoke")
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	fmt.Printf("redis GET townmap:smoke: %q (found=%v)\n", val, ok)
	return store.Del(ctx, "townmap:smoke")
}

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := testBoundary(cfg); err != nil {
		fmt.Println("Boundary error:", err)
		os.Exit(1)
	}
	if err := testTowns(ctx, cfg); err != nil {
		fmt.Println("Town data error:", err)
		os.Exit(1)
	}
	if cfg.RedisAddr != "" {
		if err := testRedis(ctx, cfg.RedisAddr); err != nil {
			fmt.Println("Redis error:", err)
			os.Exit(1)
		}
	}
	fmt.Println("All checks passed")
}
