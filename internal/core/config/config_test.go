package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.Addr != ":8090" {
		t.Fatalf("Addr=%q want :8090", cfg.Addr)
	}
	if cfg.MapWidth != 800 || cfg.MapHeight != 1000 {
		t.Fatalf("map size=%dx%d want 800x1000", cfg.MapWidth, cfg.MapHeight)
	}
	if cfg.Projection.CenterLng != -2.5 || cfg.Projection.CenterLat != 55.5 || cfg.Projection.Scale != 3200 {
		t.Fatalf("unexpected projection: %+v", cfg.Projection)
	}
	if cfg.TownsTimeout != 0 {
		t.Fatalf("TownsTimeout=%v want 0 (no timeout)", cfg.TownsTimeout)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("RedisAddr=%q want empty", cfg.RedisAddr)
	}
	if cfg.Controls.DefaultMode != "bubble" {
		t.Fatalf("DefaultMode=%q want bubble", cfg.Controls.DefaultMode)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TOWNS_URL", "http://towns.local/api")
	t.Setenv("TOWNS_TIMEOUT", "3s")
	t.Setenv("PROJ_SCALE", "2500.5")
	t.Setenv("METRICS_ENABLED", "yes")
	t.Setenv("DEFAULT_MODE", "HeatMap")
	t.Setenv("TOWNS_CACHE_TTL", "45s")

	cfg := FromEnv()
	if cfg.TownsURL != "http://towns.local/api" {
		t.Fatalf("TownsURL=%q", cfg.TownsURL)
	}
	if cfg.TownsTimeout != 3*time.Second {
		t.Fatalf("TownsTimeout=%v want 3s", cfg.TownsTimeout)
	}
	if cfg.Projection.Scale != 2500.5 {
		t.Fatalf("Scale=%v want 2500.5", cfg.Projection.Scale)
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("MetricsEnabled=false want true")
	}
	if cfg.TownsCacheTTL != 45*time.Second {
		t.Fatalf("TownsCacheTTL=%v want 45s", cfg.TownsCacheTTL)
	}
	if cfg.Controls.DefaultMode != "heatmap" {
		t.Fatalf("DefaultMode=%q want heatmap", cfg.Controls.DefaultMode)
	}
}

func TestFromEnv_ClampsLimitIntoSliderRange(t *testing.T) {
	t.Setenv("SLIDER_MIN", "0")
	t.Setenv("SLIDER_MAX", "20")
	t.Setenv("DEFAULT_LIMIT", "500")

	cfg := FromEnv()
	if cfg.Controls.SliderMin != 1 {
		t.Fatalf("SliderMin=%d want 1", cfg.Controls.SliderMin)
	}
	if cfg.Controls.DefaultLimit != 20 {
		t.Fatalf("DefaultLimit=%d want 20", cfg.Controls.DefaultLimit)
	}
}

func TestFromEnv_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("MAP_WIDTH", "wide")
	t.Setenv("TOWNS_CACHE_TTL", "soon")

	cfg := FromEnv()
	if cfg.MapWidth != 800 {
		t.Fatalf("MapWidth=%d want default 800", cfg.MapWidth)
	}
	if cfg.TownsCacheTTL != 0 {
		t.Fatalf("TownsCacheTTL=%v want 0 (cache off)", cfg.TownsCacheTTL)
	}
}
