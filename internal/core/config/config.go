package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type ProjectionCfg struct {
	CenterLng float64
	CenterLat float64
	Scale     float64
}

type ControlsCfg struct {
	SliderMin    int
	SliderMax    int
	DefaultLimit int
	DefaultMode  string
}

type Config struct {
	Addr            string
	LogLevel        string
	LogConsole      bool
	LogSampleN      int
	TownsURL        string
	TownsTimeout    time.Duration
	BoundaryPath    string
	MapWidth        int
	MapHeight       int
	Projection      ProjectionCfg
	Controls        ControlsCfg
	RedisAddr       string
	TownsCacheTTL   time.Duration
	CacheOpTimeout  time.Duration
	RenderCacheSize int
	ReloadOnStart   bool
	MetricsEnabled  bool
	MetricsAddr     string
	MetricsPath     string
}

func FromEnv() Config {
	sliderMin := getint("SLIDER_MIN", 1)
	sliderMax := getint("SLIDER_MAX", 1000)
	if sliderMin < 1 {
		sliderMin = 1
	}
	if sliderMax < sliderMin {
		sliderMax = sliderMin
	}
	limit := getint("DEFAULT_LIMIT", 50)
	if limit < sliderMin {
		limit = sliderMin
	}
	if limit > sliderMax {
		limit = sliderMax
	}

	return Config{
		Addr:         getenv("ADDR", ":8090"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogConsole:   getbool("LOG_CONSOLE", false),
		LogSampleN:   getint("LOG_SAMPLE_N", 0),
		TownsURL:     getenv("TOWNS_URL", "http://34.147.162.172/Circles/Towns"),
		TownsTimeout: getduration("TOWNS_TIMEOUT", 0),
		BoundaryPath: getenv("BOUNDARY_PATH", "uk.geojson"),
		MapWidth:     getint("MAP_WIDTH", 800),
		MapHeight:    getint("MAP_HEIGHT", 1000),
		Projection: ProjectionCfg{
			CenterLng: getfloat("PROJ_CENTER_LNG", -2.5),
			CenterLat: getfloat("PROJ_CENTER_LAT", 55.5),
			Scale:     getfloat("PROJ_SCALE", 3200),
		},
		Controls: ControlsCfg{
			SliderMin:    sliderMin,
			SliderMax:    sliderMax,
			DefaultLimit: limit,
			DefaultMode:  strings.ToLower(getenv("DEFAULT_MODE", "bubble")),
		},
		RedisAddr:       getenv("REDIS_ADDR", ""),
		TownsCacheTTL:   getduration("TOWNS_CACHE_TTL", 0),
		CacheOpTimeout:  getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		RenderCacheSize: getint("RENDER_CACHE_SIZE", 32),
		ReloadOnStart:   getbool("RELOAD_ON_START", true),
		MetricsEnabled:  getbool("METRICS_ENABLED", false),
		MetricsAddr:     getenv("METRICS_ADDR", ":9090"),
		MetricsPath:     getenv("METRICS_PATH", "/metrics"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
