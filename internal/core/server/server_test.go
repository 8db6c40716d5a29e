package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/uk-towns-map/internal/controls"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/config"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/health"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/model"
	"github.com/mohammed-shakir/uk-towns-map/internal/logger"
	"github.com/mohammed-shakir/uk-towns-map/internal/mapview"
	"github.com/mohammed-shakir/uk-towns-map/internal/metrics"
	"github.com/mohammed-shakir/uk-towns-map/internal/projection"
)

// app collectors register into the first registry only
var provider = metrics.Init(metrics.Config{})

type oneTown struct{}

func (oneTown) Fetch(context.Context, int) ([]model.TownRecord, error) {
	return []model.TownRecord{{Town: "Leeds", County: "West Yorkshire", Population: 455123, Lng: -1.5491, Lat: 53.8008}}, nil
}

func newHandler(t *testing.T) (http.Handler, *mapview.Controller) {
	t.Helper()
	cfg := config.FromEnv()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	proj := projection.ForCanvas(orb.Point{-2.5, 55.5}, 3200, 800, 1000)
	maps := mapview.New(oneTown{}, proj, logger, mapview.Options{Width: 800, Height: 1000})
	ctl := controls.New(1, 1000, 50, model.ModeBubble)

	return NewHandler(cfg, logger, Deps{
		Maps:     maps,
		Controls: ctl,
		Ready:    maps,
		Metrics:  provider.Handler(),
	}), maps
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestHandler_HealthAndReadiness(t *testing.T) {
	h, maps := newHandler(t)

	if rr := serve(h, http.MethodGet, "/healthz"); rr.Code != http.StatusOK {
		t.Fatalf("healthz=%d want 200", rr.Code)
	}
	if rr := serve(h, http.MethodGet, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before load=%d want 503", rr.Code)
	}
	if _, err := maps.Reload(context.Background(), 1, model.ModeBubble); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if rr := serve(h, http.MethodGet, "/readyz"); rr.Code != http.StatusOK {
		t.Fatalf("readyz after load=%d want 200", rr.Code)
	}
}

func TestHandler_MetricsExposeAppCollectors(t *testing.T) {
	h, _ := newHandler(t)

	serve(h, http.MethodGet, "/api/state")
	rr := serve(h, http.MethodGet, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"app_build_info", "http_requests_total", `route="/api/state"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestHandler_UnknownRouteIs404(t *testing.T) {
	h, _ := newHandler(t)
	if rr := serve(h, http.MethodGet, "/query"); rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404", rr.Code)
	}
}

type panickyMaps struct{ *mapview.Controller }

func (panickyMaps) State() mapview.State { panic("state unavailable") }

func TestHandler_PanicLogCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	zl := logger.Build(logger.Config{Level: "debug", Component: "townmap"}, &buf)
	l := logger.NewSlog(&zl)
	proj := projection.ForCanvas(orb.Point{-2.5, 55.5}, 3200, 800, 1000)
	maps := mapview.New(oneTown{}, proj, l, mapview.Options{Width: 800, Height: 1000})
	h := NewHandler(config.FromEnv(), l, Deps{
		Maps:     panickyMaps{maps},
		Controls: controls.New(1, 10, 5, model.ModeBubble),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500", rr.Code)
	}

	found := false
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		if m["msg"] == "panic recovered" {
			found = true
			if m["request_id"] != "req-42" {
				t.Fatalf("panic log without request id: %v", m)
			}
		}
	}
	if !found {
		t.Fatalf("no panic log in %q", buf.String())
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := config.FromEnv()
	cfg.Addr = "127.0.0.1:0"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, cfg, logger, Deps{
		Controls: controls.New(1, 10, 5, model.ModeBubble),
		Ready:    health.CheckerFunc(func(context.Context) error { return errors.New("never") }),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}
