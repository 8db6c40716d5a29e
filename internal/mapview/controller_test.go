package mapview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/uk-towns-map/internal/core/model"
	"github.com/mohammed-shakir/uk-towns-map/internal/logger"
	"github.com/mohammed-shakir/uk-towns-map/internal/projection"
	"github.com/mohammed-shakir/uk-towns-map/internal/towns"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	gates map[int]chan struct{}
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, limit int) ([]model.TownRecord, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gates[limit]
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := make([]model.TownRecord, 0, limit)
	for i := 1; i <= limit; i++ {
		out = append(out, model.TownRecord{
			Town:       "Town" + string(rune('A'+i-1)),
			County:     "County",
			Population: i * 100,
			Lng:        -2 + float64(i)*0.1,
			Lat:        53,
		})
	}
	return out, nil
}

func (f *fakeFetcher) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

var loadedAt = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newController(t *testing.T, f towns.Fetcher, logBuf *bytes.Buffer) *Controller {
	t.Helper()
	var log *slog.Logger
	if logBuf != nil {
		zl := logger.Build(logger.Config{Level: "debug", Component: "mapview"}, logBuf)
		log = logger.NewSlog(&zl)
	} else {
		log = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	}
	proj := projection.ForCanvas(orb.Point{-2.5, 55.5}, 3200, 800, 1000)
	return New(f, proj, log, Options{
		Width:  800,
		Height: 1000,
		Clock:  clockwork.NewFakeClockAt(loadedAt),
	})
}

func TestReload_AppliesAndStamps(t *testing.T) {
	c := newController(t, &fakeFetcher{}, nil)

	if err := c.Ready(context.Background()); err == nil {
		t.Fatalf("controller should not be ready before the first reload")
	}

	res, err := c.Reload(context.Background(), 5, model.ModeBubble)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !res.Applied || res.Markers != 5 || res.Seq != 1 {
		t.Fatalf("result=%+v", res)
	}

	st := c.State()
	if st.Revision != 1 || st.Limit != 5 || st.MaxPopulation != 500 || st.Legend {
		t.Fatalf("state=%+v", st)
	}
	if st.LoadedAt == nil || !st.LoadedAt.Equal(loadedAt) {
		t.Fatalf("loadedAt=%v want %v", st.LoadedAt, loadedAt)
	}
	if st.Towns[4].Radius != 20 {
		t.Fatalf("largest radius=%v want 20", st.Towns[4].Radius)
	}
	if err := c.Ready(context.Background()); err != nil {
		t.Fatalf("Ready: %v", err)
	}
}

func TestReload_ModeSwitchReplacesMarkersAndLegend(t *testing.T) {
	c := newController(t, &fakeFetcher{}, nil)
	ctx := context.Background()

	if _, err := c.Reload(ctx, 4, model.ModeHeatMap); err != nil {
		t.Fatalf("Reload heat: %v", err)
	}
	st := c.State()
	if !st.Legend || st.Mode != model.ModeHeatMap || st.Towns[3].Fill != "#800026" {
		t.Fatalf("heat state=%+v", st)
	}

	if _, err := c.Reload(ctx, 2, model.ModeBubble); err != nil {
		t.Fatalf("Reload bubble: %v", err)
	}
	st = c.State()
	if st.Legend || st.Markers != 2 || st.Mode != model.ModeBubble {
		t.Fatalf("bubble state=%+v", st)
	}
	for _, town := range st.Towns {
		if town.Fill != "blue" {
			t.Fatalf("%s fill=%q want blue", town.Town, town.Fill)
		}
	}
}

func TestReload_FetchErrorKeepsSceneAndLogsOnce(t *testing.T) {
	var logs bytes.Buffer
	f := &fakeFetcher{}
	c := newController(t, f, &logs)
	ctx := context.Background()

	if _, err := c.Reload(ctx, 3, model.ModeBubble); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	before := c.State()

	f.fail(&towns.DataFetchError{Limit: 3, Err: errors.New("connection refused")})
	_, err := c.Reload(ctx, 7, model.ModeHeatMap)
	var dfe *towns.DataFetchError
	if !errors.As(err, &dfe) {
		t.Fatalf("err=%v want *DataFetchError", err)
	}

	after := c.State()
	if after.Revision != before.Revision || after.Markers != 3 || after.Mode != model.ModeBubble || after.Legend {
		t.Fatalf("scene changed after failed fetch: before=%+v after=%+v", before, after)
	}

	n := 0
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if m["msg"] == "error fetching town data" {
			n++
			if m["level"] != "error" {
				t.Fatalf("level=%v want error", m["level"])
			}
		}
	}
	if n != 1 {
		t.Fatalf("error log lines=%d want 1", n)
	}
}

func TestReload_SupersededResponseIsDropped(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeFetcher{gates: map[int]chan struct{}{1: gate}}
	c := newController(t, f, nil)
	ctx := context.Background()

	type out struct {
		res Result
		err error
	}
	slow := make(chan out, 1)
	go func() {
		res, err := c.Reload(ctx, 1, model.ModeBubble)
		slow <- out{res, err}
	}()

	// wait until the slow reload has taken its sequence number
	deadline := time.Now().Add(2 * time.Second)
	for {
		f.mu.Lock()
		calls := f.calls
		f.mu.Unlock()
		if calls == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("slow reload never started")
		}
		time.Sleep(time.Millisecond)
	}

	res, err := c.Reload(ctx, 3, model.ModeHeatMap)
	if err != nil || !res.Applied {
		t.Fatalf("newer reload res=%+v err=%v", res, err)
	}

	close(gate)
	o := <-slow
	if o.err != nil {
		t.Fatalf("slow reload err=%v", o.err)
	}
	if o.res.Applied {
		t.Fatalf("older response must not be applied")
	}

	st := c.State()
	if st.Markers != 3 || st.Mode != model.ModeHeatMap || st.Revision != 1 {
		t.Fatalf("state=%+v want the newer reload", st)
	}
}

func TestHover_Tooltip(t *testing.T) {
	c := newController(t, &fakeFetcher{}, nil)
	if _, err := c.Reload(context.Background(), 2, model.ModeBubble); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if c.Hover("Nowhere", 1, 1) {
		t.Fatalf("unknown town should not hover")
	}
	if !c.Hover("TownB", 100, 50) {
		t.Fatalf("hover TownB failed")
	}
	tt := c.State().Tooltip
	if !tt.Visible || tt.Left != 110 || tt.Top != 40 || tt.Lines[1] != "Population: 200" {
		t.Fatalf("tooltip=%+v", tt)
	}
	c.Unhover()
	if c.State().Tooltip.Visible {
		t.Fatalf("tooltip visible after unhover")
	}
}

func TestWriteSVG_CachedPerRevision(t *testing.T) {
	c := newController(t, &fakeFetcher{}, nil)
	ctx := context.Background()
	if _, err := c.Reload(ctx, 2, model.ModeBubble); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	var a, b bytes.Buffer
	if err := c.WriteSVG(&a); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	if err := c.WriteSVG(&b); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	if a.String() != b.String() {
		t.Fatalf("same revision rendered differently")
	}
	if c.outputs.lru.Len() != 1 {
		t.Fatalf("cache entries=%d want 1", c.outputs.lru.Len())
	}

	if _, err := c.Reload(ctx, 3, model.ModeBubble); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	var d bytes.Buffer
	if err := c.WriteSVG(&d); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	if got := strings.Count(d.String(), `class="town-group"`); got != 3 {
		t.Fatalf("town groups=%d want 3", got)
	}
}

func TestWritePNG(t *testing.T) {
	c := newController(t, &fakeFetcher{}, nil)
	if _, err := c.Reload(context.Background(), 2, model.ModeHeatMap); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	var buf bytes.Buffer
	if err := c.WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
}
