// Package mapview owns the map scene and runs reloads against it.
package mapview

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mohammed-shakir/uk-towns-map/internal/core/model"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/observability"
	"github.com/mohammed-shakir/uk-towns-map/internal/geo/boundary"
	"github.com/mohammed-shakir/uk-towns-map/internal/logger"
	"github.com/mohammed-shakir/uk-towns-map/internal/render"
	"github.com/mohammed-shakir/uk-towns-map/internal/scale"
	"github.com/mohammed-shakir/uk-towns-map/internal/towns"
)

// reload outcomes, used as metric labels
const (
	outcomeApplied = "applied"
	outcomeStale   = "stale"
	outcomeError   = "error"
)

type Options struct {
	Width, Height   int
	Base            *boundary.Layer
	Clock           clockwork.Clock
	OutputCacheSize int
}

// Controller serializes access to the single shared scene. Fetches run
// without the lock; only the newest reload may apply its records.
type Controller struct {
	fetcher towns.Fetcher
	proj    render.Projector
	legend  render.LegendRenderer
	clock   clockwork.Clock
	logger  *slog.Logger

	issued atomic.Uint64

	mu      sync.RWMutex
	scene   *render.Scene
	limit   int
	maxPop  int
	outputs *outputCache
}

// Result describes one reload call.
type Result struct {
	Seq     uint64 `json:"seq"`
	Applied bool   `json:"applied"`
	Markers int    `json:"markers"`
}

func New(f towns.Fetcher, p render.Projector, log *slog.Logger, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		fetcher: f,
		proj:    p,
		legend:  render.NewLegendRenderer(),
		clock:   opts.Clock,
		logger:  log,
		scene:   render.NewScene(opts.Width, opts.Height, opts.Base),
		outputs: newOutputCache(opts.OutputCacheSize),
	}
}

// Reload fetches limit towns and redraws the scene in mode. On a fetch
// error the scene is left as it was and the error is returned. A response
// that arrives after a newer Reload was issued is dropped with
// Applied=false.
func (c *Controller) Reload(ctx context.Context, limit int, mode model.DisplayMode) (Result, error) {
	seq := c.issued.Add(1)
	ctx = logger.WithReloadSeq(logger.WithMode(ctx, mode.String()), seq)
	res := Result{Seq: seq}

	records, err := c.fetcher.Fetch(ctx, limit)
	if err != nil {
		c.logger.ErrorContext(ctx, "error fetching town data", "limit", limit, "err", err)
		observability.IncTownFetchError()
		observability.IncReload(mode.String(), outcomeError)
		return res, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.issued.Load() {
		c.logger.DebugContext(ctx, "dropping superseded town data", "latest", c.issued.Load())
		observability.IncReload(mode.String(), outcomeStale)
		return res, nil
	}

	c.applyLocked(records, limit, mode)
	res.Applied = true
	res.Markers = c.scene.MarkerCount()

	observability.IncReload(mode.String(), outcomeApplied)
	observability.SetMarkers(mode.String(), res.Markers, modeNames()...)
	c.logger.InfoContext(ctx, "map reloaded", "limit", limit, "markers", res.Markers, "max_population", c.maxPop)
	return res, nil
}

func (c *Controller) applyLocked(records []model.TownRecord, limit int, mode model.DisplayMode) {
	scales := scale.Build(records, mode)
	render.For(mode).Render(c.scene, records, scales, c.proj)
	if mode == model.ModeHeatMap && scales.Color != nil {
		c.legend.Render(c.scene, *scales.Color, scales.Max)
	} else {
		c.legend.Hide(c.scene)
	}
	c.scene.Revision++
	c.scene.LoadedAt = c.clock.Now()
	c.limit = limit
	c.maxPop = scales.Max
}

// Hover shows the tooltip for town. It reports false for an unknown town.
// The tooltip is not part of the rendered map, so the revision is kept.
func (c *Controller) Hover(town string, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene.Hover(town, x, y)
}

func (c *Controller) Unhover() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scene.Unhover()
}

// State is a read-only summary of the scene.
type State struct {
	Mode          model.DisplayMode `json:"mode,omitempty"`
	Revision      uint64            `json:"revision"`
	Limit         int               `json:"limit"`
	Markers       int               `json:"markers"`
	MaxPopulation int               `json:"maxPopulation"`
	Legend        bool              `json:"legend"`
	Tooltip       render.Tooltip    `json:"tooltip"`
	LoadedAt      *time.Time        `json:"loadedAt,omitempty"`
	Towns         []TownState       `json:"towns"`
}

type TownState struct {
	Town       string  `json:"town"`
	County     string  `json:"county"`
	Population int     `json:"population"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	Fill       string  `json:"fill"`
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.scene
	st := State{
		Mode:          s.Mode,
		Revision:      s.Revision,
		Limit:         c.limit,
		Markers:       s.MarkerCount(),
		MaxPopulation: c.maxPop,
		Legend:        s.Legend != nil,
		Tooltip:       s.Tooltip,
		Towns:         make([]TownState, 0, s.MarkerCount()),
	}
	if !s.LoadedAt.IsZero() {
		t := s.LoadedAt
		st.LoadedAt = &t
	}
	for _, m := range s.Markers() {
		st.Towns = append(st.Towns, TownState{
			Town:       m.Key,
			County:     m.Record.County,
			Population: m.Record.Population,
			X:          m.X,
			Y:          m.Y,
			Radius:     m.Radius.To,
			Fill:       m.Fill,
		})
	}
	return st
}

// Ready reports an error until the first reload has been applied.
func (c *Controller) Ready(context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.scene.LoadedAt.IsZero() {
		return errNotLoaded
	}
	return nil
}

var errNotLoaded = errors.New("no town data loaded yet")

func modeNames() []string {
	out := make([]string, len(model.Modes))
	for i, m := range model.Modes {
		out[i] = m.String()
	}
	return out
}
