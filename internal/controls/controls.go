// Package controls keeps the town-count slider, its numeric input and the
// readout consistent, and owns the selected display mode.
package controls

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/mohammed-shakir/uk-towns-map/internal/core/model"
)

// Source identifies which widget produced an update.
type Source string

const (
	SourceSlider Source = "slider"
	SourceInput  Source = "input"
)

// ReloadFunc re-drives the map for a limit and mode.
type ReloadFunc func(ctx context.Context, limit int, mode model.DisplayMode) error

var ErrNoReload = errors.New("controls: no reload function registered")

// State is the widget values as the page shows them.
type State struct {
	Slider    int               `json:"slider"`
	SliderMin int               `json:"sliderMin"`
	SliderMax int               `json:"sliderMax"`
	Input     string            `json:"input"`
	Readout   string            `json:"readout"`
	Mode      model.DisplayMode `json:"mode"`
}

type Controls struct {
	mu       sync.Mutex
	min, max int
	slider   int
	input    string
	readout  string
	mode     model.DisplayMode
	reload   ReloadFunc
}

// New starts every widget at initial (clamped to [lo, hi]). lo > hi is
// treated as a one-value range at lo.
func New(lo, hi, initial int, mode model.DisplayMode) *Controls {
	if hi < lo {
		hi = lo
	}
	c := &Controls{min: lo, max: hi, mode: mode}
	c.setSliderLocked(initial)
	return c
}

// SetSlider moves the slider; input and readout follow it.
func (c *Controls) SetSlider(v int) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setSliderLocked(v)
	return c.stateLocked()
}

// SetInput stores raw as typed. The slider follows when raw is numeric;
// the readout always shows raw.
func (c *Controls) SetInput(raw string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = raw
	c.readout = raw
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		// clamp before converting; out of range floats have no defined int
		c.slider = int(math.Round(min(max(f, float64(c.min)), float64(c.max))))
	}
	return c.stateLocked()
}

// Set dispatches to SetSlider or SetInput. A slider value that is not an
// integer leaves the state unchanged.
func (c *Controls) Set(src Source, value string) (State, error) {
	switch src {
	case SourceSlider:
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return c.State(), errors.New("slider value must be an integer")
		}
		return c.SetSlider(v), nil
	case SourceInput:
		return c.SetInput(value), nil
	default:
		return c.State(), errors.New(`source must be "slider" or "input"`)
	}
}

func (c *Controls) SetMode(m model.DisplayMode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

func (c *Controls) Mode() model.DisplayMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Limit is the town count the next reload will request.
func (c *Controls) Limit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slider
}

func (c *Controls) OnReload(fn ReloadFunc) {
	c.mu.Lock()
	c.reload = fn
	c.mu.Unlock()
}

// Reload calls the registered function with the current limit and mode.
// The lock is not held during the call.
func (c *Controls) Reload(ctx context.Context) error {
	c.mu.Lock()
	fn, limit, mode := c.reload, c.slider, c.mode
	c.mu.Unlock()
	if fn == nil {
		return ErrNoReload
	}
	return fn(ctx, limit, mode)
}

func (c *Controls) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controls) setSliderLocked(v int) {
	c.slider = c.clamp(v)
	c.input = strconv.Itoa(c.slider)
	c.readout = c.input
}

func (c *Controls) clamp(v int) int {
	return min(max(v, c.min), c.max)
}

func (c *Controls) stateLocked() State {
	return State{
		Slider:    c.slider,
		SliderMin: c.min,
		SliderMax: c.max,
		Input:     c.input,
		Readout:   c.readout,
		Mode:      c.mode,
	}
}
