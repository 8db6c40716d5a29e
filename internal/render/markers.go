package render

import (
	"time"

	"github.com/mohammed-shakir/uk-towns-map/internal/core/model"
	"github.com/mohammed-shakir/uk-towns-map/internal/scale"
)

const (
	TransitionDuration = 500 * time.Millisecond
	BubbleFill         = "blue"
	HeatOpacity        = 0.6
	LabelDY            = -10
	LabelFontSize      = 10
	LabelFill          = "#333"
)

// Projector maps a coordinate to canvas pixels.
type Projector interface {
	Project(lng, lat float64) (x, y float64)
}

// Transition animates a numeric attribute from From to To.
type Transition struct {
	From, To float64
}

// Marker is one town: a group positioned at the projected coordinate with a
// circle and a label above it.
type Marker struct {
	Key     string
	Record  model.TownRecord
	X, Y    float64
	Fill    string
	Radius  Transition
	Opacity Transition
	// Animated is false for attributes that are static (bubble opacity).
	OpacityAnimated bool
	Duration        time.Duration
	Ease            Easing
	Label           string
}

// Renderer draws one display mode into a scene.
type Renderer interface {
	Render(s *Scene, records []model.TownRecord, scales scale.Pair, p Projector)
}

type BubbleRenderer struct{}

// Render replaces every marker with a blue circle per record.
func (BubbleRenderer) Render(s *Scene, records []model.TownRecord, scales scale.Pair, p Projector) {
	drawMarkers(s, records, scales, p, func(_ model.TownRecord, m *Marker) {
		m.Fill = BubbleFill
		m.Opacity = Transition{From: 1, To: 1}
	})
	s.Mode = model.ModeBubble
}

type HeatRenderer struct{}

// Render replaces every marker with a circle colored by population that
// fades in to HeatOpacity. scales.Color must be set.
func (HeatRenderer) Render(s *Scene, records []model.TownRecord, scales scale.Pair, p Projector) {
	color := scales.Color
	if color == nil {
		c := scale.NewSequential(float64(scales.Max), scale.YlOrRd)
		color = &c
	}
	drawMarkers(s, records, scales, p, func(r model.TownRecord, m *Marker) {
		m.Fill = color.Hex(float64(r.Population))
		m.Opacity = Transition{From: 0, To: HeatOpacity}
		m.OpacityAnimated = true
	})
	s.Mode = model.ModeHeatMap
}

// For returns the renderer for a display mode.
func For(mode model.DisplayMode) Renderer {
	if mode == model.ModeHeatMap {
		return HeatRenderer{}
	}
	return BubbleRenderer{}
}

func drawMarkers(s *Scene, records []model.TownRecord, scales scale.Pair, p Projector, style func(model.TownRecord, *Marker)) {
	s.ClearMarkers()
	for _, r := range records {
		x, y := p.Project(r.Lng, r.Lat)
		m := &Marker{
			Key:      r.Town,
			Record:   r,
			X:        x,
			Y:        y,
			Radius:   Transition{From: 0, To: scales.Radius.Apply(float64(r.Population))},
			Duration: TransitionDuration,
			Ease:     BounceOut,
			Label:    r.Town,
		}
		style(r, m)
		s.appendMarker(m)
	}
}
