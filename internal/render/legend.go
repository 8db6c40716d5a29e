package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mohammed-shakir/uk-towns-map/internal/scale"
)

const (
	LegendGradientID = "legend-gradient"
	legendWidth      = 180
	legendHeight     = 10
	legendFontSize   = 12
	legendInsetRight = 200
	legendInsetTop   = 20
)

type GradientStop struct {
	Offset uint8 // percent
	Color  string
}

type LegendText struct {
	X, Y   int
	Anchor string // "" means start
	Text   string
}

// Legend is the heat-map key: a horizontal gradient swatch with labels.
type Legend struct {
	X, Y          int
	Stops         []GradientStop
	Width, Height int
	FontSize      int
	Labels        []LegendText
}

// LegendRenderer formats the population range for the en-GB locale.
type LegendRenderer struct {
	printer *message.Printer
}

func NewLegendRenderer() LegendRenderer {
	return LegendRenderer{printer: message.NewPrinter(language.BritishEnglish)}
}

// Render replaces the scene legend with one describing color over [0, max].
func (r LegendRenderer) Render(s *Scene, color scale.Sequential, max int) {
	s.Legend = nil

	p := r.printer
	if p == nil {
		p = message.NewPrinter(language.BritishEnglish)
	}
	s.Legend = &Legend{
		X: s.Width - legendInsetRight,
		Y: legendInsetTop,
		Stops: []GradientStop{
			{Offset: 0, Color: color.Hex(0)},
			{Offset: 100, Color: color.Hex(float64(max))},
		},
		Width:    legendWidth,
		Height:   legendHeight,
		FontSize: legendFontSize,
		Labels: []LegendText{
			{X: 0, Y: 25, Text: "Low"},
			{X: 160, Y: 25, Anchor: "end", Text: "High"},
			{X: 90, Y: 40, Anchor: "middle", Text: p.Sprintf("Population (0 - %d)", max)},
		},
	}
}

// Hide removes the legend from the scene.
func (LegendRenderer) Hide(s *Scene) {
	s.Legend = nil
}
