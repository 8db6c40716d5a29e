package scale

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Interpolator maps t in [0,1] to a color.
type Interpolator func(t float64) colorful.Color

// Sequential maps [0, max] onto a color ramp.
type Sequential struct {
	max    float64
	interp Interpolator
}

func NewSequential(max float64, interp Interpolator) Sequential {
	return Sequential{max: max, interp: interp}
}

func (s Sequential) Domain() (float64, float64) { return 0, s.max }

// Apply returns the color for v. A zero-extent domain maps to the low end.
func (s Sequential) Apply(v float64) colorful.Color {
	if s.max <= 0 {
		return s.interp(0)
	}
	return s.interp(v / s.max)
}

// Hex is Apply formatted as #rrggbb.
func (s Sequential) Hex(v float64) string {
	return s.Apply(v).Clamped().Hex()
}

var ylOrRdScheme = []string{
	"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c",
	"#fc4e2a", "#e31a1c", "#bd0026", "#800026",
}

// YlOrRd is the yellow-orange-red ramp, a uniform B-spline through the
// nine-class ColorBrewer scheme. It hits the first and last scheme colors
// exactly at t=0 and t=1.
var YlOrRd = rgbBasis(ylOrRdScheme)

func rgbBasis(hexes []string) Interpolator {
	r := make([]float64, len(hexes))
	g := make([]float64, len(hexes))
	b := make([]float64, len(hexes))
	for i, h := range hexes {
		c := mustHex(h)
		r[i], g[i], b[i] = c.R, c.G, c.B
	}
	fr, fg, fb := basisSpline(r), basisSpline(g), basisSpline(b)
	return func(t float64) colorful.Color {
		return colorful.Color{R: fr(t), G: fg(t), B: fb(t)}
	}
}

func basisSpline(values []float64) func(float64) float64 {
	n := len(values) - 1
	return func(t float64) float64 {
		var i int
		switch {
		case t <= 0 || math.IsNaN(t):
			t = 0
			i = 0
		case t >= 1:
			t = 1
			i = n - 1
		default:
			i = int(math.Floor(t * float64(n)))
		}
		v1 := values[i]
		v2 := values[i+1]
		v0 := 2*v1 - v2
		if i > 0 {
			v0 = values[i-1]
		}
		v3 := 2*v2 - v1
		if i < n-1 {
			v3 = values[i+2]
		}
		return basis((t-float64(i)/float64(n))*float64(n), v0, v1, v2, v3)
	}
}

func basis(t1, v0, v1, v2, v3 float64) float64 {
	t2 := t1 * t1
	t3 := t2 * t1
	return ((1-3*t1+3*t2-t3)*v0 +
		(4-6*t2+3*t3)*v1 +
		(1+3*t1+3*t2-3*t3)*v2 +
		t3*v3) / 6
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("scale: bad scheme color %q: %v", s, err))
	}
	return c
}
