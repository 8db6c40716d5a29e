// Package scale derives the marker radius and color scales from a town dataset.
package scale

import (
	"math"

	"github.com/mohammed-shakir/uk-towns-map/internal/core/model"
)

// MaxRadius is the pixel radius of the most populous town.
const MaxRadius = 20.0

// Sqrt maps [0, max] onto [0, MaxRadius] so that marker area is linear in
// population. Inputs outside the domain extrapolate.
type Sqrt struct {
	max      float64
	rangeMax float64
}

func NewSqrt(max float64, rangeMax float64) Sqrt {
	return Sqrt{max: max, rangeMax: rangeMax}
}

func (s Sqrt) Domain() (float64, float64) { return 0, s.max }

func (s Sqrt) Range() (float64, float64) { return 0, s.rangeMax }

// Apply returns the radius for v. A zero-extent domain maps everything to 0.
func (s Sqrt) Apply(v float64) float64 {
	if s.max <= 0 {
		return 0
	}
	return s.rangeMax * (signedSqrt(v) / math.Sqrt(s.max))
}

func signedSqrt(v float64) float64 {
	if v < 0 {
		return -math.Sqrt(-v)
	}
	return math.Sqrt(v)
}

// Pair is the set of scales used for one render.
type Pair struct {
	Radius Sqrt
	Color  *Sequential // nil outside heat-map mode
	Max    int
}

// Build derives the scales from records. The domain always starts at 0;
// an empty dataset yields a zero-extent domain.
func Build(records []model.TownRecord, mode model.DisplayMode) Pair {
	maxPop := model.MaxPopulation(records)
	p := Pair{
		Radius: NewSqrt(float64(maxPop), MaxRadius),
		Max:    maxPop,
	}
	if mode == model.ModeHeatMap {
		c := NewSequential(float64(maxPop), YlOrRd)
		p.Color = &c
	}
	return p
}
