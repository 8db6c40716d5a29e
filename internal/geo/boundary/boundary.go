// Package boundary loads the static boundary dataset drawn beneath the town markers.
package boundary

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	Fill   = "#BFD3C1"
	Stroke = "#333"
)

// Projector turns a geometry into SVG path data.
type Projector interface {
	PathData(g orb.Geometry) string
}

// Shape is one projected boundary feature.
type Shape struct {
	Name string
	D    string
}

// Layer is the projected background layer. It is built once and never mutated.
type Layer struct {
	Shapes []Shape
	Bound  orb.Bound
}

// Load reads a GeoJSON FeatureCollection from path and projects it.
func Load(path string, p Projector) (*Layer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundary file: %w", err)
	}
	l, err := Parse(b, p)
	if err != nil {
		return nil, fmt.Errorf("boundary %s: %w", path, err)
	}
	return l, nil
}

func Parse(data []byte, p Projector) (*Layer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse feature collection: %w", err)
	}

	l := &Layer{Shapes: make([]Shape, 0, len(fc.Features))}
	first := true
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		d := p.PathData(f.Geometry)
		if d == "" {
			continue
		}
		if first {
			l.Bound = f.Geometry.Bound()
			first = false
		} else {
			l.Bound = l.Bound.Union(f.Geometry.Bound())
		}
		l.Shapes = append(l.Shapes, Shape{Name: featureName(f), D: d})
	}
	return l, nil
}

func featureName(f *geojson.Feature) string {
	for _, k := range []string{"name", "NAME", "Name", "ctry19nm", "admin"} {
		if s := f.Properties.MustString(k, ""); s != "" {
			return s
		}
	}
	return ""
}
