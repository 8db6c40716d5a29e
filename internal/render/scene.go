// Package render draws town markers and the legend into a Scene and
// serializes the scene as SVG or PNG.
package render

import (
	"time"

	"github.com/mohammed-shakir/uk-towns-map/internal/core/model"
	"github.com/mohammed-shakir/uk-towns-map/internal/geo/boundary"
)

// Scene is the whole map document: background layer, markers, legend and
// the shared tooltip. It is not safe for concurrent use; the owner
// serializes access.
type Scene struct {
	Width, Height int
	Base          *boundary.Layer

	markers []*Marker
	byKey   map[string]*Marker

	Legend  *Legend
	Tooltip Tooltip

	Mode     model.DisplayMode
	Revision uint64
	LoadedAt time.Time
}

func NewScene(width, height int, base *boundary.Layer) *Scene {
	return &Scene{
		Width:  width,
		Height: height,
		Base:   base,
		byKey:  map[string]*Marker{},
	}
}

// Markers returns the markers in insertion order.
func (s *Scene) Markers() []*Marker {
	out := make([]*Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

func (s *Scene) MarkerCount() int { return len(s.markers) }

// Marker looks a marker up by town name. With duplicate names the first
// inserted marker wins.
func (s *Scene) Marker(town string) (*Marker, bool) {
	m, ok := s.byKey[town]
	return m, ok
}

// ClearMarkers removes every marker and hides the tooltip, since the marker
// it described no longer exists.
func (s *Scene) ClearMarkers() {
	s.markers = nil
	s.byKey = map[string]*Marker{}
	s.Tooltip.hide()
}

func (s *Scene) appendMarker(m *Marker) {
	s.markers = append(s.markers, m)
	if _, exists := s.byKey[m.Key]; !exists {
		s.byKey[m.Key] = m
	}
}
