// Package projection maps geographic coordinates onto the map canvas.
package projection

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Mercator is a spherical Mercator projection centred on a fixed coordinate.
// It holds no mutable state after construction.
type Mercator struct {
	center orb.Point
	scale  float64
	tx, ty float64

	lambda0 float64
	y0      float64
}

// NewMercator builds a projection that places center at pixel (tx, ty).
func NewMercator(center orb.Point, scale, tx, ty float64) *Mercator {
	return &Mercator{
		center:  center,
		scale:   scale,
		tx:      tx,
		ty:      ty,
		lambda0: radians(center.Lon()),
		y0:      mercY(radians(center.Lat())),
	}
}

// ForCanvas uses the canvas centre as the translate offset.
func ForCanvas(center orb.Point, scale float64, width, height int) *Mercator {
	return NewMercator(center, scale, float64(width)/2, float64(height)/2)
}

// Project returns pixel coordinates for (lng, lat). Points outside the
// canvas are returned as-is.
func (m *Mercator) Project(lng, lat float64) (x, y float64) {
	x = m.tx + m.scale*(radians(lng)-m.lambda0)
	y = m.ty - m.scale*(mercY(radians(lat))-m.y0)
	return x, y
}

func (m *Mercator) ProjectPoint(p orb.Point) orb.Point {
	x, y := m.Project(p.Lon(), p.Lat())
	return orb.Point{x, y}
}

func (m *Mercator) Center() orb.Point { return m.center }

func (m *Mercator) Scale() float64 { return m.scale }

func (m *Mercator) Translate() (float64, float64) { return m.tx, m.ty }

// PathData renders the projected geometry as SVG path data. Points and
// unsupported geometry types produce an empty string.
func (m *Mercator) PathData(g orb.Geometry) string {
	var b strings.Builder
	m.appendGeometry(&b, g)
	return b.String()
}

func (m *Mercator) appendGeometry(b *strings.Builder, g orb.Geometry) {
	switch v := g.(type) {
	case orb.Polygon:
		for _, r := range v {
			m.appendLine(b, r, true)
		}
	case orb.MultiPolygon:
		for _, p := range v {
			for _, r := range p {
				m.appendLine(b, r, true)
			}
		}
	case orb.Ring:
		m.appendLine(b, v, true)
	case orb.LineString:
		m.appendLine(b, v, false)
	case orb.MultiLineString:
		for _, ls := range v {
			m.appendLine(b, ls, false)
		}
	case orb.Collection:
		for _, sub := range v {
			m.appendGeometry(b, sub)
		}
	}
}

func (m *Mercator) appendLine(b *strings.Builder, pts []orb.Point, closed bool) {
	if closed && len(pts) > 1 && pts[0].Equal(pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	if len(pts) == 0 {
		return
	}
	for i, p := range pts {
		x, y := m.Project(p.Lon(), p.Lat())
		if i == 0 {
			b.WriteByte('M')
		} else {
			b.WriteByte('L')
		}
		b.WriteString(formatCoord(x))
		b.WriteByte(',')
		b.WriteString(formatCoord(y))
	}
	if closed {
		b.WriteByte('Z')
	}
}

func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func mercY(phi float64) float64 {
	return math.Log(math.Tan(math.Pi/4 + phi/2))
}
