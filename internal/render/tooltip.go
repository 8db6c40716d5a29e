package render

import (
	"fmt"
	"strconv"
)

// pointer offset applied to the tooltip position
const (
	tooltipDX = 10
	tooltipDY = -10
)

// Tooltip is the single hover box shared by every marker.
type Tooltip struct {
	Visible bool     `json:"visible"`
	Town    string   `json:"town,omitempty"`
	Lines   []string `json:"lines,omitempty"`
	Left    float64  `json:"left"`
	Top     float64  `json:"top"`
}

func (t *Tooltip) hide() {
	*t = Tooltip{}
}

// TooltipLines is the hover text for a town.
func TooltipLines(county string, population int) []string {
	return []string{
		fmt.Sprintf("County: %s", county),
		"Population: " + strconv.Itoa(population),
	}
}

// Hover shows the tooltip for town next to the pointer. It reports false
// when no marker has that name.
func (s *Scene) Hover(town string, pageX, pageY float64) bool {
	m, ok := s.Marker(town)
	if !ok {
		return false
	}
	s.Tooltip = Tooltip{
		Visible: true,
		Town:    m.Key,
		Lines:   TooltipLines(m.Record.County, m.Record.Population),
		Left:    pageX + tooltipDX,
		Top:     pageY + tooltipDY,
	}
	return true
}

// Unhover hides the tooltip.
func (s *Scene) Unhover() {
	s.Tooltip.hide()
}
