// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"strings"
)

// TownRecord is one row of the town data service response.
type TownRecord struct {
	Town       string  `json:"Town"`
	County     string  `json:"County"`
	Population int     `json:"Population"`
	Lng        float64 `json:"lng"`
	Lat        float64 `json:"lat"`
}

type DisplayMode string

const (
	ModeBubble  DisplayMode = "bubble"
	ModeHeatMap DisplayMode = "heatmap"
)

// Modes lists every display mode in selector order.
var Modes = []DisplayMode{ModeBubble, ModeHeatMap}

func (m DisplayMode) String() string { return string(m) }

func ParseMode(s string) (DisplayMode, error) {
	switch DisplayMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBubble:
		return ModeBubble, nil
	case ModeHeatMap:
		return ModeHeatMap, nil
	default:
		return "", fmt.Errorf("unknown map type %q (must be bubble or heatmap)", s)
	}
}

// MaxPopulation returns the largest population in records, 0 when empty.
func MaxPopulation(records []TownRecord) int {
	m := 0
	for _, r := range records {
		if r.Population > m {
			m = r.Population
		}
	}
	return m
}
