package chart

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradeboard/internal/domain"
)

// MarkerPosition places a marker relative to its bar.
type MarkerPosition string

const (
	PositionBelowBar MarkerPosition = "belowBar"
	PositionAboveBar MarkerPosition = "aboveBar"
)

// MarkerShape is the glyph drawn for a marker.
type MarkerShape string

const (
	ShapeArrowUp   MarkerShape = "arrowUp"
	ShapeArrowDown MarkerShape = "arrowDown"
)

const (
	colorBuy  = "#22c55e"
	colorSell = "#ef4444"
)

// Marker is a discrete trade event drawn on the chart.
type Marker struct {
	Time     time.Time      `json:"time"`
	Position MarkerPosition `json:"position"`
	Shape    MarkerShape    `json:"shape"`
	Color    string         `json:"color"`
	Text     string         `json:"text"`
}

// Markers is an append-only set of trade markers. Individual markers are
// never removed, only bulk-cleared.
type Markers struct {
	mu      sync.Mutex
	markers []Marker
}

// NewMarkers creates an empty marker set.
func NewMarkers() *Markers {
	return &Markers{}
}

// Mark appends a marker for an executed trade: below-bar up-arrow for
// buys, above-bar down-arrow for sells.
func (m *Markers) Mark(t time.Time, side domain.Side, price decimal.Decimal) Marker {
	marker := Marker{
		Time:     t,
		Position: PositionBelowBar,
		Shape:    ShapeArrowUp,
		Color:    colorBuy,
		Text:     fmt.Sprintf("%s @ $%s", side.String(), price.StringFixed(2)),
	}
	if side == domain.SideSell {
		marker.Position = PositionAboveBar
		marker.Shape = ShapeArrowDown
		marker.Color = colorSell
	}

	m.mu.Lock()
	m.markers = append(m.markers, marker)
	m.mu.Unlock()

	return marker
}

// All returns a copy of the current markers in insertion order.
func (m *Markers) All() []Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Marker, len(m.markers))
	copy(out, m.markers)
	return out
}

// Clear removes all markers.
func (m *Markers) Clear() {
	m.mu.Lock()
	m.markers = nil
	m.mu.Unlock()
}
