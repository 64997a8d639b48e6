package chart

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// PriceLine is a horizontal threshold line keyed by its label.
type PriceLine struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
	Color string          `json:"color"`
}

// PriceLines holds the chart's threshold lines. Re-adding a line with the
// same label replaces the prior one, so duplicates never accumulate.
type PriceLines struct {
	mu    sync.Mutex
	lines map[string]PriceLine
}

// NewPriceLines creates an empty line set.
func NewPriceLines() *PriceLines {
	return &PriceLines{lines: make(map[string]PriceLine)}
}

// Set adds or replaces the line with the given label.
func (p *PriceLines) Set(label string, price decimal.Decimal, color string) {
	p.mu.Lock()
	p.lines[label] = PriceLine{Label: label, Price: price, Color: color}
	p.mu.Unlock()
}

// Remove deletes the line with the given label, if present.
func (p *PriceLines) Remove(label string) {
	p.mu.Lock()
	delete(p.lines, label)
	p.mu.Unlock()
}

// All returns the current lines sorted by label for stable rendering.
func (p *PriceLines) All() []PriceLine {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PriceLine, 0, len(p.lines))
	for _, line := range p.lines {
		out = append(out, line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
