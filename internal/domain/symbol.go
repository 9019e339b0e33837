package domain

import "math"

// SymbolMetrics is a read-only snapshot of the active instrument, refreshed
// by the host before each decision. The core never mutates it.
type SymbolMetrics struct {
	Symbol   string  `json:"symbol"`
	Bid      float64 `json:"bid"`
	Ask      float64 `json:"ask"`
	TickSize float64 `json:"tick_size"`
	TickCost float64 `json:"tick_cost"` // monetary value of one tick per unit quantity, quoted at bid
	MinLot   float64 `json:"min_lot"`
	MaxLot   float64 `json:"max_lot"`
	LotStep  float64 `json:"lot_step"`
}

// Usable reports whether the snapshot can drive click-to-price decisions:
// the tick size must be a finite positive number.
func (m SymbolMetrics) Usable() bool {
	return !math.IsNaN(m.TickSize) && !math.IsInf(m.TickSize, 0) && m.TickSize > 0
}

// RoundToTick snaps a price to the nearest tick-size increment.
func (m SymbolMetrics) RoundToTick(price float64) float64 {
	if !m.Usable() {
		return price
	}
	return math.Round(price/m.TickSize) * m.TickSize
}
