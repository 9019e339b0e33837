package usecase_test

import (
	"math"
	"testing"

	"github.com/diegodinero/orderpanel/internal/domain"
	"github.com/diegodinero/orderpanel/internal/usecase"
	"github.com/stretchr/testify/assert"
)

func metricsForSizing() domain.SymbolMetrics {
	return domain.SymbolMetrics{
		Symbol:   "MESU6",
		Bid:      5300.25,
		Ask:      5300.50,
		TickSize: 0.25,
		TickCost: 1.0,
		MinLot:   0.01,
		MaxLot:   50,
		LotStep:  0.01,
	}
}

func TestComputeQuantity_FixedRiskScenario(t *testing.T) {
	sizer := usecase.NewPositionSizer(nil)
	m := metricsForSizing()

	// raw = 100 / (1.0 * 20) = 5.0
	// qty = 0.01 + floor((5.0 - 0.01) / 0.01) * 0.01 = 5.00
	qty := sizer.ComputeQuantity(m, 100, 20)
	assert.InDelta(t, 5.00, qty, 1e-9)
}

func TestComputeQuantity_ZeroGuards(t *testing.T) {
	sizer := usecase.NewPositionSizer(nil)

	tests := []struct {
		name     string
		mutate   func(*domain.SymbolMetrics)
	}{
		{"NaN bid", func(m *domain.SymbolMetrics) { m.Bid = math.NaN() }},
		{"NaN tick size", func(m *domain.SymbolMetrics) { m.TickSize = math.NaN() }},
		{"Inf bid", func(m *domain.SymbolMetrics) { m.Bid = math.Inf(1) }},
		{"zero tick size", func(m *domain.SymbolMetrics) { m.TickSize = 0 }},
		{"zero bid", func(m *domain.SymbolMetrics) { m.Bid = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metricsForSizing()
			tt.mutate(&m)
			assert.Equal(t, 0.0, sizer.ComputeQuantity(m, 100, 20))
		})
	}
}

func TestComputeQuantity_Bounds(t *testing.T) {
	sizer := usecase.NewPositionSizer(nil)
	m := metricsForSizing()

	tests := []struct {
		name       string
		riskAmount float64
		stopTicks  float64
	}{
		{"tiny risk clamps to min lot", 0.001, 20},
		{"huge risk clamps to max lot", 1e9, 20},
		{"mid-range", 250, 7},
		{"wide stop", 100, 333},
		{"tight stop", 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty := sizer.ComputeQuantity(m, tt.riskAmount, tt.stopTicks)
			assert.GreaterOrEqual(t, qty, m.MinLot)
			assert.LessOrEqual(t, qty, m.MaxLot)

			// Result is MinLot plus a whole number of lot steps.
			steps := (qty - m.MinLot) / m.LotStep
			assert.InDelta(t, math.Round(steps), steps, 1e-6)

			// Never rounds up past what the risk allows (unless clamped up to
			// MinLot).
			if qty > m.MinLot {
				assert.LessOrEqual(t, qty*m.TickCost*tt.stopTicks, tt.riskAmount*(1+1e-9))
			}
		})
	}
}

func TestComputeQuantity_NeverBelowMinLot(t *testing.T) {
	sizer := usecase.NewPositionSizer(nil)
	m := metricsForSizing()
	m.MinLot = 1
	m.LotStep = 1
	m.MaxLot = 10

	// raw = 10 / (1.0 * 100) = 0.1, below MinLot.
	qty := sizer.ComputeQuantity(m, 10, 100)
	assert.InDelta(t, 1.0, qty, 1e-9)
}

func TestComputeQuantity_MaxLotClamp(t *testing.T) {
	sizer := usecase.NewPositionSizer(nil)
	m := metricsForSizing()
	m.MaxLot = 3

	// raw = 5.0 would exceed MaxLot.
	qty := sizer.ComputeQuantity(m, 100, 20)
	assert.InDelta(t, 3.0, qty, 1e-9)
}
