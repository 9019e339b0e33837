package usecase

import (
	"math"

	"github.com/diegodinero/orderpanel/internal/domain"
	"go.uber.org/zap"
)

// PositionSizer converts a fixed monetary risk amount into a tradeable
// quantity for the active instrument. ComputeQuantity is pure and
// deterministic; the only side effect is a diagnostic log line.
type PositionSizer struct {
	logger *zap.Logger
}

func NewPositionSizer(logger *zap.Logger) *PositionSizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PositionSizer{logger: logger}
}

func isNanOrDefault(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v == 0
}

// ComputeQuantity returns the largest lot-step-aligned quantity whose loss at
// stopTicks does not exceed riskAmount, clamped to [MinLot, MaxLot]. It
// returns 0 when the market data is unusable. The caller must guarantee
// stopTicks > 0 (entry price distinct from stop price).
func (s *PositionSizer) ComputeQuantity(m domain.SymbolMetrics, riskAmount, stopTicks float64) float64 {
	if isNanOrDefault(m.Bid) || isNanOrDefault(m.TickSize) {
		return 0
	}

	riskPerUnit := m.TickCost * stopTicks
	raw := riskAmount / riskPerUnit

	s.logger.Debug("position sizing",
		zap.String("symbol", m.Symbol),
		zap.Float64("risk_amount", riskAmount),
		zap.Float64("stop_ticks", stopTicks),
		zap.Float64("tick_size", m.TickSize),
		zap.Float64("tick_cost", m.TickCost),
		zap.Float64("raw_quantity", raw))

	// Snap down to the nearest lot-step increment above MinLot. Never rounds
	// up past what the risk amount allows, never returns less than MinLot.
	steps := math.Floor(math.Max(0, raw-m.MinLot) / m.LotStep)
	qty := m.MinLot + steps*m.LotStep

	if qty < m.MinLot {
		qty = m.MinLot
	}
	if qty > m.MaxLot {
		qty = m.MaxLot
	}
	return qty
}
