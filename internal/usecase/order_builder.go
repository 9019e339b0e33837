package usecase

import (
	"github.com/diegodinero/orderpanel/internal/domain"
)

// OrderBuilder assembles a bracket-order request from a completed intent.
// Stop-loss and take-profit are always tick offsets from the eventual fill
// price; explicit entry prices are tick-rounded before they leave the panel.
type OrderBuilder struct{}

func NewOrderBuilder() *OrderBuilder {
	return &OrderBuilder{}
}

func (b *OrderBuilder) Build(res *TradeIntentResult, rewardMultiplier float64, m domain.SymbolMetrics, account string) *domain.OrderRequest {
	req := &domain.OrderRequest{
		Symbol:      m.Symbol,
		Account:     account,
		Kind:        res.Kind,
		Side:        res.Side,
		Quantity:    res.Quantity,
		StopLoss:    domain.BracketLeg{OffsetTicks: res.StopTicks},
		TimeInForce: domain.TIFDay,
	}

	switch res.Kind {
	case domain.OrderKindLimit:
		req.Price = domain.NewPrice(m.RoundToTick(res.EntryPrice))
	case domain.OrderKindStop:
		req.TriggerPrice = domain.NewPrice(m.RoundToTick(res.EntryPrice))
	}

	// A non-positive reward multiplier means the user explicitly asked for no
	// target.
	if rewardMultiplier > 0 {
		req.TakeProfit = &domain.BracketLeg{OffsetTicks: res.TakeProfitTicks}
	}
	return req
}
