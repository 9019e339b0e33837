package domain

import "time"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type OrderKind string

const (
	OrderKindMarket OrderKind = "MARKET"
	OrderKindLimit  OrderKind = "LIMIT"
	OrderKindStop   OrderKind = "STOP"
)

type TimeInForce string

const (
	TIFDay TimeInForce = "DAY"
	TIFGTC TimeInForce = "GTC"
)

// Price is an optional price value. The zero value means "not captured yet",
// so a legitimately captured 0.0 price stays distinct from unset.
type Price struct {
	Value float64
	Set   bool
}

func NewPrice(v float64) Price {
	return Price{Value: v, Set: true}
}

// BracketLeg is a protective exit attached to an entry order, expressed as a
// tick distance from the eventual fill price rather than an absolute price.
type BracketLeg struct {
	OffsetTicks float64 `json:"offset_ticks"`
}

// OrderRequest is a bracket-order submission: one entry plus an attached
// stop-loss and optional take-profit.
type OrderRequest struct {
	Symbol   string      `json:"symbol"`
	Account  string      `json:"account"`
	Kind     OrderKind   `json:"kind"`
	Side     Side        `json:"side"`
	Quantity float64     `json:"quantity"`
	// Price is set for LIMIT entries, TriggerPrice for STOP entries. Both are
	// pre-rounded to the instrument tick size before submission.
	Price        Price       `json:"price"`
	TriggerPrice Price       `json:"trigger_price"`
	StopLoss     BracketLeg  `json:"stop_loss"`
	TakeProfit   *BracketLeg `json:"take_profit,omitempty"` // nil when the user asked for no target
	TimeInForce  TimeInForce `json:"time_in_force"`
}

// OrderResult is the opaque handle returned by the gateway for a submission.
// The panel never awaits it; it exists for logging and test observability.
type OrderResult struct {
	OrderID     string    `json:"order_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// OrderRecord is a journal row for a submitted bracket order.
type OrderRecord struct {
	ID              int64
	Symbol          string
	Account         string
	Kind            OrderKind
	Side            Side
	Quantity        float64
	Price           float64 // 0 for market entries
	StopLossTicks   float64
	TakeProfitTicks float64 // 0 when no target was attached
	CreatedAt       time.Time
}
