package domain

import "time"

// Position represents an open position reported by the gateway.
type Position struct {
	PositionID    string  `json:"position_id"`
	Account       string  `json:"account"`
	Symbol        string  `json:"symbol"`
	Side          Side    `json:"side"`
	Quantity      float64 `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// PositionState is the break-even tracker's memory of the last fill. Both
// fields are unset until an order fills and are cleared when the position is
// flattened or the governing bracket is cancelled.
type PositionState struct {
	LastSide       Side // "" when unset
	LastEntryPrice Price
}

func (p PositionState) IsSet() bool {
	return p.LastSide != "" && p.LastEntryPrice.Set
}

type OrderStatus string

const (
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusWorking   OrderStatus = "WORKING"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

// FillEvent is pushed by the gateway when an entry order fills.
type FillEvent struct {
	Account    string      `json:"account"`
	Symbol     string      `json:"symbol"`
	PositionID string      `json:"position_id"`
	Status     OrderStatus `json:"status"`
}

// CancelEvent is pushed by the gateway when a position is flattened
// externally or its bracket is cancelled.
type CancelEvent struct {
	Account string      `json:"account"`
	Symbol  string      `json:"symbol"`
	Status  OrderStatus `json:"status"`
}

// PositionHistory represents a closed position in the journal.
type PositionHistory struct {
	ID          int64
	Account     string
	Symbol      string
	Side        Side
	Quantity    float64
	EntryPrice  float64
	ExitPrice   float64
	RealizedPnL float64
	ClosedAt    time.Time
}
