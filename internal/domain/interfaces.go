package domain

import "context"

// Gateway defines the interface to the external execution venue. Order
// submission is fire-and-forget from the panel's point of view: the returned
// result handle is logged, never awaited.
type Gateway interface {
	PlaceOrder(ctx context.Context, req *OrderRequest) (*OrderResult, error)

	// Flatten/cancel capabilities invoked by panel action buttons but
	// implemented entirely by the venue.
	FlattenAll(ctx context.Context, account string) error
	FlattenPosition(ctx context.Context, positionID string) error
	CancelPendingOrders(ctx context.Context, account, symbol string, kind OrderKind) error
	AmendStopToBreakEven(ctx context.Context, account, symbol string) error
	PartialClose(ctx context.Context, account, symbol string, fraction float64) error

	GetPosition(ctx context.Context, account, symbol string) (*Position, error)
	GetPositions(ctx context.Context, account string) ([]*Position, error)

	// Push feeds. Callbacks fire from the gateway's read loop.
	OnQuote(callback func(symbol string, bid, ask float64))
	OnFill(callback func(FillEvent))
	OnCancel(callback func(CancelEvent))
	Subscribe(symbols []string) error
}

// TradeRepository defines storage operations for the trade journal.
type TradeRepository interface {
	SaveOrder(ctx context.Context, rec *OrderRecord) error
	ListOrders(ctx context.Context, limit int) ([]*OrderRecord, error)

	SavePositionHistory(ctx context.Context, history *PositionHistory) error
	ListPositionHistory(ctx context.Context, limit int) ([]*PositionHistory, error)
}
