package usecase

import (
	"context"
	"math"

	"github.com/diegodinero/orderpanel/internal/domain"
)

// BEDisplayMode selects how the break-even readout is expressed.
type BEDisplayMode string

const (
	BEModeTicks  BEDisplayMode = "TICKS"
	BEModePoints BEDisplayMode = "POINTS"
	BEModePnL    BEDisplayMode = "PNL"
)

// BESign is a presentation hint (loss/flat/profit coloring). It never drives
// control flow.
type BESign int

const (
	SignNeg  BESign = -1
	SignZero BESign = 0
	SignPos  BESign = 1
)

type BEReading struct {
	Value float64 `json:"value"`
	Sign  BESign  `json:"sign"`
}

// PositionLookup resolves the open position for the P&L display mode.
type PositionLookup interface {
	GetPosition(ctx context.Context, account, symbol string) (*domain.Position, error)
}

// BreakEvenTracker computes the running distance between the current market
// price and the last recorded entry price. Its state is set on fill
// notifications and cleared when the position is flattened or the governing
// bracket is cancelled; both arrive as external events, never polled.
type BreakEvenTracker struct {
	mode      BEDisplayMode
	state     domain.PositionState
	positions PositionLookup
	account   string
	symbol    string
}

func NewBreakEvenTracker(mode BEDisplayMode, positions PositionLookup) *BreakEvenTracker {
	if mode == "" {
		mode = BEModeTicks
	}
	return &BreakEvenTracker{mode: mode, positions: positions}
}

func (t *BreakEvenTracker) SetInstrument(account, symbol string) {
	t.account = account
	t.symbol = symbol
}

func (t *BreakEvenTracker) SetMode(mode BEDisplayMode) { t.mode = mode }

// RecordFill stores the side and entry price of the last filled order.
func (t *BreakEvenTracker) RecordFill(side domain.Side, entryPrice float64) {
	t.state = domain.PositionState{
		LastSide:       side,
		LastEntryPrice: domain.NewPrice(entryPrice),
	}
}

// Clear resets the tracker after a flatten or bracket cancellation.
func (t *BreakEvenTracker) Clear() {
	t.state = domain.PositionState{}
}

func (t *BreakEvenTracker) State() domain.PositionState { return t.state }

// Reading evaluates the tracker against the live quote.
func (t *BreakEvenTracker) Reading(ctx context.Context, bid, ask, tickSize float64) BEReading {
	return t.Update(ctx, t.state, bid, ask, tickSize)
}

// Update computes the break-even value for an explicit position state. Long
// positions are marked against the bid, shorts against the ask.
func (t *BreakEvenTracker) Update(ctx context.Context, pos domain.PositionState, bid, ask, tickSize float64) BEReading {
	if !pos.IsSet() {
		return BEReading{Value: 0, Sign: SignZero}
	}
	if math.IsNaN(tickSize) || tickSize <= 0 {
		return BEReading{Value: 0, Sign: SignZero}
	}

	var deltaTicks float64
	if pos.LastSide == domain.SideBuy {
		deltaTicks = math.Round((bid - pos.LastEntryPrice.Value) / tickSize)
	} else {
		deltaTicks = math.Round((pos.LastEntryPrice.Value - ask) / tickSize)
	}

	var value float64
	switch t.mode {
	case BEModePoints:
		value = deltaTicks * tickSize
	case BEModePnL:
		value = t.livePnL(ctx)
	default:
		value = deltaTicks
	}
	return BEReading{Value: value, Sign: signOf(value)}
}

// livePnL reads the matching open position's unrealized P&L from the venue,
// looked up by account and symbol rather than derived from the price delta.
func (t *BreakEvenTracker) livePnL(ctx context.Context) float64 {
	if t.positions == nil {
		return 0
	}
	p, err := t.positions.GetPosition(ctx, t.account, t.symbol)
	if err != nil || p == nil {
		return 0
	}
	return p.UnrealizedPnL
}

func signOf(v float64) BESign {
	switch {
	case v > 0:
		return SignPos
	case v < 0:
		return SignNeg
	default:
		return SignZero
	}
}
