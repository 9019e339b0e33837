package usecase

import (
	"errors"
	"math"

	"github.com/diegodinero/orderpanel/internal/domain"
)

// EntryMode identifies one of the four entry methods the panel offers.
type EntryMode string

const (
	ModeMarketBuy  EntryMode = "MARKET_BUY"
	ModeMarketSell EntryMode = "MARKET_SELL"
	ModeLimit      EntryMode = "LIMIT"
	ModeStop       EntryMode = "STOP"
)

// IntentState is the observable state of an OrderIntent.
type IntentState string

const (
	StateIdle          IntentState = "IDLE"
	StateArmed         IntentState = "ARMED"
	StateAwaitingPrice IntentState = "AWAITING_SECOND_PRICE"
	StateComplete      IntentState = "COMPLETE"
)

var (
	ErrNotArmed    = errors.New("intent is not armed")
	ErrNoFreeSlot  = errors.New("both prices already captured")
	ErrIncomplete  = errors.New("intent is missing a price")
	ErrZeroStop    = errors.New("entry price equals stop price")
	ErrBadTickSize = errors.New("tick size is not a finite positive number")
)

// OrderIntent tracks arm/disarm and captured prices for a single entry mode.
// Click semantics are positional: the first captured price is always the
// entry, the second always the stop, regardless of which is higher.
type OrderIntent struct {
	mode  EntryMode
	armed bool
	side  domain.Side // fixed at arm time for market modes, inferred later otherwise
	entry domain.Price
	stop  domain.Price
}

func NewOrderIntent(mode EntryMode) *OrderIntent {
	return &OrderIntent{mode: mode}
}

func (i *OrderIntent) Mode() EntryMode { return i.mode }

func (i *OrderIntent) Armed() bool { return i.armed }

func (i *OrderIntent) State() IntentState {
	switch {
	case !i.armed:
		return StateIdle
	case i.entry.Set && i.stop.Set:
		return StateComplete
	case i.entry.Set:
		return StateAwaitingPrice
	default:
		return StateArmed
	}
}

// Arm activates the intent. Market modes capture the entry immediately from
// the live quote: buys at the ask, sells at the bid. Limit and stop modes
// leave the entry unset until the first chart click.
func (i *OrderIntent) Arm(m domain.SymbolMetrics) {
	i.Reset()
	i.armed = true
	switch i.mode {
	case ModeMarketBuy:
		i.side = domain.SideBuy
		i.entry = domain.NewPrice(m.Ask)
	case ModeMarketSell:
		i.side = domain.SideSell
		i.entry = domain.NewPrice(m.Bid)
	}
}

// Reset returns the intent to Idle, discarding any captured prices.
func (i *OrderIntent) Reset() {
	i.armed = false
	i.side = ""
	i.entry = domain.Price{}
	i.stop = domain.Price{}
}

// CapturePrice fills the next unset price slot, entry first then stop, and
// reports whether the intent is now complete. A click while both slots are
// filled should not occur; it is rejected so the caller can treat it as a
// no-op.
func (i *OrderIntent) CapturePrice(price float64) (complete bool, err error) {
	if !i.armed {
		return false, ErrNotArmed
	}
	switch {
	case !i.entry.Set:
		i.entry = domain.NewPrice(price)
	case !i.stop.Set:
		i.stop = domain.NewPrice(price)
	default:
		return false, ErrNoFreeSlot
	}
	return i.entry.Set && i.stop.Set, nil
}

// TradeIntentResult is the transient output of a completed intent, consumed
// immediately by the order builder.
type TradeIntentResult struct {
	Kind            domain.OrderKind
	Side            domain.Side
	EntryPrice      float64
	StopPrice       float64
	StopTicks       float64
	TakeProfitTicks float64
	Quantity        float64
}

func (m EntryMode) orderKind() domain.OrderKind {
	switch m {
	case ModeLimit:
		return domain.OrderKindLimit
	case ModeStop:
		return domain.OrderKindStop
	default:
		return domain.OrderKindMarket
	}
}

// Finalize rounds the captured prices to the tick size, infers the side for
// limit and stop modes, and computes the stop and take-profit distances.
// Limit side: Buy when entry is above stop. Stop side: Buy when entry is
// above the current ask. Market sides were fixed at arm time.
func (i *OrderIntent) Finalize(m domain.SymbolMetrics, rewardMultiplier float64) (*TradeIntentResult, error) {
	if !i.entry.Set || !i.stop.Set {
		return nil, ErrIncomplete
	}
	if !m.Usable() {
		return nil, ErrBadTickSize
	}

	entry := m.RoundToTick(i.entry.Value)
	stop := m.RoundToTick(i.stop.Value)

	side := i.side
	switch i.mode {
	case ModeLimit:
		if entry > stop {
			side = domain.SideBuy
		} else {
			side = domain.SideSell
		}
	case ModeStop:
		if entry > m.Ask {
			side = domain.SideBuy
		} else {
			side = domain.SideSell
		}
	}

	stopTicks := math.Abs(entry-stop) / m.TickSize
	if stopTicks == 0 {
		return nil, ErrZeroStop
	}
	tpTicks := stopTicks * rewardMultiplier
	if tpTicks < 0 {
		tpTicks = 0
	}

	return &TradeIntentResult{
		Kind:            i.mode.orderKind(),
		Side:            side,
		EntryPrice:      entry,
		StopPrice:       stop,
		StopTicks:       stopTicks,
		TakeProfitTicks: tpTicks,
	}, nil
}
