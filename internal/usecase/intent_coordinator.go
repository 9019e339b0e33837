package usecase

import (
	"errors"

	"github.com/diegodinero/orderpanel/internal/domain"
	"go.uber.org/zap"
)

// Action reports what a click did, so callers and tests can observe the
// outcome of the hit-test chain.
type Action string

const (
	ActionNone            Action = "NONE"
	ActionArmed           Action = "ARMED"
	ActionDisarmed        Action = "DISARMED"
	ActionPriceCaptured   Action = "PRICE_CAPTURED"
	ActionSubmitted       Action = "SUBMITTED"
	ActionRiskLockToggled Action = "RISK_LOCK_TOGGLED"
	ActionBreakEven       Action = "BREAK_EVEN"
	ActionPartialClose    Action = "PARTIAL_CLOSE"
	ActionFlattenAll      Action = "FLATTEN_ALL"
	ActionFlattenPosition Action = "FLATTEN_POSITION"
	ActionCancelPending   Action = "CANCEL_PENDING"
)

var (
	ErrNoAccount  = errors.New("no active account or instrument")
	ErrBadQuote   = errors.New("unusable market data")
	ErrZeroSizing = errors.New("position sizer returned zero quantity")
)

type MouseButton string

const (
	MouseLeft  MouseButton = "LEFT"
	MouseRight MouseButton = "RIGHT"
)

// ClickEvent is a single chart click. ChartPrice is pre-computed by the
// host's coordinate converter from the vertical pixel position.
type ClickEvent struct {
	X          int
	Y          int
	ChartPrice float64
	Button     MouseButton
}

// PanelActions is the outbound surface the coordinator drives. Order
// submission and the flatten/cancel capabilities are implemented by the
// panel service on top of the gateway.
type PanelActions interface {
	SubmitOrder(req *domain.OrderRequest)
	FlattenAll()
	FlattenPosition()
	CancelPending(kind domain.OrderKind)
	BreakEven()
	PartialClose()
}

type clickRegion struct {
	name   string
	hit    func(x, y int) bool
	handle func(ev ClickEvent) (Action, error)
}

// IntentCoordinator is the single entry point for chart clicks. It owns
// mutual exclusion across the four entry intents: arming any one mode
// disarms the other three.
type IntentCoordinator struct {
	intents   map[EntryMode]*OrderIntent
	armedMode EntryMode // "" when nothing is armed
	layout    *PanelLayout
	sizer     *PositionSizer
	builder   *OrderBuilder
	actions   PanelActions
	logger    *zap.Logger

	account string
	metrics domain.SymbolMetrics

	riskAmount       float64
	rewardMultiplier float64
	riskLocked       bool

	regions []clickRegion
}

func NewIntentCoordinator(layout *PanelLayout, sizer *PositionSizer, builder *OrderBuilder, actions PanelActions, riskAmount, rewardMultiplier float64, logger *zap.Logger) *IntentCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &IntentCoordinator{
		intents: map[EntryMode]*OrderIntent{
			ModeMarketBuy:  NewOrderIntent(ModeMarketBuy),
			ModeMarketSell: NewOrderIntent(ModeMarketSell),
			ModeLimit:      NewOrderIntent(ModeLimit),
			ModeStop:       NewOrderIntent(ModeStop),
		},
		layout:           layout,
		sizer:            sizer,
		builder:          builder,
		actions:          actions,
		logger:           logger,
		riskAmount:       riskAmount,
		rewardMultiplier: rewardMultiplier,
	}
	c.regions = c.buildRegions()
	return c
}

// buildRegions fixes the hit-test priority chain. The order is significant:
// the first matching region consumes the click and no later handler fires.
func (c *IntentCoordinator) buildRegions() []clickRegion {
	toggle := func(rect func() Rect, mode EntryMode) clickRegion {
		return clickRegion{
			name: "toggle_" + string(mode),
			hit:  func(x, y int) bool { return rect().Contains(x, y) },
			handle: func(ev ClickEvent) (Action, error) {
				return c.toggleMode(mode)
			},
		}
	}
	capture := func(mode EntryMode) clickRegion {
		return clickRegion{
			name: "capture_" + string(mode),
			hit: func(x, y int) bool {
				return c.armedMode == mode && !c.layout.InsideAnyButton(x, y)
			},
			handle: func(ev ClickEvent) (Action, error) {
				return c.capturePrice(mode, ev.ChartPrice)
			},
		}
	}
	action := func(name string, rect func() Rect, act Action, fire func()) clickRegion {
		return clickRegion{
			name: name,
			hit:  func(x, y int) bool { return rect().Contains(x, y) },
			handle: func(ev ClickEvent) (Action, error) {
				fire()
				return act, nil
			},
		}
	}

	return []clickRegion{
		{
			name: "risk_lock",
			hit:  func(x, y int) bool { return c.layout.RiskLock.Contains(x, y) },
			handle: func(ev ClickEvent) (Action, error) {
				c.riskLocked = !c.riskLocked
				c.logger.Info("risk lock toggled", zap.Bool("locked", c.riskLocked))
				return ActionRiskLockToggled, nil
			},
		},
		toggle(func() Rect { return c.layout.Limit }, ModeLimit),
		toggle(func() Rect { return c.layout.Stop }, ModeStop),
		capture(ModeLimit),
		capture(ModeStop),
		toggle(func() Rect { return c.layout.Buy }, ModeMarketBuy),
		capture(ModeMarketBuy),
		toggle(func() Rect { return c.layout.Sell }, ModeMarketSell),
		capture(ModeMarketSell),
		action("break_even", func() Rect { return c.layout.BreakEven }, ActionBreakEven, func() { c.actions.BreakEven() }),
		action("partial_close", func() Rect { return c.layout.Partial }, ActionPartialClose, func() { c.actions.PartialClose() }),
		action("flatten_all", func() Rect { return c.layout.FlattenAll }, ActionFlattenAll, func() { c.actions.FlattenAll() }),
		action("flatten_position", func() Rect { return c.layout.FlattenPosition }, ActionFlattenPosition, func() { c.actions.FlattenPosition() }),
		action("cancel_pending", func() Rect { return c.layout.CancelPending }, ActionCancelPending, func() {
			// A working entry can be either kind; clear both.
			c.actions.CancelPending(domain.OrderKindLimit)
			c.actions.CancelPending(domain.OrderKindStop)
		}),
	}
}

// HandleClick dispatches one click through the hit-test chain. It mutates at
// most one intent and may trigger an order submission.
func (c *IntentCoordinator) HandleClick(ev ClickEvent) (Action, error) {
	if ev.Button != MouseLeft {
		return ActionNone, nil
	}
	if c.account == "" || c.metrics.Symbol == "" {
		return ActionNone, ErrNoAccount
	}
	if !c.metrics.Usable() {
		return ActionNone, ErrBadQuote
	}

	x, y := c.layout.ToPanelSpace(ev.X, ev.Y)
	for _, r := range c.regions {
		if r.hit(x, y) {
			c.logger.Debug("click consumed", zap.String("region", r.name), zap.Int("x", x), zap.Int("y", y))
			return r.handle(ev)
		}
	}
	return ActionNone, nil
}

// toggleMode arms a mode, or cancels it when it is already armed. Arming one
// mode resets the other three.
func (c *IntentCoordinator) toggleMode(mode EntryMode) (Action, error) {
	intent := c.intents[mode]
	if intent.Armed() {
		intent.Reset()
		c.armedMode = ""
		c.logger.Info("intent disarmed", zap.String("mode", string(mode)))
		return ActionDisarmed, nil
	}
	if c.riskLocked {
		c.logger.Info("arm rejected, panel locked", zap.String("mode", string(mode)))
		return ActionNone, nil
	}
	for m, other := range c.intents {
		if m != mode {
			other.Reset()
		}
	}
	intent.Arm(c.metrics)
	c.armedMode = mode
	c.logger.Info("intent armed",
		zap.String("mode", string(mode)),
		zap.String("state", string(intent.State())))
	return ActionArmed, nil
}

func (c *IntentCoordinator) capturePrice(mode EntryMode, price float64) (Action, error) {
	intent := c.intents[mode]
	complete, err := intent.CapturePrice(price)
	if err != nil {
		// No open price slot; the click falls through as a no-op.
		return ActionNone, err
	}
	if !complete {
		c.logger.Debug("price captured",
			zap.String("mode", string(mode)),
			zap.Float64("price", price),
			zap.String("state", string(intent.State())))
		return ActionPriceCaptured, nil
	}
	return c.completeIntent(intent)
}

// completeIntent runs a completed intent through sizing and building, hands
// the request to the submitter, and unconditionally resets every intent to
// Idle. The panel does not retry and does not block on the gateway response.
func (c *IntentCoordinator) completeIntent(intent *OrderIntent) (Action, error) {
	defer c.ResetAll()

	res, err := intent.Finalize(c.metrics, c.rewardMultiplier)
	if err != nil {
		c.logger.Warn("intent discarded", zap.String("mode", string(intent.Mode())), zap.Error(err))
		return ActionNone, err
	}

	res.Quantity = c.sizer.ComputeQuantity(c.metrics, c.riskAmount, res.StopTicks)
	if res.Quantity == 0 {
		c.logger.Warn("intent discarded", zap.String("mode", string(intent.Mode())), zap.Error(ErrZeroSizing))
		return ActionNone, ErrZeroSizing
	}

	req := c.builder.Build(res, c.rewardMultiplier, c.metrics, c.account)
	c.logger.Info("submitting bracket order",
		zap.String("mode", string(intent.Mode())),
		zap.String("kind", string(req.Kind)),
		zap.String("side", string(req.Side)),
		zap.Float64("quantity", req.Quantity),
		zap.Float64("entry", res.EntryPrice),
		zap.Float64("stop_ticks", res.StopTicks))
	c.actions.SubmitOrder(req)
	return ActionSubmitted, nil
}

// ResetAll returns every intent to Idle.
func (c *IntentCoordinator) ResetAll() {
	for _, intent := range c.intents {
		intent.Reset()
	}
	c.armedMode = ""
}

func (c *IntentCoordinator) ArmedMode() EntryMode { return c.armedMode }

func (c *IntentCoordinator) IntentState(mode EntryMode) IntentState {
	return c.intents[mode].State()
}

func (c *IntentCoordinator) RiskLocked() bool { return c.riskLocked }

// SetAccount follows the chart's account selection. Switching accounts
// discards any in-progress intent.
func (c *IntentCoordinator) SetAccount(account string) {
	if account != c.account {
		c.ResetAll()
	}
	c.account = account
}

// SetMetrics refreshes the instrument snapshot before the next decision.
func (c *IntentCoordinator) SetMetrics(m domain.SymbolMetrics) {
	c.metrics = m
}

func (c *IntentCoordinator) UpdateSettings(riskAmount, rewardMultiplier float64) {
	c.riskAmount = riskAmount
	c.rewardMultiplier = rewardMultiplier
}

func (c *IntentCoordinator) Settings() (riskAmount, rewardMultiplier float64) {
	return c.riskAmount, c.rewardMultiplier
}
