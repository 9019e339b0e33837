package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/diegodinero/orderpanel/internal/domain"
	"go.uber.org/zap"
)

// PanelConfig carries the user-facing panel settings.
type PanelConfig struct {
	Account              string
	Symbol               string
	RiskAmount           float64
	RewardMultiplier     float64
	XShift               int
	YShift               int
	UIScale              float64
	BreakEvenMode        BEDisplayMode
	PartialCloseFraction float64
}

// PanelStatus is a read-only snapshot for display and the status API.
type PanelStatus struct {
	Account          string                    `json:"account"`
	Symbol           string                    `json:"symbol"`
	Bid              float64                   `json:"bid"`
	Ask              float64                   `json:"ask"`
	ArmedMode        EntryMode                 `json:"armed_mode"`
	IntentStates     map[EntryMode]IntentState `json:"intent_states"`
	RiskLocked       bool                      `json:"risk_locked"`
	RiskAmount       float64                   `json:"risk_amount"`
	RewardMultiplier float64                   `json:"reward_multiplier"`
	BreakEven        BEReading                 `json:"break_even"`
	Info             string                    `json:"info"`
}

// PanelService ties the coordinator, sizer, builder and break-even tracker
// to the gateway and the trade journal. Clicks, quotes and fill/cancel
// notifications are serialized through one mutex; order submission is
// dispatched fire-and-forget and never awaited.
type PanelService struct {
	mu          sync.Mutex
	coordinator *IntentCoordinator
	tracker     *BreakEvenTracker
	layout      *PanelLayout
	gateway     domain.Gateway
	tradeRepo   domain.TradeRepository
	logger      *zap.Logger

	cfg     PanelConfig
	metrics domain.SymbolMetrics

	lastPosition *domain.Position

	// results receives the gateway's opaque submission handles. Observed for
	// logging and tests only; intent state resets before anything arrives
	// here.
	results chan *domain.OrderResult
}

func NewPanelService(gateway domain.Gateway, tradeRepo domain.TradeRepository, cfg PanelConfig, logger *zap.Logger) *PanelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UIScale <= 0 {
		cfg.UIScale = 1
	}
	if cfg.PartialCloseFraction <= 0 || cfg.PartialCloseFraction >= 1 {
		cfg.PartialCloseFraction = 0.5
	}

	layout := NewPanelLayout(cfg.XShift, cfg.YShift, cfg.UIScale)
	s := &PanelService{
		layout:    layout,
		gateway:   gateway,
		tradeRepo: tradeRepo,
		logger:    logger,
		cfg:       cfg,
		results:   make(chan *domain.OrderResult, 16),
	}
	s.coordinator = NewIntentCoordinator(
		layout,
		NewPositionSizer(logger),
		NewOrderBuilder(),
		s,
		cfg.RiskAmount,
		cfg.RewardMultiplier,
		logger,
	)
	s.coordinator.SetAccount(cfg.Account)
	s.tracker = NewBreakEvenTracker(cfg.BreakEvenMode, gateway)
	s.tracker.SetInstrument(cfg.Account, cfg.Symbol)
	return s
}

// Bind registers the service on the gateway's push feeds.
func (s *PanelService) Bind() {
	s.gateway.OnQuote(s.UpdateQuote)
	s.gateway.OnFill(s.HandleFill)
	s.gateway.OnCancel(s.HandleCancel)
}

// Results exposes the submission result handles for observability.
func (s *PanelService) Results() <-chan *domain.OrderResult {
	return s.results
}

// SetMetrics installs a fresh instrument snapshot.
func (s *PanelService) SetMetrics(m domain.SymbolMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
	s.coordinator.SetMetrics(m)
}

// UpdateQuote refreshes bid/ask from the live feed.
func (s *PanelService) UpdateQuote(symbol string, bid, ask float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if symbol != s.metrics.Symbol {
		return
	}
	s.metrics.Bid = bid
	s.metrics.Ask = ask
	s.coordinator.SetMetrics(s.metrics)
}

// SetAccount follows the chart's account selection.
func (s *PanelService) SetAccount(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Account = account
	s.coordinator.SetAccount(account)
	s.tracker.SetInstrument(account, s.cfg.Symbol)
}

// HandleClick routes one chart click through the coordinator.
func (s *PanelService) HandleClick(ev ClickEvent) (Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coordinator.HandleClick(ev)
}

// UpdateSettings applies new risk settings and panel placement.
func (s *PanelService) UpdateSettings(riskAmount, rewardMultiplier float64, xShift, yShift int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.RiskAmount = riskAmount
	s.cfg.RewardMultiplier = rewardMultiplier
	s.cfg.XShift = xShift
	s.cfg.YShift = yShift
	s.coordinator.UpdateSettings(riskAmount, rewardMultiplier)
	s.layout.Reposition(xShift, yShift)
	s.logger.Info("settings updated",
		zap.Float64("risk_amount", riskAmount),
		zap.Float64("reward_multiplier", rewardMultiplier))
}

// Status returns a display snapshot of the whole panel.
func (s *PanelService) Status(ctx context.Context) PanelStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	risk, reward := s.coordinator.Settings()
	return PanelStatus{
		Account:          s.cfg.Account,
		Symbol:           s.metrics.Symbol,
		Bid:              s.metrics.Bid,
		Ask:              s.metrics.Ask,
		ArmedMode:        s.coordinator.ArmedMode(),
		IntentStates:     s.intentStates(),
		RiskLocked:       s.coordinator.RiskLocked(),
		RiskAmount:       risk,
		RewardMultiplier: reward,
		BreakEven:        s.tracker.Reading(ctx, s.metrics.Bid, s.metrics.Ask, s.metrics.TickSize),
		Info:             fmt.Sprintf("$Risk = %.0f, TP reward = %.1f", risk, reward),
	}
}

func (s *PanelService) intentStates() map[EntryMode]IntentState {
	states := make(map[EntryMode]IntentState, 4)
	for _, mode := range []EntryMode{ModeMarketBuy, ModeMarketSell, ModeLimit, ModeStop} {
		states[mode] = s.coordinator.IntentState(mode)
	}
	return states
}

// HandleFill records the fill into the break-even tracker and remembers the
// position for the flatten-by-id action and the journal. The execution feed
// carries every instrument on the account; only events for the panel's own
// account and symbol may touch tracker state.
func (s *PanelService) HandleFill(ev domain.FillEvent) {
	if ev.Status != domain.OrderStatusFilled {
		return
	}
	s.mu.Lock()
	account, symbol := s.cfg.Account, s.cfg.Symbol
	s.mu.Unlock()
	if ev.Account != account || ev.Symbol != symbol {
		return
	}
	pos, err := s.gateway.GetPosition(context.Background(), ev.Account, ev.Symbol)
	if err != nil {
		s.logger.Error("position lookup after fill failed",
			zap.String("symbol", ev.Symbol), zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pos == nil {
		return
	}
	s.lastPosition = pos
	s.tracker.RecordFill(pos.Side, pos.EntryPrice)
	s.logger.Info("fill recorded",
		zap.String("symbol", ev.Symbol),
		zap.String("position_id", ev.PositionID),
		zap.String("side", string(pos.Side)),
		zap.Float64("entry_price", pos.EntryPrice))
}

// HandleCancel clears the tracker when the position is flattened or its
// bracket is cancelled externally, journaling the closed position first.
// Realized P&L is marked at the exit quote, not the figure cached at fill
// time. Events for other instruments on the account are ignored.
func (s *PanelService) HandleCancel(ev domain.CancelEvent) {
	s.mu.Lock()
	if ev.Account != s.cfg.Account || ev.Symbol != s.cfg.Symbol {
		s.mu.Unlock()
		return
	}
	closed := s.lastPosition
	exit := s.metrics.Bid
	if closed != nil && closed.Side == domain.SideSell {
		exit = s.metrics.Ask
	}
	var realized float64
	if closed != nil {
		realized = closed.UnrealizedPnL
		if s.metrics.Usable() {
			ticks := (exit - closed.EntryPrice) / s.metrics.TickSize
			if closed.Side == domain.SideSell {
				ticks = -ticks
			}
			realized = ticks * s.metrics.TickCost * closed.Quantity
		}
	}
	s.lastPosition = nil
	s.tracker.Clear()
	s.mu.Unlock()

	s.logger.Info("position cleared",
		zap.String("symbol", ev.Symbol),
		zap.String("status", string(ev.Status)))

	if closed == nil || s.tradeRepo == nil {
		return
	}
	hist := &domain.PositionHistory{
		Account:     closed.Account,
		Symbol:      closed.Symbol,
		Side:        closed.Side,
		Quantity:    closed.Quantity,
		EntryPrice:  closed.EntryPrice,
		ExitPrice:   exit,
		RealizedPnL: realized,
		ClosedAt:    time.Now(),
	}
	if err := s.tradeRepo.SavePositionHistory(context.Background(), hist); err != nil {
		s.logger.Error("failed to save position history", zap.Error(err))
	}
}

// BreakEvenReading evaluates the tracker against the current quote.
func (s *PanelService) BreakEvenReading(ctx context.Context) BEReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Reading(ctx, s.metrics.Bid, s.metrics.Ask, s.metrics.TickSize)
}

// --- PanelActions ---

// SubmitOrder dispatches the request as a fire-and-forget task. The caller
// has already reset intent state by the time the gateway responds; a failed
// submission is logged, not retried.
func (s *PanelService) SubmitOrder(req *domain.OrderRequest) {
	go func() {
		ctx := context.Background()
		result, err := s.gateway.PlaceOrder(ctx, req)
		if err != nil {
			s.logger.Error("order submission failed",
				zap.String("symbol", req.Symbol),
				zap.String("kind", string(req.Kind)),
				zap.String("side", string(req.Side)),
				zap.Error(err))
		} else {
			s.logger.Info("order submitted",
				zap.String("order_id", result.OrderID),
				zap.String("status", result.Status))
		}
		s.journalOrder(ctx, req)

		select {
		case s.results <- result:
		default:
		}
	}()
}

func (s *PanelService) journalOrder(ctx context.Context, req *domain.OrderRequest) {
	if s.tradeRepo == nil {
		return
	}
	rec := &domain.OrderRecord{
		Symbol:        req.Symbol,
		Account:       req.Account,
		Kind:          req.Kind,
		Side:          req.Side,
		Quantity:      req.Quantity,
		StopLossTicks: req.StopLoss.OffsetTicks,
		CreatedAt:     time.Now(),
	}
	if req.Price.Set {
		rec.Price = req.Price.Value
	} else if req.TriggerPrice.Set {
		rec.Price = req.TriggerPrice.Value
	}
	if req.TakeProfit != nil {
		rec.TakeProfitTicks = req.TakeProfit.OffsetTicks
	}
	if err := s.tradeRepo.SaveOrder(ctx, rec); err != nil {
		s.logger.Error("failed to journal order", zap.Error(err))
	}
}

func (s *PanelService) FlattenAll() {
	account := s.cfg.Account
	go func() {
		if err := s.gateway.FlattenAll(context.Background(), account); err != nil {
			s.logger.Error("flatten all failed", zap.Error(err))
		}
	}()
}

func (s *PanelService) FlattenPosition() {
	// Invoked from the coordinator's click callback with s.mu already held
	// by HandleClick; re-locking here would self-deadlock.
	pos := s.lastPosition
	if pos == nil {
		s.logger.Warn("flatten position requested with no known position")
		return
	}
	go func() {
		if err := s.gateway.FlattenPosition(context.Background(), pos.PositionID); err != nil {
			s.logger.Error("flatten position failed",
				zap.String("position_id", pos.PositionID), zap.Error(err))
		}
	}()
}

func (s *PanelService) CancelPending(kind domain.OrderKind) {
	account, symbol := s.cfg.Account, s.cfg.Symbol
	go func() {
		if err := s.gateway.CancelPendingOrders(context.Background(), account, symbol, kind); err != nil {
			s.logger.Error("cancel pending failed", zap.Error(err))
		}
	}()
}

func (s *PanelService) BreakEven() {
	account, symbol := s.cfg.Account, s.cfg.Symbol
	go func() {
		if err := s.gateway.AmendStopToBreakEven(context.Background(), account, symbol); err != nil {
			s.logger.Error("break-even amend failed", zap.Error(err))
		}
	}()
}

func (s *PanelService) PartialClose() {
	account, symbol, fraction := s.cfg.Account, s.cfg.Symbol, s.cfg.PartialCloseFraction
	go func() {
		if err := s.gateway.PartialClose(context.Background(), account, symbol, fraction); err != nil {
			s.logger.Error("partial close failed", zap.Error(err))
		}
	}()
}
