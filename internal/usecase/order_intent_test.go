package usecase_test

import (
	"testing"

	"github.com/diegodinero/orderpanel/internal/domain"
	"github.com/diegodinero/orderpanel/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteMetrics() domain.SymbolMetrics {
	return domain.SymbolMetrics{
		Symbol:   "EURUSD",
		Bid:      1.1999,
		Ask:      1.2000,
		TickSize: 0.0001,
		TickCost: 1.0,
		MinLot:   1,
		MaxLot:   100,
		LotStep:  1,
	}
}

func TestOrderIntent_MarketBuyCapturesEntryOnArm(t *testing.T) {
	intent := usecase.NewOrderIntent(usecase.ModeMarketBuy)
	assert.Equal(t, usecase.StateIdle, intent.State())

	intent.Arm(quoteMetrics())
	// Market buy enters at the ask, so only the stop is left to capture.
	assert.Equal(t, usecase.StateAwaitingPrice, intent.State())

	complete, err := intent.CapturePrice(1.1950)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, usecase.StateComplete, intent.State())

	res, err := intent.Finalize(quoteMetrics(), 1.0)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderKindMarket, res.Kind)
	assert.Equal(t, domain.SideBuy, res.Side)
	assert.InDelta(t, 50, res.StopTicks, 1e-6)
	assert.InDelta(t, 50, res.TakeProfitTicks, 1e-6)
}

func TestOrderIntent_MarketSellEntersAtBid(t *testing.T) {
	intent := usecase.NewOrderIntent(usecase.ModeMarketSell)
	intent.Arm(quoteMetrics())

	complete, err := intent.CapturePrice(1.2049)
	require.NoError(t, err)
	require.True(t, complete)

	res, err := intent.Finalize(quoteMetrics(), 2.0)
	require.NoError(t, err)
	assert.Equal(t, domain.SideSell, res.Side)
	assert.InDelta(t, 1.1999, res.EntryPrice, 1e-9)
	assert.InDelta(t, 50, res.StopTicks, 1e-6)
	assert.InDelta(t, 100, res.TakeProfitTicks, 1e-6)
}

func TestOrderIntent_PositionalClicks(t *testing.T) {
	intent := usecase.NewOrderIntent(usecase.ModeLimit)
	intent.Arm(quoteMetrics())
	assert.Equal(t, usecase.StateArmed, intent.State())

	// First click always fills the entry, second the stop, regardless of
	// which price is higher.
	complete, err := intent.CapturePrice(1.1900)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Equal(t, usecase.StateAwaitingPrice, intent.State())

	complete, err = intent.CapturePrice(1.1950)
	require.NoError(t, err)
	assert.True(t, complete)

	res, err := intent.Finalize(quoteMetrics(), 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 1.1900, res.EntryPrice, 1e-9)
	assert.InDelta(t, 1.1950, res.StopPrice, 1e-9)
}

func TestOrderIntent_LimitSideInference(t *testing.T) {
	tests := []struct {
		name     string
		entry    float64
		stop     float64
		wantSide domain.Side
	}{
		{"entry above stop is a buy", 110.0, 100.0, domain.SideBuy},
		{"entry below stop is a sell", 100.0, 110.0, domain.SideSell},
	}

	m := quoteMetrics()
	m.TickSize = 0.5
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := usecase.NewOrderIntent(usecase.ModeLimit)
			intent.Arm(m)
			intent.CapturePrice(tt.entry)
			intent.CapturePrice(tt.stop)

			res, err := intent.Finalize(m, 1.0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSide, res.Side)
		})
	}
}

func TestOrderIntent_StopSideInference(t *testing.T) {
	m := quoteMetrics() // ask = 1.2000

	tests := []struct {
		name     string
		entry    float64
		stop     float64
		wantSide domain.Side
	}{
		{"entry above ask is a buy stop", 1.2050, 1.2000, domain.SideBuy},
		{"entry below ask is a sell stop", 1.1950, 1.2000, domain.SideSell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := usecase.NewOrderIntent(usecase.ModeStop)
			intent.Arm(m)
			intent.CapturePrice(tt.entry)
			intent.CapturePrice(tt.stop)

			res, err := intent.Finalize(m, 1.0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSide, res.Side)
			assert.Equal(t, domain.OrderKindStop, res.Kind)
		})
	}
}

func TestOrderIntent_CaptureWithoutArmRejected(t *testing.T) {
	intent := usecase.NewOrderIntent(usecase.ModeLimit)
	_, err := intent.CapturePrice(1.2000)
	assert.ErrorIs(t, err, usecase.ErrNotArmed)
}

func TestOrderIntent_ThirdCaptureRejected(t *testing.T) {
	intent := usecase.NewOrderIntent(usecase.ModeLimit)
	intent.Arm(quoteMetrics())
	intent.CapturePrice(1.2000)
	intent.CapturePrice(1.1950)

	_, err := intent.CapturePrice(1.1900)
	assert.ErrorIs(t, err, usecase.ErrNoFreeSlot)
}

func TestOrderIntent_FinalizeZeroStopRejected(t *testing.T) {
	intent := usecase.NewOrderIntent(usecase.ModeLimit)
	intent.Arm(quoteMetrics())
	intent.CapturePrice(1.2000)
	intent.CapturePrice(1.2000)

	_, err := intent.Finalize(quoteMetrics(), 1.0)
	assert.ErrorIs(t, err, usecase.ErrZeroStop)
}

func TestOrderIntent_FinalizeRoundsToTick(t *testing.T) {
	m := quoteMetrics()
	m.TickSize = 0.25

	intent := usecase.NewOrderIntent(usecase.ModeLimit)
	intent.Arm(m)
	intent.CapturePrice(5300.37) // between ticks
	intent.CapturePrice(5295.13)

	res, err := intent.Finalize(m, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 5300.25, res.EntryPrice, 1e-9)
	assert.InDelta(t, 5295.25, res.StopPrice, 1e-9)
	assert.InDelta(t, 20, res.StopTicks, 1e-6)
}

func TestOrderIntent_ResetDiscardsPrices(t *testing.T) {
	intent := usecase.NewOrderIntent(usecase.ModeLimit)
	intent.Arm(quoteMetrics())
	intent.CapturePrice(1.2000)

	intent.Reset()
	assert.Equal(t, usecase.StateIdle, intent.State())
	assert.False(t, intent.Armed())

	_, err := intent.Finalize(quoteMetrics(), 1.0)
	assert.ErrorIs(t, err, usecase.ErrIncomplete)
}

func TestOrderIntent_NegativeRewardMultiplierClampsTarget(t *testing.T) {
	intent := usecase.NewOrderIntent(usecase.ModeMarketBuy)
	intent.Arm(quoteMetrics())
	intent.CapturePrice(1.1950)

	res, err := intent.Finalize(quoteMetrics(), -1.0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.TakeProfitTicks)
}
