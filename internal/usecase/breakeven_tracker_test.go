package usecase_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegodinero/orderpanel/internal/domain"
	"github.com/diegodinero/orderpanel/internal/usecase"
)

type mockPositionLookup struct {
	position *domain.Position
	err      error

	lastAccount string
	lastSymbol  string
}

func (m *mockPositionLookup) GetPosition(_ context.Context, account, symbol string) (*domain.Position, error) {
	m.lastAccount = account
	m.lastSymbol = symbol
	return m.position, m.err
}

func TestBreakEvenTracker_NoPosition(t *testing.T) {
	tracker := usecase.NewBreakEvenTracker(usecase.BEModeTicks, nil)

	reading := tracker.Reading(context.Background(), 1.2000, 1.2001, 0.0001)
	assert.Equal(t, 0.0, reading.Value)
	assert.Equal(t, usecase.SignZero, reading.Sign)
}

func TestBreakEvenTracker_LongMarkedAgainstBid(t *testing.T) {
	tracker := usecase.NewBreakEvenTracker(usecase.BEModeTicks, nil)
	tracker.RecordFill(domain.SideBuy, 1.2000)

	// 12 ticks of profit on the bid, ask ignored for longs.
	reading := tracker.Reading(context.Background(), 1.2012, 1.2013, 0.0001)
	assert.InDelta(t, 12, reading.Value, 1e-9)
	assert.Equal(t, usecase.SignPos, reading.Sign)

	// 8 ticks under water.
	reading = tracker.Reading(context.Background(), 1.1992, 1.1993, 0.0001)
	assert.InDelta(t, -8, reading.Value, 1e-9)
	assert.Equal(t, usecase.SignNeg, reading.Sign)
}

func TestBreakEvenTracker_ShortMarkedAgainstAsk(t *testing.T) {
	tracker := usecase.NewBreakEvenTracker(usecase.BEModeTicks, nil)
	tracker.RecordFill(domain.SideSell, 1.2000)

	reading := tracker.Reading(context.Background(), 1.1987, 1.1988, 0.0001)
	assert.InDelta(t, 12, reading.Value, 1e-9)
	assert.Equal(t, usecase.SignPos, reading.Sign)
}

func TestBreakEvenTracker_PointsMode(t *testing.T) {
	tracker := usecase.NewBreakEvenTracker(usecase.BEModePoints, nil)
	tracker.RecordFill(domain.SideBuy, 5300.25)

	reading := tracker.Reading(context.Background(), 5302.75, 5303.00, 0.25)
	assert.InDelta(t, 2.50, reading.Value, 1e-9)
	assert.Equal(t, usecase.SignPos, reading.Sign)
}

func TestBreakEvenTracker_PnLModeUsesVenueLookup(t *testing.T) {
	lookup := &mockPositionLookup{
		position: &domain.Position{
			Account:       "SIM-001",
			Symbol:        "MESU6",
			Side:          domain.SideBuy,
			Quantity:      2,
			EntryPrice:    5300.25,
			UnrealizedPnL: 37.50,
		},
	}
	tracker := usecase.NewBreakEvenTracker(usecase.BEModePnL, lookup)
	tracker.SetInstrument("SIM-001", "MESU6")
	tracker.RecordFill(domain.SideBuy, 5300.25)

	reading := tracker.Reading(context.Background(), 5304.00, 5304.25, 0.25)
	require.InDelta(t, 37.50, reading.Value, 1e-9)
	assert.Equal(t, usecase.SignPos, reading.Sign)
	assert.Equal(t, "SIM-001", lookup.lastAccount)
	assert.Equal(t, "MESU6", lookup.lastSymbol)
}

func TestBreakEvenTracker_PnLModeNoOpenPosition(t *testing.T) {
	tracker := usecase.NewBreakEvenTracker(usecase.BEModePnL, &mockPositionLookup{})
	tracker.RecordFill(domain.SideBuy, 5300.25)

	reading := tracker.Reading(context.Background(), 5304.00, 5304.25, 0.25)
	assert.Equal(t, 0.0, reading.Value)
	assert.Equal(t, usecase.SignZero, reading.Sign)
}

func TestBreakEvenTracker_BadTickSize(t *testing.T) {
	tracker := usecase.NewBreakEvenTracker(usecase.BEModeTicks, nil)
	tracker.RecordFill(domain.SideBuy, 1.2000)

	for _, tick := range []float64{0, -0.0001, math.NaN()} {
		reading := tracker.Reading(context.Background(), 1.2012, 1.2013, tick)
		assert.Equal(t, 0.0, reading.Value)
		assert.Equal(t, usecase.SignZero, reading.Sign)
	}
}

func TestBreakEvenTracker_ClearResetsReadout(t *testing.T) {
	tracker := usecase.NewBreakEvenTracker(usecase.BEModeTicks, nil)
	tracker.RecordFill(domain.SideBuy, 1.2000)
	require.True(t, tracker.State().IsSet())

	tracker.Clear()
	assert.False(t, tracker.State().IsSet())

	reading := tracker.Reading(context.Background(), 1.2012, 1.2013, 0.0001)
	assert.Equal(t, 0.0, reading.Value)
	assert.Equal(t, usecase.SignZero, reading.Sign)
}

func TestBreakEvenTracker_RoundsFractionalTicks(t *testing.T) {
	tracker := usecase.NewBreakEvenTracker(usecase.BEModeTicks, nil)
	tracker.RecordFill(domain.SideBuy, 5300.25)

	// 5300.36 is 0.44 ticks above entry at a 0.25 tick, rounds to 0.
	reading := tracker.Reading(context.Background(), 5300.36, 5300.50, 0.25)
	assert.Equal(t, 0.0, reading.Value)
	assert.Equal(t, usecase.SignZero, reading.Sign)
}
