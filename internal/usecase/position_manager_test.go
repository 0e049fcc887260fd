package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"github.com/vitos/crypto_signal_bot/internal/usecase"
	"go.uber.org/zap"
)

func newManagerFixture(t *testing.T) (*traderFixture, *usecase.PositionManager) {
	t.Helper()
	f := newTraderFixture(t, domain.ActionHold, 0)
	m := usecase.NewPositionManager(f.cfg, f.trader, f.positions, f.exchange, zap.NewNop())
	return f, m
}

func openTestPosition(t *testing.T, f *traderFixture, stop, target float64, ocoID int64) {
	t.Helper()
	require.NoError(t, f.positions.Save(&domain.Position{
		ID: "p1", Symbol: "BTCUSDT", Qty: 1, EntryPrice: 100,
		StopPrice: stop, TargetPrice: target, HighWater: 100,
		OCOOrderListID: ocoID, OpenedAt: time.Now(),
	}))
}

func TestManager_TrailingStopRatchetsUp(t *testing.T) {
	f, m := newManagerFixture(t)
	openTestPosition(t, f, 98, 0, 0)

	m.OnPrice("BTCUSDT", 105)
	m.CheckAll(context.Background())

	pos, ok := f.positions.Get("BTCUSDT")
	require.True(t, ok)
	assert.InDelta(t, 105.0, pos.HighWater, 1e-9)
	// 105 * (1 - 0.015) = 103.425, floored to the 0.01 tick.
	assert.InDelta(t, 103.42, pos.StopPrice, 0.011)
	assert.Empty(t, f.exchange.Sells, "a new high must not close the position")
}

func TestManager_FallingPriceNeverLoosensStop(t *testing.T) {
	f, m := newManagerFixture(t)
	openTestPosition(t, f, 98, 0, 0)

	m.OnPrice("BTCUSDT", 105)
	m.CheckAll(context.Background())
	pos, _ := f.positions.Get("BTCUSDT")
	raised := pos.StopPrice
	require.Greater(t, raised, 98.0)

	// Price retreats but stays above the trailed stop.
	m.OnPrice("BTCUSDT", 104)
	m.CheckAll(context.Background())

	pos, _ = f.positions.Get("BTCUSDT")
	assert.InDelta(t, raised, pos.StopPrice, 1e-9)
	assert.InDelta(t, 105.0, pos.HighWater, 1e-9)
}

func TestManager_SmallImprovementBelowStepIsSkipped(t *testing.T) {
	f, m := newManagerFixture(t)
	// Stop already close behind: 100.5*(1-0.015)=98.9925 is below
	// 98.9*(1+0.005)=99.39, so the move is not worth the churn.
	openTestPosition(t, f, 98.9, 0, 0)

	m.OnPrice("BTCUSDT", 100.5)
	m.CheckAll(context.Background())

	pos, _ := f.positions.Get("BTCUSDT")
	assert.InDelta(t, 98.9, pos.StopPrice, 1e-9)
	assert.InDelta(t, 100.5, pos.HighWater, 1e-9, "high water still advances")
}

func TestManager_StopBreachClosesPosition(t *testing.T) {
	f, m := newManagerFixture(t)
	openTestPosition(t, f, 98, 0, 0)

	f.exchange.Price = 97.5
	m.OnPrice("BTCUSDT", 97.5)
	m.CheckAll(context.Background())

	require.Len(t, f.exchange.Sells, 1)
	_, ok := f.positions.Get("BTCUSDT")
	assert.False(t, ok)

	trades, err := f.history.ListTrades(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "stop loss", trades[0].Reason)
	assert.Less(t, trades[0].RealizedPnL, 0.0)
}

func TestManager_TargetHitClosesPosition(t *testing.T) {
	f, m := newManagerFixture(t)
	openTestPosition(t, f, 98, 104, 0)

	f.exchange.Price = 104.5
	m.OnPrice("BTCUSDT", 104.5)
	// First pass records the new high and trails the stop; the second pass
	// sees the standing price at the target and exits.
	m.CheckAll(context.Background())
	m.CheckAll(context.Background())

	require.Len(t, f.exchange.Sells, 1)
	trades, err := f.history.ListTrades(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "take profit", trades[0].Reason)
	assert.Greater(t, trades[0].RealizedPnL, 0.0)
}

func TestManager_TrailingMoveReplacesOCO(t *testing.T) {
	f, m := newManagerFixture(t)
	openTestPosition(t, f, 98, 108, 42)

	m.OnPrice("BTCUSDT", 105)
	m.CheckAll(context.Background())

	// The old protective pair is cancelled and a fresh one placed at the
	// trailed stop, and the new list id is persisted.
	assert.Equal(t, 1, f.exchange.OCOCancelled)
	assert.Equal(t, 1, f.exchange.OCOPlaced)

	pos, ok := f.positions.Get("BTCUSDT")
	require.True(t, ok)
	assert.NotZero(t, pos.OCOOrderListID)
	assert.NotEqual(t, int64(42), pos.OCOOrderListID)
	assert.InDelta(t, 103.42, pos.StopPrice, 0.011)
	assert.InDelta(t, 108.0, pos.TargetPrice, 1e-9)
}

func TestManager_OCOReplaceFailureKeepsTrailedStop(t *testing.T) {
	f, m := newManagerFixture(t)
	openTestPosition(t, f, 98, 108, 42)
	f.exchange.OCOErr = errors.New("oco rejected")

	m.OnPrice("BTCUSDT", 105)
	m.CheckAll(context.Background())

	// Cancel succeeded, the re-place did not: the trailed stop is persisted
	// anyway and the position falls back to app-side protection.
	assert.Equal(t, 1, f.exchange.OCOCancelled)
	pos, ok := f.positions.Get("BTCUSDT")
	require.True(t, ok)
	assert.Zero(t, pos.OCOOrderListID)
	assert.InDelta(t, 103.42, pos.StopPrice, 0.011)
}

func TestManager_ExchangeOCOOwnsTheExit(t *testing.T) {
	f, m := newManagerFixture(t)
	openTestPosition(t, f, 98, 104, 77)

	m.OnPrice("BTCUSDT", 97)
	m.CheckAll(context.Background())

	assert.Empty(t, f.exchange.Sells, "exchange-side OCO handles the breach")
	_, ok := f.positions.Get("BTCUSDT")
	assert.True(t, ok)
}

func TestManager_RESTFallbackWhenNoStreamPrice(t *testing.T) {
	f, m := newManagerFixture(t)
	openTestPosition(t, f, 98, 0, 0)

	// No OnPrice fed; the manager asks the exchange directly.
	f.exchange.Price = 97
	m.CheckAll(context.Background())

	assert.Len(t, f.exchange.Sells, 1)
}
