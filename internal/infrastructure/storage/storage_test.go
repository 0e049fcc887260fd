package storage_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"github.com/vitos/crypto_signal_bot/internal/infrastructure/storage"
)

func samplePosition(symbol string) *domain.Position {
	return &domain.Position{
		ID:          "pos-1",
		Symbol:      symbol,
		Qty:         0.5,
		EntryPrice:  10_000,
		StopPrice:   9_800,
		TargetPrice: 10_400,
		HighWater:   10_100,
		Reason:      "test",
		OpenedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestPositionFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")

	store, err := storage.NewPositionFile(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(samplePosition("BTCUSDT")))
	require.NoError(t, store.Save(samplePosition("ETHUSDT")))

	// A fresh store reads the same state back from disk.
	reopened, err := storage.NewPositionFile(path)
	require.NoError(t, err)
	assert.Len(t, reopened.List(), 2)

	got, ok := reopened.Get("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 0.5, got.Qty)
	assert.Equal(t, 9_800.0, got.StopPrice)

	require.NoError(t, reopened.Delete("BTCUSDT"))
	_, ok = reopened.Get("BTCUSDT")
	assert.False(t, ok)

	again, err := storage.NewPositionFile(path)
	require.NoError(t, err)
	assert.Len(t, again.List(), 1)
}

func TestPositionFile_GetReturnsCopy(t *testing.T) {
	store, err := storage.NewPositionFile(filepath.Join(t.TempDir(), "p.json"))
	require.NoError(t, err)
	require.NoError(t, store.Save(samplePosition("BTCUSDT")))

	got, _ := store.Get("BTCUSDT")
	got.StopPrice = 1

	fresh, _ := store.Get("BTCUSDT")
	assert.Equal(t, 9_800.0, fresh.StopPrice, "mutating a returned position must not touch the store")
}

func TestPositionFile_CorruptFileFailsLoudly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := storage.NewPositionFile(path)
	assert.Error(t, err)
}

func TestPositionFile_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewPositionFile(filepath.Join(dir, "positions.json"))
	require.NoError(t, err)
	require.NoError(t, store.Save(samplePosition("BTCUSDT")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "positions.json", entries[0].Name())
}

func TestTradeLog_HeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")

	log, err := storage.NewTradeLog(path)
	require.NoError(t, err)

	trade := &domain.Trade{
		Symbol:      "BTCUSDT",
		Side:        domain.SideSell,
		Qty:         0.25,
		Price:       10_500,
		QuoteValue:  2_625,
		Fee:         2.6,
		RealizedPnL: 120.5,
		Reason:      "take profit",
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, log.Append(trade))

	// Reopening must not duplicate the header.
	log2, err := storage.NewTradeLog(path)
	require.NoError(t, err)
	require.NoError(t, log2.Append(trade))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "time", rows[0][0])
	assert.Equal(t, "BTCUSDT", rows[1][1])
	assert.Equal(t, "SELL", rows[1][2])
	assert.Equal(t, "0.25", rows[1][3])
	assert.Equal(t, "120.5", rows[1][7])
	assert.Equal(t, "take profit", rows[1][8])
}

func TestSQLiteStore_RoundTripAndSummary(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	trades := []*domain.Trade{
		{ID: "t1", Symbol: "BTCUSDT", Side: domain.SideBuy, Qty: 0.5, Price: 10_000, QuoteValue: 5_000, CreatedAt: base},
		{ID: "t2", Symbol: "BTCUSDT", Side: domain.SideSell, Qty: 0.5, Price: 10_400, QuoteValue: 5_200, RealizedPnL: 200, CreatedAt: base.Add(time.Hour)},
		{ID: "t3", Symbol: "ETHUSDT", Side: domain.SideBuy, Qty: 2, Price: 2_000, QuoteValue: 4_000, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, tr := range trades {
		require.NoError(t, store.SaveTrade(ctx, tr))
	}

	listed, err := store.ListTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	// Most recent first.
	assert.Equal(t, "t3", listed[0].ID)
	assert.Equal(t, "t1", listed[2].ID)

	limited, err := store.ListTrades(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	summary, err := store.SummarizeBySymbol(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "BTCUSDT", summary[0].Symbol)
	assert.Equal(t, 2, summary[0].Trades)
	assert.InDelta(t, 10_200, summary[0].Volume, 1e-9)
	assert.InDelta(t, 200, summary[0].RealizedPnL, 1e-9)
}
