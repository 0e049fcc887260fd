package indicator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"github.com/vitos/crypto_signal_bot/internal/indicator"
)

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestSMA(t *testing.T) {
	v, err := indicator.SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-9)

	_, err = indicator.SMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, indicator.ErrNotEnoughData)
}

func TestRSI_Extremes(t *testing.T) {
	// Monotonically rising closes have no losses: RSI pegs at 100.
	v, err := indicator.RSI(rising(30), 14)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, v, 1e-6)

	// Monotonically falling closes peg at 0.
	falling := rising(30)
	for i, j := 0, len(falling)-1; i < j; i, j = i+1, j-1 {
		falling[i], falling[j] = falling[j], falling[i]
	}
	v, err = indicator.RSI(falling, 14)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-6)

	_, err = indicator.RSI(rising(10), 14)
	assert.ErrorIs(t, err, indicator.ErrNotEnoughData)
}

func TestCutlerRSI(t *testing.T) {
	// Deltas over the window: +1, +1, -1, +1 -> gains 3, losses 1 -> RSI 75.
	v, err := indicator.CutlerRSI([]float64{1, 2, 3, 2, 3}, 4)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, v, 1e-9)

	// No movement at all sits on the midline.
	v, err = indicator.CutlerRSI([]float64{5, 5, 5, 5, 5}, 4)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, v, 1e-9)

	// Pure gains peg at 100.
	v, err = indicator.CutlerRSI(rising(10), 4)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, v, 1e-9)
}

func TestCross_GoldenAfterDowntrend(t *testing.T) {
	// A long decline followed by a sharp rally must produce exactly one
	// golden cross, and no death cross after it.
	series := make([]float64, 0, 60)
	price := 100.0
	for i := 0; i < 30; i++ {
		price -= 1.0
		series = append(series, price)
	}
	for i := 0; i < 30; i++ {
		price += 2.0
		series = append(series, price)
	}

	golden, death := 0, 0
	goldenIdx := -1
	for i := 25; i <= len(series); i++ {
		cross, err := indicator.Cross(series[:i], 5, 15)
		require.NoError(t, err)
		switch cross {
		case 1:
			golden++
			goldenIdx = i
		case -1:
			if goldenIdx != -1 && i > goldenIdx {
				death++
			}
		}
	}
	assert.Equal(t, 1, golden, "expected exactly one golden cross")
	assert.Equal(t, 0, death, "no death cross after the rally started")
}

func TestBollinger(t *testing.T) {
	// Constant series: zero width, close sits on the basis.
	flat := make([]float64, 25)
	for i := range flat {
		flat[i] = 10
	}
	b, err := indicator.Bollinger(flat, 20, 2)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, b.Middle, 1e-9)
	assert.InDelta(t, b.Upper, b.Lower, 1e-9)
	assert.InDelta(t, 0.5, b.PercentB, 1e-9)

	// A spike above the band pushes %B past 1.
	spiked := append(append([]float64{}, flat...), 15)
	b, err = indicator.Bollinger(spiked, 20, 2)
	require.NoError(t, err)
	assert.Greater(t, b.PercentB, 1.0)
}

func TestVolumeSpike(t *testing.T) {
	v, err := indicator.VolumeSpike([]float64{1, 1, 1, 1, 3}, 4)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-9)

	v, err = indicator.VolumeSpike([]float64{2, 2, 2, 2, 2}, 4)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-9)

	_, err = indicator.VolumeSpike([]float64{1, 2}, 4)
	assert.ErrorIs(t, err, indicator.ErrNotEnoughData)
}

func TestOBVSlope(t *testing.T) {
	closes := rising(10)
	volumes := make([]float64, 10)
	for i := range volumes {
		volumes[i] = 100
	}
	slope, err := indicator.OBVSlope(closes, volumes, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, slope)
}

func TestATR_FlatMarket(t *testing.T) {
	candles := make([]domain.Candle, 20)
	for i := range candles {
		candles[i] = domain.Candle{Open: 10, High: 10, Low: 10, Close: 10}
	}
	v, err := indicator.ATR(candles, 14)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-9)
}

func TestClosesVolumes(t *testing.T) {
	candles := []domain.Candle{
		{Close: 1, Volume: 10},
		{Close: 2, Volume: 20},
	}
	assert.Equal(t, []float64{1, 2}, indicator.Closes(candles))
	assert.Equal(t, []float64{10, 20}, indicator.Volumes(candles))
}
