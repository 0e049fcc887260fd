// Package indicator wraps the talib primitives the strategies share and adds
// the couple of variants talib does not ship. Everything operates on closed
// candles only; the caller is expected to drop the still-forming bar.
package indicator

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"
	"github.com/vitos/crypto_signal_bot/internal/domain"
)

var ErrNotEnoughData = errors.New("indicator: not enough data")

// Closes extracts the close series from a candle slice.
func Closes(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts the volume series from a candle slice.
func Volumes(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// RSI returns the Wilder RSI for the last closed bar.
func RSI(closes []float64, period int) (float64, error) {
	if len(closes) < period+1 {
		return 0, ErrNotEnoughData
	}
	series := talib.Rsi(closes, period)
	return last(series)
}

// CutlerRSI is the simple-moving-average variant of RSI. Unlike Wilder's
// smoothing it has no memory beyond the window, which makes it snappier on
// short lookbacks; the strategies use it to confirm the classic RSI.
func CutlerRSI(closes []float64, period int) (float64, error) {
	if len(closes) < period+1 {
		return 0, ErrNotEnoughData
	}
	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	if losses == 0 {
		if gains == 0 {
			return 50, nil
		}
		return 100, nil
	}
	rs := gains / losses
	return 100 - 100/(1+rs), nil
}

// SMA returns the simple moving average of the last closed bar.
func SMA(closes []float64, period int) (float64, error) {
	if len(closes) < period {
		return 0, ErrNotEnoughData
	}
	return last(talib.Sma(closes, period))
}

// EMA returns the exponential moving average of the last closed bar.
func EMA(closes []float64, period int) (float64, error) {
	if len(closes) < period {
		return 0, ErrNotEnoughData
	}
	return last(talib.Ema(closes, period))
}

// Cross reports a moving-average crossover on the last closed bar:
// +1 when the fast average crossed above the slow one (golden cross),
// -1 when it crossed below (death cross), 0 otherwise.
func Cross(closes []float64, fastPeriod, slowPeriod int) (int, error) {
	if len(closes) < slowPeriod+1 {
		return 0, ErrNotEnoughData
	}
	fast := talib.Ema(closes, fastPeriod)
	slow := talib.Ema(closes, slowPeriod)
	n := len(closes)
	prevDiff := fast[n-2] - slow[n-2]
	currDiff := fast[n-1] - slow[n-1]
	switch {
	case prevDiff <= 0 && currDiff > 0:
		return 1, nil
	case prevDiff >= 0 && currDiff < 0:
		return -1, nil
	default:
		return 0, nil
	}
}

// Bands holds the Bollinger values for the last closed bar. PercentB places
// the close within the band: 0 = on the lower band, 1 = on the upper.
type Bands struct {
	Upper    float64
	Middle   float64
	Lower    float64
	PercentB float64
}

// Bollinger computes the bands over an SMA basis.
func Bollinger(closes []float64, period int, dev float64) (*Bands, error) {
	if len(closes) < period {
		return nil, ErrNotEnoughData
	}
	upper, middle, lower := talib.BBands(closes, period, dev, dev, talib.SMA)
	n := len(closes)
	b := &Bands{Upper: upper[n-1], Middle: middle[n-1], Lower: lower[n-1]}
	width := b.Upper - b.Lower
	if width > 0 {
		b.PercentB = (closes[n-1] - b.Lower) / width
	} else {
		b.PercentB = 0.5 // flat market, close sits on the basis
	}
	return b, nil
}

// ATR returns the average true range for the last closed bar.
func ATR(candles []domain.Candle, period int) (float64, error) {
	if len(candles) < period+1 {
		return 0, ErrNotEnoughData
	}
	high := make([]float64, len(candles))
	low := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		high[i], low[i], closes[i] = c.High, c.Low, c.Close
	}
	return last(talib.Atr(high, low, closes, period))
}

// VolumeSpike returns the ratio of the last bar's volume to the average of
// the preceding lookback bars. Values above ~2 mark unusual activity.
func VolumeSpike(volumes []float64, lookback int) (float64, error) {
	if len(volumes) < lookback+1 {
		return 0, ErrNotEnoughData
	}
	windowStart := len(volumes) - 1 - lookback
	var sum float64
	for _, v := range volumes[windowStart : len(volumes)-1] {
		sum += v
	}
	avg := sum / float64(lookback)
	if avg <= 0 {
		return 0, nil
	}
	return volumes[len(volumes)-1] / avg, nil
}

// OBVSlope returns the sign of the on-balance-volume change over the last
// lookback bars: +1 accumulating, -1 distributing, 0 flat.
func OBVSlope(closes, volumes []float64, lookback int) (int, error) {
	if len(closes) < lookback+1 || len(volumes) != len(closes) {
		return 0, ErrNotEnoughData
	}
	obv := talib.Obv(closes, volumes)
	delta := obv[len(obv)-1] - obv[len(obv)-1-lookback]
	switch {
	case delta > 0:
		return 1, nil
	case delta < 0:
		return -1, nil
	default:
		return 0, nil
	}
}

func last(series []float64) (float64, error) {
	if len(series) == 0 {
		return 0, ErrNotEnoughData
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotEnoughData
	}
	return v, nil
}
