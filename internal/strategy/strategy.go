// Package strategy holds the interchangeable signal functions and the
// combiner that fuses their votes into one trade decision.
package strategy

import (
	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/domain"
)

// Strategy is one signal-generating function over a closed-candle series.
// Implementations must return a Hold signal (never an error) when the series
// is too short; warming up is not a failure.
type Strategy interface {
	Name() string
	Evaluate(candles []domain.Candle) domain.Signal
}

// DefaultSet returns the directional strategies wired from config, in the
// order their votes are reported.
func DefaultSet(cfg config.StrategyConfig) []Strategy {
	return []Strategy{
		NewRSIReversal(cfg),
		NewMACrossover(cfg),
		NewBollingerBounce(cfg),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
