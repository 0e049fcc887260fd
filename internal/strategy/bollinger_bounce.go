package strategy

import (
	"fmt"

	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"github.com/vitos/crypto_signal_bot/internal/indicator"
)

// BollingerBounce fades band touches: a close below the lower band is a buy,
// above the upper band a sell. %B drives the confidence, so the further the
// close escapes the band the stronger the signal.
type BollingerBounce struct {
	cfg config.StrategyConfig
}

func NewBollingerBounce(cfg config.StrategyConfig) *BollingerBounce {
	return &BollingerBounce{cfg: cfg}
}

func (s *BollingerBounce) Name() string { return "bollinger_bounce" }

func (s *BollingerBounce) Evaluate(candles []domain.Candle) domain.Signal {
	closes := indicator.Closes(candles)

	bands, err := indicator.Bollinger(closes, s.cfg.BollingerPeriod, s.cfg.BollingerDev)
	if err != nil {
		return domain.Hold(s.Name(), "warming up")
	}

	switch {
	case bands.PercentB <= 0:
		conf := clamp01(0.5 - bands.PercentB) // %B of -0.5 maxes out
		return domain.Signal{
			Strategy:   s.Name(),
			Action:     domain.ActionBuy,
			Confidence: conf,
			Reasons:    []string{fmt.Sprintf("close below lower band (%%B %.2f)", bands.PercentB)},
		}
	case bands.PercentB >= 1:
		conf := clamp01(bands.PercentB - 0.5)
		return domain.Signal{
			Strategy:   s.Name(),
			Action:     domain.ActionSell,
			Confidence: conf,
			Reasons:    []string{fmt.Sprintf("close above upper band (%%B %.2f)", bands.PercentB)},
		}
	default:
		return domain.Hold(s.Name(), fmt.Sprintf("inside bands (%%B %.2f)", bands.PercentB))
	}
}
