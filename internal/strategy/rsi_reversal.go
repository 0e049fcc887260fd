package strategy

import (
	"fmt"

	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"github.com/vitos/crypto_signal_bot/internal/indicator"
)

// RSIReversal buys oversold and sells overbought. Confidence scales with how
// far past the threshold the oscillator sits; when the Cutler variant agrees
// with the Wilder reading the confidence gets a bump, when it disagrees the
// signal is dampened.
type RSIReversal struct {
	cfg config.StrategyConfig
}

func NewRSIReversal(cfg config.StrategyConfig) *RSIReversal {
	return &RSIReversal{cfg: cfg}
}

func (s *RSIReversal) Name() string { return "rsi_reversal" }

func (s *RSIReversal) Evaluate(candles []domain.Candle) domain.Signal {
	closes := indicator.Closes(candles)

	rsi, err := indicator.RSI(closes, s.cfg.RSIPeriod)
	if err != nil {
		return domain.Hold(s.Name(), "warming up")
	}
	cutler, err := indicator.CutlerRSI(closes, s.cfg.RSIPeriod)
	if err != nil {
		return domain.Hold(s.Name(), "warming up")
	}

	switch {
	case rsi <= s.cfg.RSIOversold:
		conf := clamp01((s.cfg.RSIOversold - rsi) / s.cfg.RSIOversold)
		conf = confirm(conf, cutler <= s.cfg.RSIOversold)
		return domain.Signal{
			Strategy:   s.Name(),
			Action:     domain.ActionBuy,
			Confidence: conf,
			Reasons:    []string{fmt.Sprintf("RSI %.1f oversold (cutler %.1f)", rsi, cutler)},
		}
	case rsi >= s.cfg.RSIOverbought:
		conf := clamp01((rsi - s.cfg.RSIOverbought) / (100 - s.cfg.RSIOverbought))
		conf = confirm(conf, cutler >= s.cfg.RSIOverbought)
		return domain.Signal{
			Strategy:   s.Name(),
			Action:     domain.ActionSell,
			Confidence: conf,
			Reasons:    []string{fmt.Sprintf("RSI %.1f overbought (cutler %.1f)", rsi, cutler)},
		}
	default:
		return domain.Hold(s.Name(), fmt.Sprintf("RSI %.1f neutral", rsi))
	}
}

// confirm boosts a threshold-relative confidence when the second oscillator
// agrees and halves it when it does not. Floor keeps an agreeing signal from
// vanishing right at the threshold.
func confirm(conf float64, agrees bool) float64 {
	if agrees {
		return clamp01(0.4 + 0.6*conf)
	}
	return clamp01(conf * 0.5)
}
