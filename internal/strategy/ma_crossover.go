package strategy

import (
	"fmt"
	"math"

	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"github.com/vitos/crypto_signal_bot/internal/indicator"
)

// MACrossover signals on a fresh golden/death cross of the fast EMA over the
// slow EMA. Confidence comes from the gap between the averages relative to
// price: a decisive cross separates quickly, a graze barely does.
type MACrossover struct {
	cfg config.StrategyConfig
}

func NewMACrossover(cfg config.StrategyConfig) *MACrossover {
	return &MACrossover{cfg: cfg}
}

func (s *MACrossover) Name() string { return "ma_crossover" }

func (s *MACrossover) Evaluate(candles []domain.Candle) domain.Signal {
	closes := indicator.Closes(candles)

	cross, err := indicator.Cross(closes, s.cfg.FastMAPeriod, s.cfg.SlowMAPeriod)
	if err != nil {
		return domain.Hold(s.Name(), "warming up")
	}
	if cross == 0 {
		return domain.Hold(s.Name(), "no crossover")
	}

	fast, err := indicator.EMA(closes, s.cfg.FastMAPeriod)
	if err != nil {
		return domain.Hold(s.Name(), "warming up")
	}
	slow, err := indicator.EMA(closes, s.cfg.SlowMAPeriod)
	if err != nil {
		return domain.Hold(s.Name(), "warming up")
	}

	price := closes[len(closes)-1]
	gap := math.Abs(fast-slow) / price
	// 0.5% separation right at the cross is already a strong move.
	conf := clamp01(0.3 + gap/0.005*0.7)

	if cross > 0 {
		return domain.Signal{
			Strategy:   s.Name(),
			Action:     domain.ActionBuy,
			Confidence: conf,
			Reasons:    []string{fmt.Sprintf("golden cross EMA%d/EMA%d", s.cfg.FastMAPeriod, s.cfg.SlowMAPeriod)},
		}
	}
	return domain.Signal{
		Strategy:   s.Name(),
		Action:     domain.ActionSell,
		Confidence: conf,
		Reasons:    []string{fmt.Sprintf("death cross EMA%d/EMA%d", s.cfg.FastMAPeriod, s.cfg.SlowMAPeriod)},
	}
}
