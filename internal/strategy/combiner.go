package strategy

import (
	"fmt"

	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/domain"
)

// Combiner fuses the individual strategy votes into one decision.
//
// Buy and Sell confidences are summed separately; the side with the higher
// total wins but is penalized by the opposing total, so two strategies
// arguing cancel each other out. A decision only stands when enough
// strategies voted for it (MinVotes) and the normalized confidence clears
// MinConfidence; everything else is a Hold.
type Combiner struct {
	cfg        config.StrategyConfig
	strategies []Strategy
	volume     *VolumeSurge
}

func NewCombiner(cfg config.StrategyConfig, strategies []Strategy) *Combiner {
	return &Combiner{
		cfg:        cfg,
		strategies: strategies,
		volume:     NewVolumeSurge(cfg),
	}
}

// Evaluate runs every strategy over the candle series and fuses the result.
func (c *Combiner) Evaluate(candles []domain.Candle) domain.Signal {
	signals := make([]domain.Signal, 0, len(c.strategies))
	for _, s := range c.strategies {
		signals = append(signals, s.Evaluate(candles))
	}
	return c.Fuse(candles, signals)
}

// Fuse combines already-computed signals. Split out of Evaluate so tests can
// feed synthetic votes directly.
func (c *Combiner) Fuse(candles []domain.Candle, signals []domain.Signal) domain.Signal {
	var buyConf, sellConf float64
	var buyVotes, sellVotes int
	var reasons []string

	for _, s := range signals {
		switch s.Action {
		case domain.ActionBuy:
			buyConf += s.Confidence
			buyVotes++
			reasons = append(reasons, prefixed(s)...)
		case domain.ActionSell:
			sellConf += s.Confidence
			sellVotes++
			reasons = append(reasons, prefixed(s)...)
		}
	}

	action := domain.ActionHold
	votes := 0
	net := 0.0
	switch {
	case buyConf > sellConf:
		action = domain.ActionBuy
		votes = buyVotes
		net = buyConf - sellConf
	case sellConf > buyConf:
		action = domain.ActionSell
		votes = sellVotes
		net = sellConf - buyConf
	}

	if action == domain.ActionHold || votes < c.cfg.MinVotes {
		return domain.Hold("combined", "no consensus")
	}

	// Normalize by the number of agreeing strategies so one loud vote does
	// not outrank two moderate ones.
	conf := clamp01(net / float64(votes))

	if c.volume != nil && len(candles) > 0 {
		mod, why := c.volume.Modifier(candles, action)
		conf = clamp01(conf * mod)
		if why != "" {
			reasons = append(reasons, why)
		}
	}

	if conf < c.cfg.MinConfidence {
		return domain.Hold("combined",
			fmt.Sprintf("confidence %.2f below threshold %.2f", conf, c.cfg.MinConfidence))
	}

	return domain.Signal{
		Strategy:   "combined",
		Action:     action,
		Confidence: conf,
		Reasons:    reasons,
	}
}

func prefixed(s domain.Signal) []string {
	out := make([]string, 0, len(s.Reasons))
	for _, r := range s.Reasons {
		out = append(out, s.Strategy+": "+r)
	}
	return out
}
