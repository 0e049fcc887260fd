package strategy

import (
	"fmt"

	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"github.com/vitos/crypto_signal_bot/internal/indicator"
)

// VolumeSurge is not a directional strategy. It measures whether the last bar
// traded on unusual volume and whether on-balance volume agrees with the
// candle direction; the combiner uses the resulting modifier to boost
// confirmed signals and dampen moves nobody participated in.
type VolumeSurge struct {
	cfg config.StrategyConfig
}

func NewVolumeSurge(cfg config.StrategyConfig) *VolumeSurge {
	return &VolumeSurge{cfg: cfg}
}

func (s *VolumeSurge) Name() string { return "volume_surge" }

// Modifier returns a multiplier applied to the fused confidence and the
// reason behind it. Neutral is 1.0.
func (s *VolumeSurge) Modifier(candles []domain.Candle, action domain.Action) (float64, string) {
	closes := indicator.Closes(candles)
	volumes := indicator.Volumes(candles)

	ratio, err := indicator.VolumeSpike(volumes, s.cfg.VolumeLookback)
	if err != nil {
		return 1.0, "volume: warming up"
	}

	last := candles[len(candles)-1]
	bullishBar := last.Close >= last.Open

	obv, err := indicator.OBVSlope(closes, volumes, s.cfg.VolumeLookback)
	if err != nil {
		obv = 0
	}

	if ratio >= s.cfg.VolumeSpikeMult {
		// Spike in the direction of the signal confirms it; a spike against
		// it is a warning.
		confirms := (action == domain.ActionBuy && bullishBar && obv >= 0) ||
			(action == domain.ActionSell && !bullishBar && obv <= 0)
		if confirms {
			return 1.25, fmt.Sprintf("volume spike %.1fx confirms", ratio)
		}
		return 0.75, fmt.Sprintf("volume spike %.1fx against signal", ratio)
	}

	if ratio < 0.5 {
		// Half the usual turnover: nobody is trading this move.
		return 0.6, fmt.Sprintf("thin volume %.1fx", ratio)
	}
	return 1.0, ""
}
