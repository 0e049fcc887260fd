package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/indicator"
	"github.com/vitos/crypto_signal_bot/internal/infrastructure/exchange"
	"github.com/vitos/crypto_signal_bot/internal/infrastructure/logger"
	"github.com/vitos/crypto_signal_bot/internal/strategy"
)

// Dry inspection tool: fetches live candles and prints the indicator values
// and the fused signal for every configured pair, without trading anything.
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger("warn")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ex := exchange.NewBinanceAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.Testnet, log)
	combiner := strategy.NewCombiner(cfg.Strategy, strategy.DefaultSet(cfg.Strategy))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, symbol := range cfg.Pairs {
		candles, err := ex.GetCandles(ctx, symbol, cfg.Polling.CandleInterval, cfg.Polling.CandleLimit)
		if err != nil {
			fmt.Printf("%s: FAILED: %v\n", symbol, err)
			continue
		}
		if len(candles) < 2 {
			fmt.Printf("%s: not enough candles\n", symbol)
			continue
		}
		closed := candles[:len(candles)-1]
		closes := indicator.Closes(closed)

		fmt.Printf("%s @ %.8g (%s candles)\n", symbol, closed[len(closed)-1].Close, cfg.Polling.CandleInterval)
		if rsi, err := indicator.RSI(closes, cfg.Strategy.RSIPeriod); err == nil {
			fmt.Printf("  RSI(%d)      %.1f\n", cfg.Strategy.RSIPeriod, rsi)
		}
		if fast, err := indicator.EMA(closes, cfg.Strategy.FastMAPeriod); err == nil {
			if slow, err := indicator.EMA(closes, cfg.Strategy.SlowMAPeriod); err == nil {
				fmt.Printf("  EMA %d/%d    %.8g / %.8g\n", cfg.Strategy.FastMAPeriod, cfg.Strategy.SlowMAPeriod, fast, slow)
			}
		}
		if bands, err := indicator.Bollinger(closes, cfg.Strategy.BollingerPeriod, cfg.Strategy.BollingerDev); err == nil {
			fmt.Printf("  Bollinger    %%B %.2f [%.8g .. %.8g]\n", bands.PercentB, bands.Lower, bands.Upper)
		}
		if spike, err := indicator.VolumeSpike(indicator.Volumes(closed), cfg.Strategy.VolumeLookback); err == nil {
			fmt.Printf("  volume       %.2fx average\n", spike)
		}

		sig := combiner.Evaluate(closed)
		fmt.Printf("  => %s (confidence %.2f) %s\n\n", sig.Action, sig.Confidence, strings.Join(sig.Reasons, "; "))
	}
}
