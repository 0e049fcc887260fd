package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/infrastructure/exchange"
	"github.com/vitos/crypto_signal_bot/internal/infrastructure/logger"
)

// Connectivity sanity check: prices, candles, symbol filters and (with
// credentials) balances for every configured pair.
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
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, symbol := range cfg.Pairs {
		price, err := ex.GetCurrentPrice(ctx, symbol)
		if err != nil {
			fmt.Printf("%s: price check FAILED: %v\n", symbol, err)
			continue
		}
		candles, err := ex.GetCandles(ctx, symbol, cfg.Polling.CandleInterval, 5)
		if err != nil {
			fmt.Printf("%s: candle check FAILED: %v\n", symbol, err)
			continue
		}
		rules, err := ex.GetSymbolRules(ctx, symbol)
		if err != nil {
			fmt.Printf("%s: filter check FAILED: %v\n", symbol, err)
			continue
		}
		fmt.Printf("%s: price=%.8g candles=%d minQty=%g step=%g tick=%g minNotional=%g\n",
			symbol, price, len(candles), rules.MinQty, rules.StepSize, rules.TickSize, rules.MinNotional)
	}

	if cfg.Exchange.APIKey == "" {
		fmt.Println("no api key configured, skipping balance check")
		return
	}
	balances, err := ex.GetBalances(ctx)
	if err != nil {
		fmt.Printf("balance check FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("balances:")
	for _, b := range balances {
		fmt.Printf("  %-8s free=%.8f locked=%.8f\n", b.Asset, b.Free, b.Locked)
	}
}
