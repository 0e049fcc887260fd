package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"github.com/vitos/crypto_signal_bot/internal/infrastructure/exchange"
	"github.com/vitos/crypto_signal_bot/internal/infrastructure/logger"
	"github.com/vitos/crypto_signal_bot/internal/infrastructure/storage"
	"github.com/vitos/crypto_signal_bot/internal/strategy"
	"github.com/vitos/crypto_signal_bot/internal/usecase"
	"github.com/vitos/crypto_signal_bot/internal/web"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init logger
	var log *zap.Logger
	if cfg.Logging.File != "" {
		log, err = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init storage
	positions, err := storage.NewPositionFile(cfg.Storage.PositionsFile)
	if err != nil {
		log.Fatal("Failed to load position state", zap.Error(err))
	}
	tradeLog, err := storage.NewTradeLog(cfg.Storage.TradesCSV)
	if err != nil {
		log.Fatal("Failed to open trade log", zap.Error(err))
	}
	history, err := storage.NewSQLiteStore(cfg.Storage.HistoryDB)
	if err != nil {
		log.Fatal("Failed to init history db", zap.Error(err))
	}
	defer history.Close()

	// 4. Init exchange
	binanceAdapter := exchange.NewBinanceAdapter(
		cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.Testnet, log)

	var ex domain.Exchange = binanceAdapter
	if cfg.Exchange.Mode == "paper" {
		startCash := cfg.Risk.QuoteBudget
		if startCash <= 0 {
			startCash = 10_000
		}
		ex = exchange.NewPaperExchange(binanceAdapter, quoteOf(cfg), startCash)
		log.Info("running in paper mode", zap.Float64("start_cash", startCash))
	} else {
		log.Info("running in live mode")
	}

	// 5. Init services
	combiner := strategy.NewCombiner(cfg.Strategy, strategy.DefaultSet(cfg.Strategy))
	trader := usecase.NewTraderService(cfg, ex, positions, history, tradeLog, combiner, log)
	manager := usecase.NewPositionManager(cfg, trader, positions, ex, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Live ticker stream feeds the stop monitor between poll cycles.
	stream := exchange.NewTickerStream(cfg.Pairs, cfg.Exchange.Testnet, log)
	stream.OnPrice(manager.OnPrice)
	go stream.Run(ctx)

	// 7. Background loops
	go manager.Run(ctx, 5*time.Second)
	go trader.Run(ctx)

	// 8. Web server
	server := web.NewServer(cfg, trader, positions, history, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 9. Wait for shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	// Best-effort final report.
	fmt.Println("=== session report ===")
	fmt.Println(trader.Report().String())
}

// quoteOf picks the quote asset the paper account is denominated in.
func quoteOf(cfg *config.Config) string {
	quotes := []string{"USDT", "USDC", "FDUSD", "BUSD", "TUSD", "BTC", "ETH", "BNB", "EUR"}
	if len(cfg.Pairs) > 0 {
		for _, q := range quotes {
			s := cfg.Pairs[0]
			if len(s) > len(q) && s[len(s)-len(q):] == q {
				return q
			}
		}
	}
	return "USDT"
}
