package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"github.com/vitos/crypto_signal_bot/internal/metrics"
	"github.com/vitos/crypto_signal_bot/internal/strategy"
	"go.uber.org/zap"
)

// TradeWriter is the append-only CSV log. Kept separate from the history DB
// so either can be disabled independently.
type TradeWriter interface {
	Append(trade *domain.Trade) error
}

// SessionReport is the running tally printed when the bot shuts down.
type SessionReport struct {
	StartedAt   time.Time `json:"started_at"`
	Cycles      int       `json:"cycles"`
	Entries     int       `json:"entries"`
	Exits       int       `json:"exits"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	RealizedPnL float64   `json:"realized_pnl"`
}

func (r SessionReport) String() string {
	return fmt.Sprintf("uptime %s | cycles %d | entries %d | exits %d (%dW/%dL) | realized PnL %+.2f",
		time.Since(r.StartedAt).Round(time.Second), r.Cycles, r.Entries, r.Exits, r.Wins, r.Losses, r.RealizedPnL)
}

// TraderService drives the polling cycle: fetch candles, fuse signals, size
// and place orders, and persist the resulting positions and trades.
type TraderService struct {
	cfg       *config.Config
	exchange  domain.Exchange
	positions domain.PositionStore
	history   domain.TradeRepository
	tradeLog  TradeWriter
	combiner  *strategy.Combiner
	logger    *zap.Logger

	mu        sync.Mutex
	rules     map[string]*domain.SymbolRules
	cooldowns map[string]time.Time
	report    SessionReport
}

func NewTraderService(
	cfg *config.Config,
	exchange domain.Exchange,
	positions domain.PositionStore,
	history domain.TradeRepository,
	tradeLog TradeWriter,
	combiner *strategy.Combiner,
	logger *zap.Logger,
) *TraderService {
	return &TraderService{
		cfg:       cfg,
		exchange:  exchange,
		positions: positions,
		history:   history,
		tradeLog:  tradeLog,
		combiner:  combiner,
		logger:    logger,
		rules:     make(map[string]*domain.SymbolRules),
		cooldowns: make(map[string]time.Time),
		report:    SessionReport{StartedAt: time.Now()},
	}
}

// Run polls the exchange on the configured interval until ctx is cancelled.
// The first cycle runs immediately.
func (s *TraderService) Run(ctx context.Context) {
	s.logger.Info("trader started",
		zap.Strings("pairs", s.cfg.Pairs),
		zap.Int("interval_sec", s.cfg.Polling.IntervalSec),
		zap.String("mode", s.cfg.Exchange.Mode),
	)

	ticker := time.NewTicker(time.Duration(s.cfg.Polling.IntervalSec) * time.Second)
	defer ticker.Stop()

	s.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("trader stopped", zap.String("report", s.Report().String()))
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle evaluates every configured pair once. A failure on one pair is
// logged and the cycle moves on; nothing here is fatal.
func (s *TraderService) RunCycle(ctx context.Context) {
	for _, symbol := range s.cfg.Pairs {
		if err := s.evaluateSymbol(ctx, symbol); err != nil {
			metrics.ExchangeErrors.Inc()
			s.logger.Error("cycle failed for symbol, skipping",
				zap.String("symbol", symbol), zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}

	s.mu.Lock()
	s.report.Cycles++
	s.mu.Unlock()
	metrics.CyclesTotal.Inc()
	s.updateEquityGauge(ctx)
}

func (s *TraderService) evaluateSymbol(ctx context.Context, symbol string) error {
	candles, err := s.exchange.GetCandles(ctx, symbol, s.cfg.Polling.CandleInterval, s.cfg.Polling.CandleLimit)
	if err != nil {
		return fmt.Errorf("get candles: %w", err)
	}
	if len(candles) < 2 {
		return fmt.Errorf("not enough candles for %s", symbol)
	}
	// Drop the still-forming bar; indicators only see closed candles.
	closed := candles[:len(candles)-1]

	sig := s.combiner.Evaluate(closed)
	metrics.SignalsTotal.WithLabelValues(symbol, string(sig.Action)).Inc()
	s.logger.Debug("signal",
		zap.String("symbol", symbol),
		zap.String("action", string(sig.Action)),
		zap.Float64("confidence", sig.Confidence),
		zap.Strings("reasons", sig.Reasons),
	)

	pos, held := s.positions.Get(symbol)
	switch sig.Action {
	case domain.ActionBuy:
		if held {
			return nil // already long, nothing to add
		}
		return s.openPosition(ctx, symbol, sig)
	case domain.ActionSell:
		if !held {
			return nil // spot only: no shorting
		}
		price := closed[len(closed)-1].Close
		return s.ClosePosition(ctx, pos, price, "signal: "+strings.Join(sig.Reasons, "; "))
	default:
		return nil
	}
}

func (s *TraderService) openPosition(ctx context.Context, symbol string, sig domain.Signal) error {
	if len(s.positions.List()) >= s.cfg.Risk.MaxOpenPositions {
		s.logger.Info("max open positions reached, skipping entry", zap.String("symbol", symbol))
		return nil
	}
	if until, ok := s.cooldown(symbol); ok {
		s.logger.Info("symbol in cooldown, skipping entry",
			zap.String("symbol", symbol), zap.Time("until", until))
		return nil
	}

	rules, err := s.symbolRules(ctx, symbol)
	if err != nil {
		return fmt.Errorf("symbol rules: %w", err)
	}
	price, err := s.exchange.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return fmt.Errorf("get price: %w", err)
	}
	equity, err := s.availableQuote(ctx, symbol)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	if s.cfg.Risk.QuoteBudget > 0 && equity > s.cfg.Risk.QuoteBudget {
		equity = s.cfg.Risk.QuoteBudget
	}

	qty := PositionQty(equity, s.cfg.Risk.MaxRiskPerTrade, s.cfg.Risk.StopLossPct, price, rules)
	if qty <= 0 {
		s.logger.Info("sized quantity below exchange minimums, skipping entry",
			zap.String("symbol", symbol), zap.Float64("equity", equity), zap.Float64("price", price))
		return nil
	}

	res, err := s.exchange.MarketBuy(ctx, symbol, qty)
	if err != nil {
		return fmt.Errorf("market buy: %w", err)
	}
	metrics.OrdersSubmitted.WithLabelValues("BUY", "entry").Inc()

	entry := res.AvgPrice
	pos := &domain.Position{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Qty:         res.Qty,
		EntryPrice:  entry,
		StopPrice:   RoundTick(entry*(1-s.cfg.Risk.StopLossPct), rules.TickSize),
		TargetPrice: 0,
		HighWater:   entry,
		Reason:      strings.Join(sig.Reasons, "; "),
		OpenedAt:    time.Now(),
	}
	if s.cfg.Risk.TakeProfitPct > 0 {
		pos.TargetPrice = RoundTick(entry*(1+s.cfg.Risk.TakeProfitPct), rules.TickSize)
	}

	// Exchange OCO protection only makes sense against the real exchange;
	// in paper mode the app-side stop monitor does the triggering.
	if pos.TargetPrice > 0 && s.cfg.Exchange.Mode == "live" {
		listID, err := s.exchange.PlaceOCO(ctx, symbol, pos.Qty, pos.TargetPrice, pos.StopPrice)
		if err != nil {
			// The position is protected app-side by the stop monitor; an OCO
			// failure downgrades protection, it does not abort the entry.
			s.logger.Warn("failed to place OCO, falling back to app-side stops",
				zap.String("symbol", symbol), zap.Error(err))
		} else {
			pos.OCOOrderListID = listID
		}
	}

	if err := s.positions.Save(pos); err != nil {
		return fmt.Errorf("persist position: %w", err)
	}
	metrics.OpenPositions.Set(float64(len(s.positions.List())))

	s.recordTrade(ctx, &domain.Trade{
		ID:         pos.ID,
		Symbol:     symbol,
		Side:       domain.SideBuy,
		Qty:        res.Qty,
		Price:      entry,
		QuoteValue: res.Quote,
		Fee:        res.Fee,
		Reason:     pos.Reason,
		CreatedAt:  pos.OpenedAt,
	})

	s.mu.Lock()
	s.report.Entries++
	s.mu.Unlock()

	s.logger.Info("position opened",
		zap.String("symbol", symbol),
		zap.Float64("qty", res.Qty),
		zap.Float64("entry", entry),
		zap.Float64("stop", pos.StopPrice),
		zap.Float64("target", pos.TargetPrice),
		zap.Int64("oco", pos.OCOOrderListID),
		zap.String("reason", pos.Reason),
	)
	return nil
}

// ClosePosition flattens a position at market and records the realized PnL.
// Called for sell signals, app-side stop breaches and trailing-stop exits.
func (s *TraderService) ClosePosition(ctx context.Context, pos *domain.Position, refPrice float64, reason string) error {
	if pos.OCOOrderListID != 0 {
		if err := s.exchange.CancelOCO(ctx, pos.Symbol, pos.OCOOrderListID); err != nil {
			// The OCO may have already fired; selling would then fail on
			// insufficient balance, so surface the error and let the next
			// cycle reconcile.
			return fmt.Errorf("cancel OCO: %w", err)
		}
		pos.OCOOrderListID = 0
	}

	res, err := s.exchange.MarketSell(ctx, pos.Symbol, pos.Qty)
	if err != nil {
		return fmt.Errorf("market sell: %w", err)
	}
	metrics.OrdersSubmitted.WithLabelValues("SELL", "exit").Inc()

	pnl := (res.AvgPrice-pos.EntryPrice)*res.Qty - res.Fee
	if err := s.positions.Delete(pos.Symbol); err != nil {
		s.logger.Error("failed to delete closed position from store",
			zap.String("symbol", pos.Symbol), zap.Error(err))
	}
	metrics.OpenPositions.Set(float64(len(s.positions.List())))

	s.recordTrade(ctx, &domain.Trade{
		ID:          uuid.NewString(),
		Symbol:      pos.Symbol,
		Side:        domain.SideSell,
		Qty:         res.Qty,
		Price:       res.AvgPrice,
		QuoteValue:  res.Quote,
		Fee:         res.Fee,
		RealizedPnL: pnl,
		Reason:      reason,
		CreatedAt:   time.Now(),
	})

	s.mu.Lock()
	s.report.Exits++
	s.report.RealizedPnL += pnl
	if pnl >= 0 {
		s.report.Wins++
	} else {
		s.report.Losses++
	}
	s.cooldowns[pos.Symbol] = time.Now().Add(time.Duration(s.cfg.Risk.CooldownSec) * time.Second)
	s.mu.Unlock()

	s.logger.Info("position closed",
		zap.String("symbol", pos.Symbol),
		zap.Float64("qty", res.Qty),
		zap.Float64("entry", pos.EntryPrice),
		zap.Float64("exit", res.AvgPrice),
		zap.Float64("trigger_price", refPrice),
		zap.Float64("pnl", pnl),
		zap.String("reason", reason),
	)
	return nil
}

// UpdateStop re-places the protective orders after the trailing layer moved
// the stop, then persists the position.
func (s *TraderService) UpdateStop(ctx context.Context, pos *domain.Position, newStop float64) error {
	rules, err := s.symbolRules(ctx, pos.Symbol)
	if err == nil {
		newStop = RoundTick(newStop, rules.TickSize)
	}
	if newStop <= pos.StopPrice {
		return nil
	}

	hadOCO := pos.OCOOrderListID != 0
	if hadOCO {
		if err := s.exchange.CancelOCO(ctx, pos.Symbol, pos.OCOOrderListID); err != nil {
			return fmt.Errorf("cancel OCO for trailing update: %w", err)
		}
		pos.OCOOrderListID = 0
	}
	pos.StopPrice = newStop
	if hadOCO && pos.TargetPrice > 0 {
		listID, err := s.exchange.PlaceOCO(ctx, pos.Symbol, pos.Qty, pos.TargetPrice, pos.StopPrice)
		if err != nil {
			s.logger.Warn("failed to re-place OCO after trailing move",
				zap.String("symbol", pos.Symbol), zap.Error(err))
		} else {
			pos.OCOOrderListID = listID
		}
	}

	if err := s.positions.Save(pos); err != nil {
		return fmt.Errorf("persist trailed stop: %w", err)
	}
	s.logger.Info("trailing stop moved",
		zap.String("symbol", pos.Symbol),
		zap.Float64("stop", pos.StopPrice),
		zap.Float64("high_water", pos.HighWater),
	)
	return nil
}

// Report returns a copy of the session counters.
func (s *TraderService) Report() SessionReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Equity estimates account value in quote terms: free quote balance plus the
// market value of open positions.
func (s *TraderService) Equity(ctx context.Context) (float64, error) {
	var quote string
	if len(s.cfg.Pairs) > 0 {
		quote = quoteAsset(s.cfg.Pairs[0])
	}
	balances, err := s.exchange.GetBalances(ctx)
	if err != nil {
		return 0, err
	}
	var equity float64
	for _, b := range balances {
		if b.Asset == quote {
			equity += b.Free + b.Locked
		}
	}
	for _, pos := range s.positions.List() {
		price, err := s.exchange.GetCurrentPrice(ctx, pos.Symbol)
		if err != nil {
			price = pos.EntryPrice
		}
		equity += pos.Qty * price
	}
	return equity, nil
}

func (s *TraderService) updateEquityGauge(ctx context.Context) {
	equity, err := s.Equity(ctx)
	if err != nil {
		return
	}
	metrics.EquityGauge.Set(equity)
}

func (s *TraderService) availableQuote(ctx context.Context, symbol string) (float64, error) {
	quote := quoteAsset(symbol)
	balances, err := s.exchange.GetBalances(ctx)
	if err != nil {
		return 0, err
	}
	for _, b := range balances {
		if b.Asset == quote {
			return b.Free, nil
		}
	}
	return 0, nil
}

func (s *TraderService) symbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	s.mu.Lock()
	cached, ok := s.rules[symbol]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}
	rules, err := s.exchange.GetSymbolRules(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.rules[symbol] = rules
	s.mu.Unlock()
	return rules, nil
}

func (s *TraderService) cooldown(symbol string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.cooldowns[symbol]
	if !ok || time.Now().After(until) {
		return time.Time{}, false
	}
	return until, true
}

func (s *TraderService) recordTrade(ctx context.Context, trade *domain.Trade) {
	if s.tradeLog != nil {
		if err := s.tradeLog.Append(trade); err != nil {
			s.logger.Error("failed to append trade to CSV log", zap.Error(err))
		}
	}
	if s.history != nil {
		if err := s.history.SaveTrade(ctx, trade); err != nil {
			s.logger.Error("failed to save trade to history DB", zap.Error(err))
		}
	}
}

// quoteAsset guesses the quote currency from the pair name. Binance spot
// symbols have no separator, so match the common quote suffixes.
func quoteAsset(symbol string) string {
	for _, q := range []string{"USDT", "USDC", "FDUSD", "BUSD", "TUSD", "BTC", "ETH", "BNB", "EUR"} {
		if strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
			return q
		}
	}
	return "USDT"
}
