package exchange

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/jpillora/backoff"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"go.uber.org/zap"
)

const maxAttempts = 4

// BinanceAdapter implements domain.Exchange against the Binance spot REST
// API. Every call is context-aware and wrapped in an exponential-backoff
// retry for transient failures; order rejections (bad filters, insufficient
// balance) are returned immediately.
type BinanceAdapter struct {
	client *binance.Client
	logger *zap.Logger

	mu    sync.Mutex
	rules map[string]*domain.SymbolRules
}

func NewBinanceAdapter(apiKey, apiSecret string, testnet bool, logger *zap.Logger) *BinanceAdapter {
	binance.UseTestnet = testnet
	return &BinanceAdapter{
		client: binance.NewClient(apiKey, apiSecret),
		logger: logger,
		rules:  make(map[string]*domain.SymbolRules),
	}
}

// --- market data ---

func (a *BinanceAdapter) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var price float64
	err := a.withRetry(ctx, "get_price", func() error {
		prices, err := a.client.NewListPricesService().Symbol(symbol).Do(ctx)
		if err != nil {
			return err
		}
		if len(prices) == 0 {
			return fmt.Errorf("no price returned for %s", symbol)
		}
		price, err = strconv.ParseFloat(prices[0].Price, 64)
		return err
	})
	return price, err
}

func (a *BinanceAdapter) GetTickers(ctx context.Context, symbols []string) ([]domain.Ticker, error) {
	out := make([]domain.Ticker, 0, len(symbols))
	for _, symbol := range symbols {
		var stats []*binance.PriceChangeStats
		err := a.withRetry(ctx, "get_ticker", func() error {
			var err error
			stats, err = a.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, st := range stats {
			last, _ := strconv.ParseFloat(st.LastPrice, 64)
			pcnt, _ := strconv.ParseFloat(st.PriceChangePercent, 64)
			vol, _ := strconv.ParseFloat(st.QuoteVolume, 64)
			out = append(out, domain.Ticker{
				Symbol:       st.Symbol,
				LastPrice:    last,
				Price24hPcnt: pcnt,
				Volume24h:    vol,
			})
		}
	}
	return out, nil
}

func (a *BinanceAdapter) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	var klines []*binance.Kline
	err := a.withRetry(ctx, "get_candles", func() error {
		var err error
		klines, err = a.client.NewKlinesService().
			Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(klines))
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		cls, _ := strconv.ParseFloat(k.Close, 64)
		vol, _ := strconv.ParseFloat(k.Volume, 64)
		candles = append(candles, domain.Candle{
			Time:   k.OpenTime,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  cls,
			Volume: vol,
		})
	}
	return candles, nil
}

func (a *BinanceAdapter) GetBalances(ctx context.Context) ([]domain.Balance, error) {
	var account *binance.Account
	err := a.withRetry(ctx, "get_account", func() error {
		var err error
		account, err = a.client.NewGetAccountService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	var balances []domain.Balance
	for _, b := range account.Balances {
		free, _ := strconv.ParseFloat(b.Free, 64)
		locked, _ := strconv.ParseFloat(b.Locked, 64)
		if free == 0 && locked == 0 {
			continue
		}
		balances = append(balances, domain.Balance{Asset: b.Asset, Free: free, Locked: locked})
	}
	return balances, nil
}

func (a *BinanceAdapter) GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	a.mu.Lock()
	cached, ok := a.rules[symbol]
	a.mu.Unlock()
	if ok {
		return cached, nil
	}

	var info *binance.ExchangeInfo
	err := a.withRetry(ctx, "exchange_info", func() error {
		var err error
		info, err = a.client.NewExchangeInfoService().Symbol(symbol).Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		rules := &domain.SymbolRules{Symbol: symbol}
		if lot := s.LotSizeFilter(); lot != nil {
			rules.MinQty, _ = strconv.ParseFloat(lot.MinQuantity, 64)
			rules.StepSize, _ = strconv.ParseFloat(lot.StepSize, 64)
		}
		if pf := s.PriceFilter(); pf != nil {
			rules.TickSize, _ = strconv.ParseFloat(pf.TickSize, 64)
		}
		if mn := s.NotionalFilter(); mn != nil {
			rules.MinNotional, _ = strconv.ParseFloat(mn.MinNotional, 64)
		}
		a.mu.Lock()
		a.rules[symbol] = rules
		a.mu.Unlock()
		return rules, nil
	}
	return nil, fmt.Errorf("symbol %s not found in exchange info", symbol)
}

// --- orders ---

func (a *BinanceAdapter) MarketBuy(ctx context.Context, symbol string, qty float64) (*domain.OrderResult, error) {
	return a.marketOrder(ctx, symbol, binance.SideTypeBuy, qty)
}

func (a *BinanceAdapter) MarketSell(ctx context.Context, symbol string, qty float64) (*domain.OrderResult, error) {
	return a.marketOrder(ctx, symbol, binance.SideTypeSell, qty)
}

func (a *BinanceAdapter) marketOrder(ctx context.Context, symbol string, side binance.SideType, qty float64) (*domain.OrderResult, error) {
	qtyStr, err := a.formatQty(ctx, symbol, qty)
	if err != nil {
		return nil, err
	}

	// Orders are not retried blindly: a timeout after submission could
	// double-fill. Only errors that provably precede acceptance retry.
	res, err := a.client.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(qtyStr).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("create %s order for %s: %w", side, symbol, err)
	}

	executed, _ := strconv.ParseFloat(res.ExecutedQuantity, 64)
	quote, _ := strconv.ParseFloat(res.CummulativeQuoteQuantity, 64)

	avg := 0.0
	fee := 0.0
	base := baseAsset(symbol)
	var fillQty float64
	for _, f := range res.Fills {
		p, _ := strconv.ParseFloat(f.Price, 64)
		q, _ := strconv.ParseFloat(f.Quantity, 64)
		c, _ := strconv.ParseFloat(f.Commission, 64)
		avg += p * q
		fillQty += q
		if base != "" && f.CommissionAsset == base {
			// Commission charged in base units: convert at the fill price.
			fee += c * p
		} else {
			fee += c
		}
	}
	if fillQty > 0 {
		avg /= fillQty
	} else if executed > 0 {
		avg = quote / executed
	}

	a.logger.Info("order filled",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("qty", executed),
		zap.Float64("avg_price", avg),
		zap.Float64("fee", fee),
	)
	return &domain.OrderResult{
		OrderID:  res.OrderID,
		Qty:      executed,
		AvgPrice: avg,
		Quote:    quote,
		Fee:      fee,
	}, nil
}

// PlaceOCO submits the paired take-profit limit / stop-loss-limit order that
// protects an open long.
func (a *BinanceAdapter) PlaceOCO(ctx context.Context, symbol string, qty, takeProfit, stopPrice float64) (int64, error) {
	rules, err := a.GetSymbolRules(ctx, symbol)
	if err != nil {
		return 0, err
	}
	qtyStr, err := a.formatQty(ctx, symbol, qty)
	if err != nil {
		return 0, err
	}
	// The stop leg fills as a limit slightly under the trigger so it still
	// executes after the breach.
	stopLimit := stopPrice * 0.998
	if rules.TickSize > 0 {
		stopLimit = float64(int64(stopLimit/rules.TickSize)) * rules.TickSize
	}

	res, err := a.client.NewCreateOCOService().
		Symbol(symbol).
		Side(binance.SideTypeSell).
		Quantity(qtyStr).
		Price(a.formatPrice(takeProfit, rules.TickSize)).
		StopPrice(a.formatPrice(stopPrice, rules.TickSize)).
		StopLimitPrice(a.formatPrice(stopLimit, rules.TickSize)).
		StopLimitTimeInForce(binance.TimeInForceTypeGTC).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("create OCO for %s: %w", symbol, err)
	}
	return res.OrderListID, nil
}

func (a *BinanceAdapter) CancelOCO(ctx context.Context, symbol string, orderListID int64) error {
	_, err := a.client.NewCancelOCOService().
		Symbol(symbol).
		OrderListID(orderListID).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("cancel OCO %d for %s: %w", orderListID, symbol, err)
	}
	return nil
}

// --- helpers ---

func (a *BinanceAdapter) formatQty(ctx context.Context, symbol string, qty float64) (string, error) {
	rules, err := a.GetSymbolRules(ctx, symbol)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(qty, 'f', decimals(rules.StepSize), 64), nil
}

func (a *BinanceAdapter) formatPrice(price, tick float64) string {
	return strconv.FormatFloat(price, 'f', decimals(tick), 64)
}

// decimals counts the fractional digits of an exchange step/tick size, e.g.
// 0.001 -> 3. A step of 0 or >=1 formats as an integer quantity of steps.
func decimals(step float64) int {
	if step <= 0 {
		return 8
	}
	d := 0
	for step < 1 && d < 8 {
		step *= 10
		d++
	}
	return d
}

func quoteSuffix(symbol string) string {
	for _, q := range []string{"USDT", "USDC", "FDUSD", "BUSD", "TUSD", "BTC", "ETH", "BNB", "EUR"} {
		if len(symbol) > len(q) && symbol[len(symbol)-len(q):] == q {
			return q
		}
	}
	return "USDT"
}

// baseAsset strips the recognized quote suffix. Empty when the symbol does
// not end in a known quote, so callers must not assume a base exists.
func baseAsset(symbol string) string {
	q := quoteSuffix(symbol)
	if len(symbol) > len(q) && symbol[len(symbol)-len(q):] == q {
		return symbol[:len(symbol)-len(q)]
	}
	return ""
}

func (a *BinanceAdapter) withRetry(ctx context.Context, op string, fn func() error) error {
	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    15 * time.Second,
		Factor: 2,
		Jitter: true,
	}
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		wait := b.Duration()
		a.logger.Warn("exchange call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s: retries exhausted: %w", op, err)
}

// retryable treats network errors and rate limits as transient. Exchange
// rejections (bad quantity, insufficient balance) will not improve on retry.
func retryable(err error) bool {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case -1000, -1001, -1003, -1021: // unknown, disconnected, rate limit, timestamp drift
			return true
		}
		return false
	}
	return true
}
