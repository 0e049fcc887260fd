package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vitos/crypto_signal_bot/internal/domain"
)

// PaperExchange simulates the account side of the exchange while delegating
// market data to a real source. Fills are perfect at the current price with a
// flat taker fee, which is good enough to exercise the whole decision and
// persistence path without touching real funds.
type PaperExchange struct {
	market domain.Exchange // real adapter used for candles/prices only
	quote  string
	feePct float64

	mu       sync.Mutex
	cash     float64
	holdings map[string]float64 // base qty per symbol
	ocoSeq   int64
	ocos     map[int64]paperOCO
	orderSeq int64
}

type paperOCO struct {
	symbol     string
	qty        float64
	takeProfit float64
	stopPrice  float64
}

// NewPaperExchange starts the simulator with the given quote-currency cash.
func NewPaperExchange(market domain.Exchange, quote string, startCash float64) *PaperExchange {
	return &PaperExchange{
		market:   market,
		quote:    quote,
		feePct:   0.001,
		cash:     startCash,
		holdings: make(map[string]float64),
		ocos:     make(map[int64]paperOCO),
	}
}

// --- market data: pass through ---

func (p *PaperExchange) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return p.market.GetCurrentPrice(ctx, symbol)
}

func (p *PaperExchange) GetTickers(ctx context.Context, symbols []string) ([]domain.Ticker, error) {
	return p.market.GetTickers(ctx, symbols)
}

func (p *PaperExchange) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	return p.market.GetCandles(ctx, symbol, interval, limit)
}

func (p *PaperExchange) GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	return p.market.GetSymbolRules(ctx, symbol)
}

// --- simulated account ---

func (p *PaperExchange) GetBalances(ctx context.Context) ([]domain.Balance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	balances := []domain.Balance{{Asset: p.quote, Free: p.cash}}
	for symbol, qty := range p.holdings {
		if qty == 0 {
			continue
		}
		base := symbol
		if len(symbol) > len(p.quote) && strings.HasSuffix(symbol, p.quote) {
			base = symbol[:len(symbol)-len(p.quote)]
		}
		balances = append(balances, domain.Balance{Asset: base, Free: qty})
	}
	return balances, nil
}

func (p *PaperExchange) MarketBuy(ctx context.Context, symbol string, qty float64) (*domain.OrderResult, error) {
	price, err := p.market.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	cost := price * qty
	fee := cost * p.feePct
	if cost+fee > p.cash {
		return nil, fmt.Errorf("paper exchange: insufficient cash (%.2f needed, %.2f free)", cost+fee, p.cash)
	}
	p.cash -= cost + fee
	p.holdings[symbol] += qty
	p.orderSeq++
	return &domain.OrderResult{
		OrderID:  p.orderSeq,
		Qty:      qty,
		AvgPrice: price,
		Quote:    cost,
		Fee:      fee,
	}, nil
}

func (p *PaperExchange) MarketSell(ctx context.Context, symbol string, qty float64) (*domain.OrderResult, error) {
	price, err := p.market.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.holdings[symbol] < qty {
		return nil, fmt.Errorf("paper exchange: insufficient %s (%.8f held, %.8f requested)", symbol, p.holdings[symbol], qty)
	}
	proceeds := price * qty
	fee := proceeds * p.feePct
	p.cash += proceeds - fee
	p.holdings[symbol] -= qty
	p.orderSeq++
	return &domain.OrderResult{
		OrderID:  p.orderSeq,
		Qty:      qty,
		AvgPrice: price,
		Quote:    proceeds,
		Fee:      fee,
	}, nil
}

// PlaceOCO records the protective pair; the app-side stop monitor does the
// actual triggering, so the simulator only needs to hand out ids.
func (p *PaperExchange) PlaceOCO(ctx context.Context, symbol string, qty, takeProfit, stopPrice float64) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ocoSeq++
	p.ocos[p.ocoSeq] = paperOCO{symbol: symbol, qty: qty, takeProfit: takeProfit, stopPrice: stopPrice}
	return p.ocoSeq, nil
}

func (p *PaperExchange) CancelOCO(ctx context.Context, symbol string, orderListID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.ocos[orderListID]; !ok {
		return fmt.Errorf("paper exchange: unknown OCO %d", orderListID)
	}
	delete(p.ocos, orderListID)
	return nil
}

// Cash returns the simulated free quote balance.
func (p *PaperExchange) Cash() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cash
}

// Holding returns the simulated base holding for a symbol.
func (p *PaperExchange) Holding(symbol string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.holdings[symbol]
}
