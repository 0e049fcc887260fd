package domain

import "context"

// OrderResult reports the fill of a market order.
type OrderResult struct {
	OrderID  int64
	Qty      float64 // executed base quantity
	AvgPrice float64 // fill-weighted average price
	Quote    float64 // cumulative quote value
	Fee      float64 // commission in quote terms, best effort
}

// Exchange defines the interface for interacting with a crypto exchange.
type Exchange interface {
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
	GetTickers(ctx context.Context, symbols []string) ([]Ticker, error)
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	GetBalances(ctx context.Context) ([]Balance, error)
	GetSymbolRules(ctx context.Context, symbol string) (*SymbolRules, error)

	MarketBuy(ctx context.Context, symbol string, qty float64) (*OrderResult, error)
	MarketSell(ctx context.Context, symbol string, qty float64) (*OrderResult, error)

	// PlaceOCO attaches a paired take-profit / stop-loss order to an open
	// position and returns the exchange order-list id. Implementations
	// without native OCO support may emulate it and return a synthetic id.
	PlaceOCO(ctx context.Context, symbol string, qty, takeProfit, stopPrice float64) (int64, error)
	CancelOCO(ctx context.Context, symbol string, orderListID int64) error
}

// PositionStore persists open positions between process restarts.
type PositionStore interface {
	Save(position *Position) error
	Get(symbol string) (*Position, bool)
	Delete(symbol string) error
	List() []*Position
}

// TradeRepository defines storage operations for executed trades.
type TradeRepository interface {
	SaveTrade(ctx context.Context, trade *Trade) error
	ListTrades(ctx context.Context, limit int) ([]*Trade, error)
	SummarizeBySymbol(ctx context.Context) ([]*SymbolSummary, error)
}
