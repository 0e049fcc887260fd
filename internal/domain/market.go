package domain

type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type Ticker struct {
	Symbol       string  `json:"symbol"`
	LastPrice    float64 `json:"last_price"`
	Price24hPcnt float64 `json:"price_24h_pcnt"`
	Volume24h    float64 `json:"volume_24h"` // quote turnover
}

type Balance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
}

// SymbolRules mirrors the exchange trading filters for one symbol.
// Orders that violate them are rejected by the exchange, so we validate
// locally before submitting.
type SymbolRules struct {
	Symbol      string  `json:"symbol"`
	MinQty      float64 `json:"min_qty"`
	StepSize    float64 `json:"step_size"`
	TickSize    float64 `json:"tick_size"`
	MinNotional float64 `json:"min_notional"`
}
