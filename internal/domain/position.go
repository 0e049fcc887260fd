package domain

import "time"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Position is an open long held by the bot. Spot only: a Sell signal closes
// the position, it never opens a short.
//
// StopPrice and TargetPrice are the protective levels attached at entry.
// HighWater tracks the best price seen since entry; the trailing-stop layer
// ratchets StopPrice upward as HighWater improves.
type Position struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Qty            float64   `json:"qty"`
	EntryPrice     float64   `json:"entry_price"`
	StopPrice      float64   `json:"stop_price"`
	TargetPrice    float64   `json:"target_price"`
	HighWater      float64   `json:"high_water"`
	OCOOrderListID int64     `json:"oco_order_list_id"` // 0 = no exchange OCO in place
	Reason         string    `json:"reason"`
	OpenedAt       time.Time `json:"opened_at"`
}

// Trade is one executed order, recorded to the CSV log and the history DB.
type Trade struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Qty         float64   `json:"qty"`
	Price       float64   `json:"price"`
	QuoteValue  float64   `json:"quote_value"`
	Fee         float64   `json:"fee"`
	RealizedPnL float64   `json:"realized_pnl"` // 0 on entries
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// SymbolSummary aggregates closed trades per symbol for reporting.
type SymbolSummary struct {
	Symbol      string  `json:"symbol"`
	Trades      int     `json:"trades"`
	Volume      float64 `json:"volume"` // quote volume traded
	RealizedPnL float64 `json:"realized_pnl"`
}
