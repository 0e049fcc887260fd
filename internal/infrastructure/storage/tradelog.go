package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/vitos/crypto_signal_bot/internal/domain"
)

var tradeLogHeader = []string{
	"time", "symbol", "side", "qty", "price", "quote_value", "fee", "realized_pnl", "reason",
}

// TradeLog appends executed trades to a CSV file, one row per order. The
// header is written once when the file is created.
type TradeLog struct {
	path string
	mu   sync.Mutex
}

func NewTradeLog(path string) (*TradeLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	l := &TradeLog{path: path}

	info, err := os.Stat(path)
	if err == nil && info.Size() > 0 {
		return l, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err := l.writeRow(tradeLogHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	return l, nil
}

func (l *TradeLog) Append(trade *domain.Trade) error {
	return l.writeRow([]string{
		trade.CreatedAt.UTC().Format(time.RFC3339),
		trade.Symbol,
		string(trade.Side),
		formatFloat(trade.Qty),
		formatFloat(trade.Price),
		formatFloat(trade.QuoteValue),
		formatFloat(trade.Fee),
		formatFloat(trade.RealizedPnL),
		trade.Reason,
	})
}

func (l *TradeLog) writeRow(row []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
