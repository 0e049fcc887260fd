package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/crypto_signal_bot/internal/domain"
)

// SQLiteStore is the trade history database backing cmd/report and the
// /api/trades endpoint. The CSV log stays the quick-glance artifact; this is
// the queryable one.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			qty REAL NOT NULL,
			price REAL NOT NULL,
			quote_value REAL NOT NULL,
			fee REAL NOT NULL DEFAULT 0,
			realized_pnl REAL NOT NULL DEFAULT 0,
			reason TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades(created_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveTrade(ctx context.Context, trade *domain.Trade) error {
	query := `INSERT INTO trades (id, symbol, side, qty, price, quote_value, fee, realized_pnl, reason, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		trade.ID, trade.Symbol, trade.Side, trade.Qty, trade.Price,
		trade.QuoteValue, trade.Fee, trade.RealizedPnL, trade.Reason, trade.CreatedAt)
	return err
}

func (s *SQLiteStore) ListTrades(ctx context.Context, limit int) ([]*domain.Trade, error) {
	query := `SELECT id, symbol, side, qty, price, quote_value, fee, realized_pnl, reason, created_at
			  FROM trades ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Side, &t.Qty, &t.Price,
			&t.QuoteValue, &t.Fee, &t.RealizedPnL, &t.Reason, &t.CreatedAt); err != nil {
			return nil, err
		}
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}

func (s *SQLiteStore) SummarizeBySymbol(ctx context.Context) ([]*domain.SymbolSummary, error) {
	query := `SELECT symbol, COUNT(*), COALESCE(SUM(quote_value), 0), COALESCE(SUM(realized_pnl), 0)
			  FROM trades GROUP BY symbol ORDER BY symbol`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.SymbolSummary
	for rows.Next() {
		var sum domain.SymbolSummary
		if err := rows.Scan(&sum.Symbol, &sum.Trades, &sum.Volume, &sum.RealizedPnL); err != nil {
			return nil, err
		}
		out = append(out, &sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
