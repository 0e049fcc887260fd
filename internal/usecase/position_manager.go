package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/vitos/crypto_signal_bot/internal/config"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"go.uber.org/zap"
)

// PositionManager watches open positions between polling cycles. It keeps a
// cache of last-seen prices (fed by the websocket ticker stream, with a REST
// fallback) and on every check:
//
//   - ratchets the trailing stop upward when the high-water mark improves by
//     at least the configured step,
//   - closes the position app-side when price breaches the stop or target
//     and no exchange OCO is protecting it.
//
// The trailing stop only ever moves up; a falling price never loosens it.
type PositionManager struct {
	cfg       *config.Config
	trader    *TraderService
	positions domain.PositionStore
	exchange  domain.Exchange
	logger    *zap.Logger

	mu         sync.Mutex
	lastPrices map[string]float64
}

func NewPositionManager(
	cfg *config.Config,
	trader *TraderService,
	positions domain.PositionStore,
	exchange domain.Exchange,
	logger *zap.Logger,
) *PositionManager {
	return &PositionManager{
		cfg:        cfg,
		trader:     trader,
		positions:  positions,
		exchange:   exchange,
		logger:     logger,
		lastPrices: make(map[string]float64),
	}
}

// OnPrice feeds a live price into the cache. Safe for concurrent use; wired
// as the websocket stream callback.
func (m *PositionManager) OnPrice(symbol string, price float64) {
	m.mu.Lock()
	m.lastPrices[symbol] = price
	m.mu.Unlock()
}

// Run checks stops on the given interval until ctx is cancelled.
func (m *PositionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll evaluates stops for every open position.
func (m *PositionManager) CheckAll(ctx context.Context) {
	for _, pos := range m.positions.List() {
		price, ok := m.price(ctx, pos.Symbol)
		if !ok {
			continue
		}
		if err := m.Check(ctx, pos, price); err != nil {
			m.logger.Error("stop check failed",
				zap.String("symbol", pos.Symbol), zap.Error(err))
		}
	}
}

// Check applies the trailing and protective logic to one position at the
// given price.
func (m *PositionManager) Check(ctx context.Context, pos *domain.Position, price float64) error {
	// New high: remember it and maybe ratchet the stop.
	if price > pos.HighWater {
		pos.HighWater = price
		if err := m.positions.Save(pos); err != nil {
			return err
		}
		if m.cfg.Risk.TrailingPct > 0 {
			trailed := pos.HighWater * (1 - m.cfg.Risk.TrailingPct)
			// Only chase the market once the move is worth the order churn.
			if trailed >= pos.StopPrice*(1+m.cfg.Risk.TrailingStepPct) {
				return m.trader.UpdateStop(ctx, pos, trailed)
			}
		}
		return nil
	}

	// With an exchange OCO in place the exchange handles the exit.
	if pos.OCOOrderListID != 0 {
		return nil
	}

	if pos.StopPrice > 0 && price <= pos.StopPrice {
		return m.trader.ClosePosition(ctx, pos, price, "stop loss")
	}
	if pos.TargetPrice > 0 && price >= pos.TargetPrice {
		return m.trader.ClosePosition(ctx, pos, price, "take profit")
	}
	return nil
}

func (m *PositionManager) price(ctx context.Context, symbol string) (float64, bool) {
	m.mu.Lock()
	cached, ok := m.lastPrices[symbol]
	m.mu.Unlock()
	if ok && cached > 0 {
		return cached, true
	}
	price, err := m.exchange.GetCurrentPrice(ctx, symbol)
	if err != nil {
		m.logger.Warn("no price available for stop check",
			zap.String("symbol", symbol), zap.Error(err))
		return 0, false
	}
	m.OnPrice(symbol, price)
	return price, true
}
