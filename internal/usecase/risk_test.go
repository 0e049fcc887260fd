package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/crypto_signal_bot/internal/domain"
	"github.com/vitos/crypto_signal_bot/internal/usecase"
)

func rules() *domain.SymbolRules {
	return &domain.SymbolRules{
		Symbol:      "BTCUSDT",
		MinQty:      0.001,
		StepSize:    0.001,
		TickSize:    0.01,
		MinNotional: 10,
	}
}

func TestPositionQty_RiskSizing(t *testing.T) {
	// equity 10_000, risk 1%, stop 2%: risk 100 over a 200-wide stop at
	// price 10_000 -> 0.5 base units.
	qty := usecase.PositionQty(10_000, 0.01, 0.02, 10_000, rules())
	assert.InDelta(t, 0.5, qty, 1e-9)
}

func TestPositionQty_CappedByEquity(t *testing.T) {
	// Tiny stop distance would size past the available equity; the cap
	// keeps the notional affordable.
	qty := usecase.PositionQty(1_000, 0.1, 0.001, 100, rules())
	assert.LessOrEqual(t, qty*100, 1_000.0)
	assert.Greater(t, qty, 0.0)
}

func TestPositionQty_MinQtyCutoff(t *testing.T) {
	qty := usecase.PositionQty(10, 0.001, 0.02, 50_000, rules())
	assert.Zero(t, qty)
}

func TestPositionQty_MinNotionalCutoff(t *testing.T) {
	r := rules()
	r.MinNotional = 1_000_000
	qty := usecase.PositionQty(10_000, 0.01, 0.02, 10_000, r)
	assert.Zero(t, qty)
}

func TestPositionQty_DegenerateInputs(t *testing.T) {
	assert.Zero(t, usecase.PositionQty(0, 0.01, 0.02, 100, rules()))
	assert.Zero(t, usecase.PositionQty(1_000, 0.01, 0, 100, rules()))
	assert.Zero(t, usecase.PositionQty(1_000, 0.01, 0.02, 0, rules()))
}

func TestRoundStep(t *testing.T) {
	assert.InDelta(t, 0.123, usecase.RoundStep(0.12345, 0.001), 1e-9)
	assert.InDelta(t, 1.0, usecase.RoundStep(1.0, 0.001), 1e-9) // exact multiple survives
	assert.InDelta(t, 0.12345, usecase.RoundStep(0.12345, 0), 1e-9)
}

func TestRoundTick(t *testing.T) {
	assert.InDelta(t, 101.37, usecase.RoundTick(101.379, 0.01), 1e-9)
	assert.InDelta(t, 101.379, usecase.RoundTick(101.379, 0), 1e-9)
}
