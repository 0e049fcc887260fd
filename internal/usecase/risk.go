package usecase

import (
	"math"

	"github.com/vitos/crypto_signal_bot/internal/domain"
)

// PositionQty sizes an entry so that hitting the stop loses at most
// equity*riskPct, then rounds the result down to the exchange step size.
// Returns 0 when the sized order would violate the symbol's minimum quantity
// or notional, meaning the trade should be skipped rather than shrunk.
func PositionQty(equity, riskPct, stopLossPct, price float64, rules *domain.SymbolRules) float64 {
	if equity <= 0 || price <= 0 || stopLossPct <= 0 {
		return 0
	}
	riskAmt := equity * riskPct
	slDist := price * stopLossPct
	qty := riskAmt / slDist

	// Never size past what the equity can actually pay for.
	if qty*price > equity {
		qty = equity / price
	}

	qty = RoundStep(qty, rules.StepSize)
	if qty < rules.MinQty {
		return 0
	}
	if rules.MinNotional > 0 && qty*price < rules.MinNotional {
		return 0
	}
	return qty
}

// RoundStep floors qty to an exchange step size. Step 0 means no rounding.
func RoundStep(qty, step float64) float64 {
	if step <= 0 {
		return qty
	}
	steps := math.Floor(qty/step + 1e-9)
	return steps * step
}

// RoundTick floors a price to the exchange tick size.
func RoundTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	ticks := math.Floor(price/tick + 1e-9)
	return ticks * tick
}
