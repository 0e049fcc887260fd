package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteSuffix(t *testing.T) {
	assert.Equal(t, "USDT", quoteSuffix("BTCUSDT"))
	assert.Equal(t, "BTC", quoteSuffix("ETHBTC"))
	assert.Equal(t, "EUR", quoteSuffix("BTCEUR"))
	// Unrecognized quotes fall back to the default.
	assert.Equal(t, "USDT", quoteSuffix("WEIRDPAIR"))
}

func TestBaseAsset(t *testing.T) {
	assert.Equal(t, "BTC", baseAsset("BTCUSDT"))
	assert.Equal(t, "ETH", baseAsset("ETHBTC"))

	// No recognized quote suffix: no base, and no panic even when the
	// symbol is shorter than the fallback suffix.
	assert.Equal(t, "", baseAsset("WEIRDPAIR"))
	assert.Equal(t, "", baseAsset("ABC"))
	assert.Equal(t, "", baseAsset("USDT"))
}

func TestDecimals(t *testing.T) {
	assert.Equal(t, 3, decimals(0.001))
	assert.Equal(t, 0, decimals(1))
	assert.Equal(t, 8, decimals(0))
}
