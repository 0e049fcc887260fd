package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_signal_bot/internal/config"
)

func validConfig() *config.Config {
	cfg := config.Default()
	cfg.Pairs = []string{"BTCUSDT"}
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"no pairs", func(c *config.Config) { c.Pairs = nil }},
		{"bad mode", func(c *config.Config) { c.Exchange.Mode = "demo" }},
		{"live without keys", func(c *config.Config) { c.Exchange.Mode = "live" }},
		{"zero interval", func(c *config.Config) { c.Polling.IntervalSec = 0 }},
		{"rsi inverted", func(c *config.Config) { c.Strategy.RSIOversold = 80 }},
		{"fast >= slow", func(c *config.Config) { c.Strategy.FastMAPeriod = 21 }},
		{"risk too big", func(c *config.Config) { c.Risk.MaxRiskPerTrade = 0.9 }},
		{"stop loss zero", func(c *config.Config) { c.Risk.StopLossPct = 0 }},
		{"trailing without step", func(c *config.Config) { c.Risk.TrailingStepPct = 0 }},
		{"min confidence out of range", func(c *config.Config) { c.Strategy.MinConfidence = 1.5 }},
		{"empty storage path", func(c *config.Config) { c.Storage.PositionsFile = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
exchange:
  mode: paper
  api_key: file-key
pairs:
  - BTCUSDT
  - ETHUSDT
polling:
  interval_sec: 30
strategy:
  rsi_oversold: 25
risk:
  stop_loss_pct: 0.03
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("BINANCE_API_KEY", "env-key")
	t.Setenv("BINANCE_API_SECRET", "env-secret")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Pairs)
	assert.Equal(t, 30, cfg.Polling.IntervalSec)
	assert.Equal(t, 25.0, cfg.Strategy.RSIOversold)
	assert.Equal(t, 0.03, cfg.Risk.StopLossPct)
	// env beats file
	assert.Equal(t, "env-key", cfg.Exchange.APIKey)
	assert.Equal(t, "env-secret", cfg.Exchange.APISecret)
	// untouched fields keep defaults
	assert.Equal(t, 14, cfg.Strategy.RSIPeriod)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
