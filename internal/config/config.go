package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ExchangeConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
	// "live" places real orders, "paper" runs the in-process simulator
	// against real market data.
	Mode string `yaml:"mode"`
}

type StrategyConfig struct {
	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`

	FastMAPeriod int `yaml:"fast_ma_period"`
	SlowMAPeriod int `yaml:"slow_ma_period"`

	BollingerPeriod int     `yaml:"bollinger_period"`
	BollingerDev    float64 `yaml:"bollinger_dev"`

	VolumeLookback  int     `yaml:"volume_lookback"`
	VolumeSpikeMult float64 `yaml:"volume_spike_mult"`

	// Fusion thresholds: a trade needs at least MinVotes agreeing strategies
	// and a combined confidence of at least MinConfidence.
	MinVotes      int     `yaml:"min_votes"`
	MinConfidence float64 `yaml:"min_confidence"`
}

type RiskConfig struct {
	MaxRiskPerTrade  float64 `yaml:"max_risk_per_trade"` // fraction of equity, e.g. 0.01
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"`
	TrailingPct      float64 `yaml:"trailing_pct"`      // 0 = trailing disabled
	TrailingStepPct  float64 `yaml:"trailing_step_pct"` // min improvement before moving the stop
	MaxOpenPositions int     `yaml:"max_open_positions"`
	QuoteBudget      float64 `yaml:"quote_budget"` // max quote currency committed at once
	CooldownSec      int     `yaml:"cooldown_sec"` // no re-entry this long after a close
}

type StorageConfig struct {
	PositionsFile string `yaml:"positions_file"`
	TradesCSV     string `yaml:"trades_csv"`
	HistoryDB     string `yaml:"history_db"`
}

type Config struct {
	Exchange ExchangeConfig `yaml:"exchange"`
	Pairs    []string       `yaml:"pairs"`
	Polling  struct {
		IntervalSec    int    `yaml:"interval_sec"`
		CandleInterval string `yaml:"candle_interval"`
		CandleLimit    int    `yaml:"candle_limit"`
	} `yaml:"polling"`
	Strategy StrategyConfig `yaml:"strategy"`
	Risk     RiskConfig     `yaml:"risk"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Load reads the yaml config file and applies environment overrides for the
// API credentials so keys never have to live on disk.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.Exchange.APISecret = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with workable defaults for everything except the
// pair list and credentials.
func Default() *Config {
	cfg := &Config{}
	cfg.Exchange.Mode = "paper"
	cfg.Polling.IntervalSec = 60
	cfg.Polling.CandleInterval = "15m"
	cfg.Polling.CandleLimit = 100
	cfg.Strategy = StrategyConfig{
		RSIPeriod:       14,
		RSIOversold:     30,
		RSIOverbought:   70,
		FastMAPeriod:    9,
		SlowMAPeriod:    21,
		BollingerPeriod: 20,
		BollingerDev:    2.0,
		VolumeLookback:  20,
		VolumeSpikeMult: 2.0,
		MinVotes:        2,
		MinConfidence:   0.5,
	}
	cfg.Risk = RiskConfig{
		MaxRiskPerTrade:  0.01,
		StopLossPct:      0.02,
		TakeProfitPct:    0.04,
		TrailingPct:      0.015,
		TrailingStepPct:  0.005,
		MaxOpenPositions: 3,
		QuoteBudget:      0,
		CooldownSec:      300,
	}
	cfg.Storage = StorageConfig{
		PositionsFile: "data/positions.json",
		TradesCSV:     "data/trades.csv",
		HistoryDB:     "data/history.db",
	}
	cfg.Server.Port = 8080
	cfg.Logging.Level = "info"
	return cfg
}

// Validate checks the numeric fields are within sensible bounds. It returns
// the first encountered error so a configuration problem surfaces clearly
// before any trading starts.
func (c *Config) Validate() error {
	if len(c.Pairs) == 0 {
		return errors.New("at least one trading pair is required")
	}
	if c.Exchange.Mode != "live" && c.Exchange.Mode != "paper" {
		return fmt.Errorf("exchange mode must be \"live\" or \"paper\", got %q", c.Exchange.Mode)
	}
	if c.Exchange.Mode == "live" && (c.Exchange.APIKey == "" || c.Exchange.APISecret == "") {
		return errors.New("live mode requires api_key and api_secret")
	}
	if c.Polling.IntervalSec <= 0 {
		return errors.New("polling interval_sec must be positive")
	}
	if c.Polling.CandleLimit <= 0 {
		return errors.New("polling candle_limit must be positive")
	}

	s := c.Strategy
	if s.RSIPeriod <= 1 {
		return errors.New("rsi_period must be greater than 1")
	}
	if s.RSIOversold >= s.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%.1f) must be below rsi_overbought (%.1f)", s.RSIOversold, s.RSIOverbought)
	}
	if s.FastMAPeriod <= 0 || s.SlowMAPeriod <= 0 {
		return errors.New("ma periods must be positive")
	}
	if s.FastMAPeriod >= s.SlowMAPeriod {
		return fmt.Errorf("fast_ma_period (%d) must be below slow_ma_period (%d)", s.FastMAPeriod, s.SlowMAPeriod)
	}
	if s.BollingerPeriod <= 1 || s.BollingerDev <= 0 {
		return errors.New("bollinger_period must be >1 and bollinger_dev positive")
	}
	if s.VolumeLookback <= 0 || s.VolumeSpikeMult <= 1 {
		return errors.New("volume_lookback must be positive and volume_spike_mult > 1")
	}
	if s.MinVotes < 1 {
		return errors.New("min_votes must be at least 1")
	}
	if s.MinConfidence < 0 || s.MinConfidence > 1 {
		return errors.New("min_confidence must be between 0 and 1")
	}

	r := c.Risk
	if r.MaxRiskPerTrade <= 0 || r.MaxRiskPerTrade > 0.5 {
		return fmt.Errorf("max_risk_per_trade (%f) must be >0 and <=0.5", r.MaxRiskPerTrade)
	}
	if r.StopLossPct <= 0 || r.StopLossPct > 0.2 {
		return fmt.Errorf("stop_loss_pct (%f) must be >0 and <=0.2", r.StopLossPct)
	}
	if r.TakeProfitPct < 0 || r.TakeProfitPct > 5 {
		return fmt.Errorf("take_profit_pct (%f) out of realistic range", r.TakeProfitPct)
	}
	if r.TrailingPct < 0 || r.TrailingPct > 1 {
		return fmt.Errorf("trailing_pct (%f) must be between 0 and 1", r.TrailingPct)
	}
	if r.TrailingPct > 0 && r.TrailingStepPct <= 0 {
		return errors.New("trailing_step_pct must be positive when trailing is enabled")
	}
	if r.MaxOpenPositions <= 0 {
		return errors.New("max_open_positions must be positive")
	}
	if r.CooldownSec < 0 {
		return errors.New("cooldown_sec cannot be negative")
	}

	if c.Storage.PositionsFile == "" || c.Storage.TradesCSV == "" || c.Storage.HistoryDB == "" {
		return errors.New("storage paths cannot be empty")
	}
	return nil
}
