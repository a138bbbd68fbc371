package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full run configuration. It is passed explicitly into every
// component entry point; nothing reads it through package globals, so
// parameter sweeps can run concurrently on independent copies.
type Config struct {
	Symbol         string  `yaml:"symbol" json:"symbol"`
	Timeframe      string  `yaml:"timeframe" json:"timeframe"`
	StartDate      string  `yaml:"start_date" json:"startDate"`
	EndDate        string  `yaml:"end_date" json:"endDate"`
	InitialCapital float64 `yaml:"initial_capital" json:"initialCapital"`
	PositionSize   float64 `yaml:"position_size" json:"positionSize"`
	StopLossPct    float64 `yaml:"stop_loss_pct" json:"stopLossPercent"`
	TakeProfitPct  float64 `yaml:"take_profit_pct" json:"takeProfitPercent"`

	Indicators struct {
		FastMA                 int     `yaml:"fast_ma" json:"fastMA"`
		SlowMA                 int     `yaml:"slow_ma" json:"slowMA"`
		RSIPeriod              int     `yaml:"rsi_period" json:"rsiPeriod"`
		VWAPLookback           int     `yaml:"vwap_lookback" json:"vwapLookback"`
		DivergenceLookback     int     `yaml:"divergence_lookback" json:"divergenceLookback"`
		DivergenceTolerancePct float64 `yaml:"divergence_tolerance_pct" json:"divergenceTolerancePct"`
	} `yaml:"indicators" json:"indicators"`

	Confluence struct {
		RequireRSI        bool `yaml:"require_rsi" json:"requireRSI"`
		RequireVWAP       bool `yaml:"require_vwap" json:"requireVWAP"`
		RequireDivergence bool `yaml:"require_divergence" json:"requireDivergence"`
	} `yaml:"confluence" json:"confluence"`

	Gate struct {
		Required     bool `yaml:"required" json:"required"`
		BuyMaxFear   int  `yaml:"buy_max_fear" json:"buyMaxFear"`
		SellMinGreed int  `yaml:"sell_min_greed" json:"sellMinGreed"`
	} `yaml:"gate" json:"gate"`

	Report struct {
		Dir string `yaml:"dir" json:"dir"`
	} `yaml:"report" json:"report"`
}

// Default returns a fully populated configuration with the stock defaults:
// BTC 4h, 10k capital, 10% position size, 2% stop, 4% target, 9/21 MAs,
// RSI 14, VWAP 24, divergence 15 within 1%, contrarian gate at 25/75.
func Default() *Config {
	c := &Config{
		Symbol:         "BTC",
		Timeframe:      "4h",
		StartDate:      "2025-01-01",
		EndDate:        "2025-06-30",
		InitialCapital: 10000,
		PositionSize:   0.1,
		StopLossPct:    2,
		TakeProfitPct:  4,
	}
	c.Indicators.FastMA = 9
	c.Indicators.SlowMA = 21
	c.Indicators.RSIPeriod = 14
	c.Indicators.VWAPLookback = 24
	c.Indicators.DivergenceLookback = 15
	c.Indicators.DivergenceTolerancePct = 1
	c.Confluence.RequireRSI = true
	c.Confluence.RequireVWAP = true
	c.Confluence.RequireDivergence = false
	c.Gate.Required = true
	c.Gate.BuyMaxFear = 25
	c.Gate.SellMinGreed = 75
	c.Report.Dir = "results"
	return c
}

func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive, got %.2f", c.InitialCapital)
	}
	if c.PositionSize <= 0 || c.PositionSize > 1 {
		return fmt.Errorf("position_size must be in (0, 1], got %.2f", c.PositionSize)
	}
	if c.StopLossPct <= 0 || c.TakeProfitPct <= 0 {
		return fmt.Errorf("stop_loss_pct and take_profit_pct must be positive")
	}
	if c.Indicators.FastMA < 2 || c.Indicators.SlowMA < 2 {
		return fmt.Errorf("moving average lengths must be at least 2")
	}
	if c.Indicators.FastMA >= c.Indicators.SlowMA {
		return fmt.Errorf("fast_ma (%d) must be shorter than slow_ma (%d)",
			c.Indicators.FastMA, c.Indicators.SlowMA)
	}
	if c.Indicators.RSIPeriod < 2 {
		return fmt.Errorf("rsi_period must be at least 2, got %d", c.Indicators.RSIPeriod)
	}
	if c.Indicators.VWAPLookback < 1 || c.Indicators.DivergenceLookback < 2 {
		return fmt.Errorf("indicator lookbacks out of range")
	}
	if c.Gate.BuyMaxFear < 0 || c.Gate.BuyMaxFear > 100 ||
		c.Gate.SellMinGreed < 0 || c.Gate.SellMinGreed > 100 {
		return fmt.Errorf("gate thresholds must be within 0-100")
	}
	if _, _, err := c.Range(); err != nil {
		return err
	}
	return nil
}

// Range parses the configured date range into epoch-millisecond bounds.
func (c *Config) Range() (startMs, endMs int64, err error) {
	start, err := time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start_date %q: %w", c.StartDate, err)
	}
	end, err := time.Parse("2006-01-02", c.EndDate)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end_date %q: %w", c.EndDate, err)
	}
	if !end.After(start) {
		return 0, 0, fmt.Errorf("end_date %s must be after start_date %s", c.EndDate, c.StartDate)
	}
	return start.UnixMilli(), end.UnixMilli(), nil
}

// MinCandles is the minimum series length required before a run can produce
// meaningful frames: a full slow-MA warm-up plus one tradable candle.
func (c *Config) MinCandles() int {
	return c.Indicators.SlowMA + 1
}

// LoadConfig reads a YAML config file over the defaults, so absent keys keep
// their default values and present keys (including explicit false) win.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}
