package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty symbol", func(c *Config) { c.Symbol = "" }},
		{"zero capital", func(c *Config) { c.InitialCapital = 0 }},
		{"position size above 1", func(c *Config) { c.PositionSize = 1.5 }},
		{"negative stop", func(c *Config) { c.StopLossPct = -1 }},
		{"fast not shorter than slow", func(c *Config) { c.Indicators.FastMA = 21 }},
		{"gate threshold out of range", func(c *Config) { c.Gate.BuyMaxFear = 150 }},
		{"end before start", func(c *Config) { c.EndDate = "2024-01-01" }},
		{"malformed date", func(c *Config) { c.StartDate = "Jan 1 2025" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}

func TestRangeParsesToMillis(t *testing.T) {
	cfg := Default()
	cfg.StartDate = "2025-01-01"
	cfg.EndDate = "2025-01-02"

	start, end, err := cfg.Range()
	if err != nil {
		t.Fatalf("Range() error: %v", err)
	}
	if want := int64(1735689600000); start != want {
		t.Errorf("start = %d, want %d", start, want)
	}
	if end-start != 24*60*60*1000 {
		t.Errorf("range spans %d ms, want one day", end-start)
	}
}

func TestMinCandles(t *testing.T) {
	cfg := Default()
	if got := cfg.MinCandles(); got != cfg.Indicators.SlowMA+1 {
		t.Errorf("MinCandles() = %d, want slow MA + 1", got)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
symbol: ETH
timeframe: 1h
stop_loss_pct: 3
indicators:
  fast_ma: 7
gate:
  required: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Symbol != "ETH" || cfg.Timeframe != "1h" || cfg.StopLossPct != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Indicators.FastMA != 7 {
		t.Errorf("nested override not applied: fast_ma = %d", cfg.Indicators.FastMA)
	}
	if cfg.Gate.Required {
		t.Error("explicit false override lost")
	}

	// Keys absent from the file keep their defaults.
	if cfg.Indicators.SlowMA != 21 || cfg.TakeProfitPct != 4 {
		t.Errorf("defaults lost for absent keys: %+v", cfg)
	}
	if !cfg.Confluence.RequireRSI {
		t.Error("default true lost for absent confluence section")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("initial_capital: -5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected invalid config to be rejected")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Errorf("error = %v, want os.IsNotExist", err)
	}
}
