package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"confluence-backtest/internal/interfaces"
	"confluence-backtest/internal/logger"
	"confluence-backtest/internal/market/hyperliquid"
	"confluence-backtest/internal/market/marketobs"
	"confluence-backtest/internal/news"
	"confluence-backtest/internal/pulse"
	"confluence-backtest/internal/pulse/pulseobs"
	"confluence-backtest/internal/store"
	"confluence-backtest/internal/trace"
	"confluence-backtest/internal/tradelog"

	"github.com/joho/godotenv"
)

// initializeSystem initializes environment, logger, and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads config.yaml (falling back to defaults when absent) and
// applies the CLI overrides on top.
func loadConfig(ctx context.Context, flags cliFlags) (*store.Config, error) {
	cfg, err := store.LoadConfig(flags.configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		logger.Info(ctx, "No config file found, using defaults", "path", flags.configPath)
		cfg = store.Default()
	}

	if flags.symbol != "" {
		cfg.Symbol = flags.symbol
	}
	if flags.timeframe != "" {
		cfg.Timeframe = flags.timeframe
	}
	if flags.startDate != "" {
		cfg.StartDate = flags.startDate
	}
	if flags.endDate != "" {
		cfg.EndDate = flags.endDate
	}
	if flags.capital > 0 {
		cfg.InitialCapital = flags.capital
	}
	if flags.noGate {
		cfg.Gate.Required = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("BACKTEST_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeSource returns the candle source with observability
func initializeSource() interfaces.CandleSource {
	return marketobs.Wrap(hyperliquid.NewClient())
}

// initializePulse returns the pulse provider with observability. A disabled
// gate gets the no-op provider so the wiring stays uniform.
func initializePulse(cfg *store.Config) interfaces.PulseProvider {
	if !cfg.Gate.Required {
		return pulseobs.Wrap(pulse.NewNoop())
	}
	headlines := news.NewService(news.DefaultServiceConfig())
	return pulseobs.Wrap(pulse.NewClient(pulse.WithHeadlineFallback(headlines)))
}
