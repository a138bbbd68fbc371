package backtestobs

import (
	"context"

	"confluence-backtest/internal/backtest"
	"confluence-backtest/internal/logger"
	"confluence-backtest/internal/trace"
)

// Backtester runs one simulation end to end
type Backtester interface {
	Run(ctx context.Context) (*backtest.Report, error)
}

// observableBacktester wraps a Backtester with observability (logging & tracing)
type observableBacktester struct {
	inner Backtester
}

// Compile-time interface check
var _ Backtester = (*observableBacktester)(nil)

// Wrap wraps a backtester with observability middleware
func Wrap(inner Backtester) Backtester {
	return &observableBacktester{
		inner: inner,
	}
}

// Run executes the simulation with observability
func (ob *observableBacktester) Run(ctx context.Context) (*backtest.Report, error) {
	ctx, span := trace.StartSpan(ctx, "backtest.Run")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Starting backtest run")

	report, err := ob.inner.Run(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Backtest run failed", err)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Backtest run complete",
		"symbol", report.Config.Symbol,
		"trades", report.Summary.TotalTrades,
		"winRate", report.Summary.WinRate,
		"totalReturnPct", report.Summary.TotalReturnPct,
	)

	return report, nil
}
