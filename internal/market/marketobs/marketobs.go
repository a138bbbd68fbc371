package marketobs

import (
	"context"

	"confluence-backtest/internal/interfaces"
	"confluence-backtest/internal/logger"
	"confluence-backtest/internal/trace"
	"confluence-backtest/internal/types"
)

// observableSource wraps a CandleSource with observability (logging & tracing)
type observableSource struct {
	source interfaces.CandleSource
}

// Compile-time interface check
var _ interfaces.CandleSource = (*observableSource)(nil)

// Wrap wraps a candle source with observability middleware
func Wrap(source interfaces.CandleSource) interfaces.CandleSource {
	return &observableSource{
		source: source,
	}
}

// Candles fetches candles with observability
func (os *observableSource) Candles(ctx context.Context, symbol, interval string, startTime, endTime int64) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "market.Candles")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Fetching candle history",
		"symbol", symbol,
		"interval", interval,
		"startTime", startTime,
		"endTime", endTime,
	)

	candles, err := os.source.Candles(ctx, symbol, interval, startTime, endTime)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch candle history", err,
			"symbol", symbol,
			"interval", interval,
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Candle history fetched",
		"symbol", symbol,
		"interval", interval,
		"candles", len(candles),
	)

	return candles, nil
}
