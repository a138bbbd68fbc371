package pulseobs

import (
	"context"

	"confluence-backtest/internal/interfaces"
	"confluence-backtest/internal/logger"
	"confluence-backtest/internal/trace"
	"confluence-backtest/internal/types"
)

// observableProvider wraps a PulseProvider with observability (logging & tracing)
type observableProvider struct {
	provider interfaces.PulseProvider
}

// Compile-time interface check
var _ interfaces.PulseProvider = (*observableProvider)(nil)

// Wrap wraps a pulse provider with observability middleware
func Wrap(provider interfaces.PulseProvider) interfaces.PulseProvider {
	return &observableProvider{
		provider: provider,
	}
}

// Pulse fetches the market pulse with observability
func (op *observableProvider) Pulse(ctx context.Context) (*types.Pulse, error) {
	ctx, span := trace.StartSpan(ctx, "pulse.Fetch")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Fetching market pulse")

	p, err := op.provider.Pulse(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch market pulse", err)
		return nil, err
	}

	if p == nil {
		logger.InfoSkip(ctx, 1, "Market pulse oracle absent, gate stands open")
		return nil, nil
	}

	logger.InfoSkip(ctx, 1, "Market pulse received",
		"sentiment", p.Sentiment,
		"fearGreedIndex", p.FearGreedIndex,
		"source", p.Source,
	)

	return p, nil
}
