package pulse

import (
	"confluence-backtest/internal/types"
)

// GateConfig sets the index thresholds that admit trades against the
// prevailing sentiment. A BUY passes when fear is deep enough to be a
// contrarian entry, or when sentiment is not actively hostile to longs;
// SELL mirrors on the greed side.
type GateConfig struct {
	BuyMaxFear   int
	SellMinGreed int
}

// DefaultGateConfig returns the standard 25/75 thresholds
func DefaultGateConfig() GateConfig {
	return GateConfig{
		BuyMaxFear:   25,
		SellMinGreed: 75,
	}
}

// Gate filters signals by market pulse
type Gate struct {
	cfg GateConfig
}

// NewGate creates a sentiment gate
func NewGate(cfg GateConfig) *Gate {
	return &Gate{cfg: cfg}
}

// Allow reports whether a signal in the given direction may trade under the
// given pulse. A nil pulse means the oracle is unavailable and the gate
// stands open.
func (g *Gate) Allow(dir types.Direction, p *types.Pulse) bool {
	if p == nil {
		return true
	}

	switch dir {
	case types.Buy:
		if p.FearGreedIndex <= g.cfg.BuyMaxFear {
			return true
		}
		return p.Sentiment == types.SentimentNeutral || p.Sentiment == types.SentimentGreed
	case types.Sell:
		if p.FearGreedIndex >= g.cfg.SellMinGreed {
			return true
		}
		return p.Sentiment == types.SentimentNeutral || p.Sentiment == types.SentimentFear
	default:
		return false
	}
}

// Tag returns the gate annotation recorded on a trade
func (g *Gate) Tag(p *types.Pulse) string {
	if p == nil {
		return "N/A"
	}
	return p.Sentiment
}
