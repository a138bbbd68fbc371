package strategy

import (
	"math"

	"confluence-backtest/internal/types"
)

// Confirmation tags in their fixed emission order.
const (
	TagMA         = "MA✓"
	TagRSI        = "RSI✓"
	TagVWAP       = "VWAP✓"
	TagDivergence = "DIV✓"
)

// RSI bands: a bullish entry is skipped once the market is already
// overbought, a bearish entry once it is already oversold.
const (
	rsiOverbought = 70
	rsiOversold   = 30
)

// Config selects which optional confirmations participate in the confluence
// score. The MA crossover itself is always mandatory.
type Config struct {
	RequireRSI        bool
	RequireVWAP       bool
	RequireDivergence bool
}

// Generator turns indicator frames into directional signals via confluence
// scoring. It is stateless across frames; all inputs arrive in the frame.
type Generator struct {
	cfg         Config
	minRequired int
}

// NewGenerator computes the pass threshold once up front. With divergence
// enabled every enabled confirmation must agree; without it, at least
// two-thirds of the enabled confirmations must.
func NewGenerator(cfg Config) *Generator {
	required := 1
	if cfg.RequireRSI {
		required++
	}
	if cfg.RequireVWAP {
		required++
	}
	if cfg.RequireDivergence {
		required++
	}

	min := required
	if !cfg.RequireDivergence {
		min = int(math.Ceil(float64(required) * 0.66))
	}

	return &Generator{cfg: cfg, minRequired: min}
}

// MinRequired returns the confluence score a signal must reach.
func (g *Generator) MinRequired() int {
	return g.minRequired
}

// Evaluate scores one frame. A frame without a crossover yields a signal
// with no direction and no score; a frame with a crossover yields the score
// and detail tags even when the threshold is missed, with Direction set only
// on a pass.
func (g *Generator) Evaluate(f types.IndicatorFrame) types.Signal {
	sig := types.Signal{Index: f.Index}
	if !f.BullishCross && !f.BearishCross {
		return sig
	}
	bullish := f.BullishCross

	// The cross is the trigger and always contributes its point.
	score := 1
	details := []string{TagMA}

	if g.cfg.RequireRSI {
		ok := (bullish && f.RSI < rsiOverbought) || (!bullish && f.RSI > rsiOversold)
		if ok {
			score++
			details = append(details, TagRSI)
		}
	}

	if g.cfg.RequireVWAP {
		ok := (bullish && f.Close > f.VWAP) || (!bullish && f.Close < f.VWAP)
		if ok {
			score++
			details = append(details, TagVWAP)
		}
	}

	if g.cfg.RequireDivergence {
		want := types.DivergenceBearish
		if bullish {
			want = types.DivergenceBullish
		}
		if f.Divergence == want {
			score++
			details = append(details, TagDivergence)
		}
	}

	sig.ConfluenceScore = score
	sig.ConfluenceDetails = details

	if score >= g.minRequired {
		if bullish {
			sig.Direction = types.Buy
		} else {
			sig.Direction = types.Sell
		}
	}

	return sig
}
