package news

import (
	"context"
	"strings"

	"confluence-backtest/internal/logger"
	"confluence-backtest/internal/trace"
)

// Sentiment is the aggregated verdict over a batch of headlines.
// Score runs -1 (uniformly bearish) to +1 (uniformly bullish).
type Sentiment struct {
	Score     float64
	Bullish   int
	Bearish   int
	Neutral   int
	Headlines int
}

// Analyzer scores headlines with keyword matching. Deliberately no LLM here:
// the gate only needs a coarse directional lean, and a run must not depend
// on a text-generation service being reachable.
type Analyzer struct {
	bullish []string
	bearish []string
}

// NewAnalyzer creates a keyword sentiment analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		bullish: []string{
			"rally", "rallies", "surge", "surges", "soar", "soars", "jump",
			"jumps", "gain", "gains", "bull", "bullish", "record high",
			"all-time high", "breakout", "rebound", "recovers", "adoption",
			"approval", "inflow", "accumulate", "buy the dip",
		},
		bearish: []string{
			"crash", "crashes", "plunge", "plunges", "dump", "dumps", "drop",
			"drops", "fall", "falls", "bear", "bearish", "selloff",
			"sell-off", "liquidation", "liquidations", "hack", "exploit",
			"fraud", "ban", "bans", "lawsuit", "outflow", "fear", "panic",
		},
	}
}

// Analyze scores a batch of headlines and aggregates the result
func (a *Analyzer) Analyze(ctx context.Context, articles []Article) Sentiment {
	ctx, span := trace.StartSpan(ctx, "news.Analyze")
	defer span.End()

	result := Sentiment{Headlines: len(articles)}
	if len(articles) == 0 {
		return result
	}

	for _, article := range articles {
		switch a.scoreHeadline(article.Title) {
		case 1:
			result.Bullish++
		case -1:
			result.Bearish++
		default:
			result.Neutral++
		}
	}

	scored := result.Bullish + result.Bearish
	if scored > 0 {
		result.Score = float64(result.Bullish-result.Bearish) / float64(len(articles))
	}

	logger.Debug(ctx, "Headline sentiment computed",
		"headlines", result.Headlines,
		"bullish", result.Bullish,
		"bearish", result.Bearish,
		"score", result.Score,
	)

	return result
}

// scoreHeadline returns +1, -1 or 0 for a single headline
func (a *Analyzer) scoreHeadline(title string) int {
	t := strings.ToLower(title)

	score := 0
	for _, w := range a.bullish {
		if strings.Contains(t, w) {
			score++
		}
	}
	for _, w := range a.bearish {
		if strings.Contains(t, w) {
			score--
		}
	}

	switch {
	case score > 0:
		return 1
	case score < 0:
		return -1
	default:
		return 0
	}
}
