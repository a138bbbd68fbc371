package strategy

import (
	"reflect"
	"testing"

	"confluence-backtest/internal/types"
)

func TestMinRequiredThresholds(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{"MA only", Config{}, 1},
		{"MA + RSI", Config{RequireRSI: true}, 2},
		{"MA + RSI + VWAP", Config{RequireRSI: true, RequireVWAP: true}, 2},
		{"all four strict", Config{RequireRSI: true, RequireVWAP: true, RequireDivergence: true}, 4},
		{"MA + divergence strict", Config{RequireDivergence: true}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewGenerator(tt.cfg).MinRequired(); got != tt.want {
				t.Errorf("MinRequired() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEvaluateNoCrossover(t *testing.T) {
	gen := NewGenerator(Config{RequireRSI: true, RequireVWAP: true})
	sig := gen.Evaluate(types.IndicatorFrame{Index: 7, RSI: 50, Close: 100, VWAP: 90})

	if sig.Direction != "" {
		t.Errorf("Direction = %q, want none without a crossover", sig.Direction)
	}
	if sig.ConfluenceScore != 0 || len(sig.ConfluenceDetails) != 0 {
		t.Errorf("signal = %+v, want empty score and details", sig)
	}
	if sig.Index != 7 {
		t.Errorf("Index = %d, want 7", sig.Index)
	}
}

func TestEvaluateFullBuyConfluence(t *testing.T) {
	// Bullish cross with RSI below overbought and close above VWAP: all
	// three confirmations agree.
	gen := NewGenerator(Config{RequireRSI: true, RequireVWAP: true})
	sig := gen.Evaluate(types.IndicatorFrame{
		Index:        21,
		Close:        110,
		RSI:          60,
		VWAP:         104,
		BullishCross: true,
	})

	if sig.Direction != types.Buy {
		t.Errorf("Direction = %q, want BUY", sig.Direction)
	}
	if sig.ConfluenceScore != 3 {
		t.Errorf("ConfluenceScore = %d, want 3", sig.ConfluenceScore)
	}
	want := []string{TagMA, TagRSI, TagVWAP}
	if !reflect.DeepEqual(sig.ConfluenceDetails, want) {
		t.Errorf("ConfluenceDetails = %v, want %v", sig.ConfluenceDetails, want)
	}
}

func TestEvaluateOverboughtSkipsRSIPoint(t *testing.T) {
	gen := NewGenerator(Config{RequireRSI: true, RequireVWAP: true})
	sig := gen.Evaluate(types.IndicatorFrame{
		Close:        110,
		RSI:          100, // saturated, at or past overbought
		VWAP:         104,
		BullishCross: true,
	})

	if sig.ConfluenceScore != 2 {
		t.Errorf("ConfluenceScore = %d, want 2 without the RSI point", sig.ConfluenceScore)
	}
	// Two of three still clears the two-thirds threshold.
	if sig.Direction != types.Buy {
		t.Errorf("Direction = %q, want BUY at threshold", sig.Direction)
	}
	want := []string{TagMA, TagVWAP}
	if !reflect.DeepEqual(sig.ConfluenceDetails, want) {
		t.Errorf("ConfluenceDetails = %v, want %v", sig.ConfluenceDetails, want)
	}
}

func TestEvaluateBelowThresholdHasNoDirection(t *testing.T) {
	// Cross alone scores 1 of the required 2: details are still reported.
	gen := NewGenerator(Config{RequireRSI: true, RequireVWAP: true})
	sig := gen.Evaluate(types.IndicatorFrame{
		Close:        100,
		RSI:          100,
		VWAP:         105, // close below VWAP disagrees with a long
		BullishCross: true,
	})

	if sig.Direction != "" {
		t.Errorf("Direction = %q, want none below threshold", sig.Direction)
	}
	if sig.ConfluenceScore != 1 {
		t.Errorf("ConfluenceScore = %d, want 1", sig.ConfluenceScore)
	}
	if !reflect.DeepEqual(sig.ConfluenceDetails, []string{TagMA}) {
		t.Errorf("ConfluenceDetails = %v, want [MA✓]", sig.ConfluenceDetails)
	}
}

func TestEvaluateSellMirror(t *testing.T) {
	gen := NewGenerator(Config{RequireRSI: true, RequireVWAP: true})
	sig := gen.Evaluate(types.IndicatorFrame{
		Close:        95,
		RSI:          40, // above oversold: shorting is not chasing a floor
		VWAP:         100,
		BearishCross: true,
	})

	if sig.Direction != types.Sell {
		t.Errorf("Direction = %q, want SELL", sig.Direction)
	}
	if sig.ConfluenceScore != 3 {
		t.Errorf("ConfluenceScore = %d, want 3", sig.ConfluenceScore)
	}
}

func TestEvaluateOversoldSkipsShortRSIPoint(t *testing.T) {
	gen := NewGenerator(Config{RequireRSI: true, RequireVWAP: true})
	sig := gen.Evaluate(types.IndicatorFrame{
		Close:        95,
		RSI:          20,
		VWAP:         100,
		BearishCross: true,
	})

	if sig.ConfluenceScore != 2 {
		t.Errorf("ConfluenceScore = %d, want 2", sig.ConfluenceScore)
	}
}

func TestEvaluateDivergenceConfirmation(t *testing.T) {
	gen := NewGenerator(Config{RequireRSI: true, RequireVWAP: true, RequireDivergence: true})

	matching := gen.Evaluate(types.IndicatorFrame{
		Close:        110,
		RSI:          60,
		VWAP:         104,
		BullishCross: true,
		Divergence:   types.DivergenceBullish,
	})
	if matching.ConfluenceScore != 4 || matching.Direction != types.Buy {
		t.Errorf("signal = %+v, want score 4 BUY", matching)
	}
	want := []string{TagMA, TagRSI, TagVWAP, TagDivergence}
	if !reflect.DeepEqual(matching.ConfluenceDetails, want) {
		t.Errorf("ConfluenceDetails = %v, want %v", matching.ConfluenceDetails, want)
	}

	// Strict mode: a missing divergence fails the whole signal even with
	// every other confirmation in place.
	missing := gen.Evaluate(types.IndicatorFrame{
		Close:        110,
		RSI:          60,
		VWAP:         104,
		BullishCross: true,
	})
	if missing.Direction != "" {
		t.Errorf("Direction = %q, want none in strict mode without divergence", missing.Direction)
	}
	if missing.ConfluenceScore != 3 {
		t.Errorf("ConfluenceScore = %d, want 3", missing.ConfluenceScore)
	}

	// A wrong-way divergence does not confirm either.
	wrongWay := gen.Evaluate(types.IndicatorFrame{
		Close:        110,
		RSI:          60,
		VWAP:         104,
		BullishCross: true,
		Divergence:   types.DivergenceBearish,
	})
	if wrongWay.Direction != "" || wrongWay.ConfluenceScore != 3 {
		t.Errorf("signal = %+v, want score 3 and no direction", wrongWay)
	}
}

func TestEvaluateMAOnlyConfig(t *testing.T) {
	// With every optional confirmation disabled the cross alone trades.
	gen := NewGenerator(Config{})
	sig := gen.Evaluate(types.IndicatorFrame{Close: 100, BearishCross: true})

	if sig.Direction != types.Sell {
		t.Errorf("Direction = %q, want SELL on the bare cross", sig.Direction)
	}
	if sig.ConfluenceScore != 1 {
		t.Errorf("ConfluenceScore = %d, want 1", sig.ConfluenceScore)
	}
}
