package backtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"confluence-backtest/internal/indicator"
	"confluence-backtest/internal/interfaces"
	"confluence-backtest/internal/logger"
	"confluence-backtest/internal/pulse"
	"confluence-backtest/internal/store"
	"confluence-backtest/internal/strategy"
	"confluence-backtest/internal/types"
)

// ErrInsufficientData marks a run whose candle series is shorter than the
// indicator warm-up requirement.
var ErrInsufficientData = errors.New("insufficient candle data for warm-up")

// Report is the full outcome of one run: the configuration it used, the
// summary statistics, every closed trade, and the pulse captured at run
// start (nil when the oracle was unavailable or disabled).
type Report struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	Config      store.Config  `json:"config"`
	Summary     types.Summary `json:"summary"`
	Trades      []types.Trade `json:"trades"`
	Pulse       *types.Pulse  `json:"pulse,omitempty"`
}

// Runner wires a candle source and an optional pulse provider into the
// deterministic simulation core.
type Runner struct {
	cfg    *store.Config
	source interfaces.CandleSource
	pulse  interfaces.PulseProvider
}

// NewRunner creates a runner. pulseProvider may be nil when gating is off.
func NewRunner(cfg *store.Config, source interfaces.CandleSource, pulseProvider interfaces.PulseProvider) *Runner {
	return &Runner{
		cfg:    cfg,
		source: source,
		pulse:  pulseProvider,
	}
}

// Run fetches candles and the market pulse concurrently, then executes the
// simulation. A candle fetch failure is fatal; a pulse failure degrades to
// an ungated run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	startMs, endMs, err := r.cfg.Range()
	if err != nil {
		return nil, err
	}

	var (
		wg       sync.WaitGroup
		candles  []types.Candle
		fetchErr error
		p        *types.Pulse
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		candles, fetchErr = r.source.Candles(ctx, r.cfg.Symbol, r.cfg.Timeframe, startMs, endMs)
	}()

	if r.pulse != nil && r.cfg.Gate.Required {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetched, pulseErr := r.pulse.Pulse(ctx)
			if pulseErr != nil {
				logger.Warn(ctx, "Pulse fetch failed, running ungated", "error", pulseErr)
				return
			}
			p = fetched
		}()
	}

	wg.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("candle fetch failed: %w", fetchErr)
	}

	return r.RunSeries(ctx, candles, p)
}

// RunSeries executes the simulation over a pre-fetched candle series. It is
// the entry point parameter sweeps use to share one fetch across many
// configurations.
func (r *Runner) RunSeries(ctx context.Context, candles []types.Candle, p *types.Pulse) (*Report, error) {
	if len(candles) < r.cfg.MinCandles() {
		return nil, fmt.Errorf("%w: have %d candles, need %d", ErrInsufficientData, len(candles), r.cfg.MinCandles())
	}

	frames := indicator.Compute(candles, indicator.Config{
		FastMA:                 r.cfg.Indicators.FastMA,
		SlowMA:                 r.cfg.Indicators.SlowMA,
		RSIPeriod:              r.cfg.Indicators.RSIPeriod,
		VWAPLookback:           r.cfg.Indicators.VWAPLookback,
		DivergenceLookback:     r.cfg.Indicators.DivergenceLookback,
		DivergenceTolerancePct: r.cfg.Indicators.DivergenceTolerancePct,
	})

	gen := strategy.NewGenerator(strategy.Config{
		RequireRSI:        r.cfg.Confluence.RequireRSI,
		RequireVWAP:       r.cfg.Confluence.RequireVWAP,
		RequireDivergence: r.cfg.Confluence.RequireDivergence,
	})

	signals := make([]types.Signal, len(frames))
	for i, f := range frames {
		signals[i] = gen.Evaluate(f)
		if signals[i].Direction != "" {
			logger.Signal(ctx, r.cfg.Symbol, string(signals[i].Direction),
				signals[i].ConfluenceScore, signals[i].ConfluenceDetails,
				"index", f.Index)
		}
	}

	var gateFn GateFunc
	gateTag := "N/A"
	if p != nil {
		gate := pulse.NewGate(pulse.GateConfig{
			BuyMaxFear:   r.cfg.Gate.BuyMaxFear,
			SellMinGreed: r.cfg.Gate.SellMinGreed,
		})
		gateFn = func(dir types.Direction) bool {
			return gate.Allow(dir, p)
		}
		gateTag = gate.Tag(p)
	}

	result := Simulate(frames, signals, gateFn, gateTag, SimConfig{
		InitialCapital: r.cfg.InitialCapital,
		PositionSize:   r.cfg.PositionSize,
		StopLossPct:    r.cfg.StopLossPct,
		TakeProfitPct:  r.cfg.TakeProfitPct,
	})

	for _, t := range result.Trades {
		logger.Trade(ctx, r.cfg.Symbol, t.Side, t.Reason, t.Entry, t.Exit, t.PnL,
			"pnlPercent", t.PnLPercent, "gate", t.Gate)
	}

	summary := Summarize(result.Trades, r.cfg.InitialCapital, result.FinalCapital, result.MaxDrawdownPct)

	logger.Info(ctx, "Simulation complete",
		"symbol", r.cfg.Symbol,
		"timeframe", r.cfg.Timeframe,
		"candles", len(candles),
		"frames", len(frames),
		"trades", summary.TotalTrades,
		"totalReturnPct", summary.TotalReturnPct,
	)

	return &Report{
		GeneratedAt: time.Now().UTC(),
		Config:      *r.cfg,
		Summary:     summary,
		Trades:      result.Trades,
		Pulse:       p,
	}, nil
}
