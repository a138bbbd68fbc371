package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"confluence-backtest/internal/backtest"
	"confluence-backtest/internal/logger"
	"confluence-backtest/internal/market/hyperliquid"
	"confluence-backtest/internal/market/marketobs"
	"confluence-backtest/internal/pulse"
	"confluence-backtest/internal/pulse/pulseobs"
	"confluence-backtest/internal/store"
	"confluence-backtest/internal/trace"
	"confluence-backtest/internal/types"

	"github.com/joho/godotenv"
)

// variant is one point in the parameter grid
type variant struct {
	fastMA, slowMA int
	stopLoss       float64
	takeProfit     float64
}

// outcome pairs a variant with its run summary
type outcome struct {
	v       variant
	summary types.Summary
	err     error
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	fastList := flag.String("fast", "7,9,12", "comma-separated fast MA lengths")
	slowList := flag.String("slow", "21,26,50", "comma-separated slow MA lengths")
	slList := flag.String("sl", "1.5,2,3", "comma-separated stop-loss percents")
	tpList := flag.String("tp", "3,4,6", "comma-separated take-profit percents")
	workers := flag.Int("workers", 4, "concurrent simulations")
	top := flag.Int("top", 10, "how many ranked variants to print")
	noGate := flag.Bool("no-gate", false, "disable the sentiment gate")
	flag.Parse()

	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	defer trace.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	base, err := store.LoadConfig(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.ErrorWithErr(ctx, "Failed to load config", err)
			os.Exit(1)
		}
		base = store.Default()
	}
	if *noGate {
		base.Gate.Required = false
	}

	grid, err := buildGrid(*fastList, *slowList, *slList, *tpList)
	if err != nil {
		logger.ErrorWithErr(ctx, "Invalid parameter grid", err)
		os.Exit(1)
	}

	// One fetch feeds every variant; each simulation gets its own config
	// copy so runs cannot contaminate each other.
	startMs, endMs, err := base.Range()
	if err != nil {
		logger.ErrorWithErr(ctx, "Invalid date range", err)
		os.Exit(1)
	}
	source := marketobs.Wrap(hyperliquid.NewClient())
	candles, err := source.Candles(ctx, base.Symbol, base.Timeframe, startMs, endMs)
	if err != nil {
		logger.ErrorWithErr(ctx, "Candle fetch failed", err)
		os.Exit(1)
	}

	var p *types.Pulse
	if base.Gate.Required {
		oracle := pulseobs.Wrap(pulse.NewClient())
		if fetched, pulseErr := oracle.Pulse(ctx); pulseErr != nil {
			logger.Warn(ctx, "Pulse fetch failed, sweeping ungated", "error", pulseErr)
		} else {
			p = fetched
		}
	}

	outcomes := runGrid(ctx, base, candles, p, grid, *workers)

	ranked := outcomes[:0]
	var failed int
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			continue
		}
		ranked = append(ranked, o)
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].summary.TotalReturnPct > ranked[j].summary.TotalReturnPct
	})

	printRanking(ranked, *top)
	if failed > 0 {
		logger.Warn(ctx, "Some variants failed", "count", failed)
	}
}

// runGrid fans the grid out over a worker pool
func runGrid(ctx context.Context, base *store.Config, candles []types.Candle, p *types.Pulse, grid []variant, workers int) []outcome {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan variant)
	results := make(chan outcome, len(grid))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range jobs {
				cfg := *base
				cfg.Indicators.FastMA = v.fastMA
				cfg.Indicators.SlowMA = v.slowMA
				cfg.StopLossPct = v.stopLoss
				cfg.TakeProfitPct = v.takeProfit

				runner := backtest.NewRunner(&cfg, nil, nil)
				rep, err := runner.RunSeries(ctx, candles, p)
				if err != nil {
					results <- outcome{v: v, err: err}
					continue
				}
				results <- outcome{v: v, summary: rep.Summary}
			}
		}()
	}

	go func() {
		for _, v := range grid {
			jobs <- v
		}
		close(jobs)
	}()

	wg.Wait()
	close(results)

	outcomes := make([]outcome, 0, len(grid))
	for o := range results {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// buildGrid expands the flag lists into the cross product of variants,
// skipping degenerate fast >= slow combinations.
func buildGrid(fastList, slowList, slList, tpList string) ([]variant, error) {
	fasts, err := parseInts(fastList)
	if err != nil {
		return nil, fmt.Errorf("invalid fast list: %w", err)
	}
	slows, err := parseInts(slowList)
	if err != nil {
		return nil, fmt.Errorf("invalid slow list: %w", err)
	}
	sls, err := parseFloats(slList)
	if err != nil {
		return nil, fmt.Errorf("invalid sl list: %w", err)
	}
	tps, err := parseFloats(tpList)
	if err != nil {
		return nil, fmt.Errorf("invalid tp list: %w", err)
	}

	var grid []variant
	for _, f := range fasts {
		for _, s := range slows {
			if f >= s {
				continue
			}
			for _, sl := range sls {
				for _, tp := range tps {
					grid = append(grid, variant{fastMA: f, slowMA: s, stopLoss: sl, takeProfit: tp})
				}
			}
		}
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("parameter grid is empty (every fast >= slow?)")
	}
	return grid, nil
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func printRanking(ranked []outcome, top int) {
	if top > len(ranked) {
		top = len(ranked)
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "rank\tfast/slow\tsl%\ttp%\ttrades\twin%\tpf\tmaxDD%\treturn%")
	for i := 0; i < top; i++ {
		o := ranked[i]
		fmt.Fprintf(w, "%d\t%d/%d\t%.1f\t%.1f\t%d\t%.1f\t%.2f\t%.2f\t%+.2f\n",
			i+1, o.v.fastMA, o.v.slowMA, o.v.stopLoss, o.v.takeProfit,
			o.summary.TotalTrades, o.summary.WinRate, o.summary.ProfitFactor,
			o.summary.MaxDrawdownPct, o.summary.TotalReturnPct)
	}
	w.Flush()
}
