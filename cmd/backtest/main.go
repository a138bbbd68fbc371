package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"confluence-backtest/internal/backtest"
	"confluence-backtest/internal/backtest/backtestobs"
	"confluence-backtest/internal/logger"
	"confluence-backtest/internal/report"
	"confluence-backtest/internal/trace"
	"confluence-backtest/internal/tradelog"
)

func main() {
	flags := parseFlags()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer trace.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, flags)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}

	compressOldLogs(ctx)

	source := initializeSource()
	oracle := initializePulse(cfg)
	runner := backtestobs.Wrap(backtest.NewRunner(cfg, source, oracle))

	result, err := runner.Run(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Backtest failed", err)
		os.Exit(1)
	}

	fmt.Print(report.FormatSummary(result))

	if err := tradelog.AppendAll(cfg.Symbol, cfg.Timeframe, result.Trades); err != nil {
		logger.Warn(ctx, "Failed to append trade log", "error", err)
	}

	if flags.noReport {
		return
	}
	if p, err := tradelog.WriteReport(cfg.Report.Dir, cfg.Symbol, result); err != nil {
		logger.Warn(ctx, "Failed to write report file", "error", err)
	} else {
		logger.Info(ctx, "Report written", "path", p)
	}
	if p, err := report.WriteCSV(cfg.Report.Dir, result); err != nil {
		logger.Warn(ctx, "Failed to write trades CSV", "error", err)
	} else {
		logger.Info(ctx, "Trades CSV written", "path", p)
	}
}

// cliFlags are the command-line overrides applied on top of config.yaml
type cliFlags struct {
	configPath string
	symbol     string
	timeframe  string
	startDate  string
	endDate    string
	capital    float64
	noGate     bool
	noReport   bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "config.yaml", "path to YAML config")
	flag.StringVar(&f.symbol, "symbol", "", "override symbol (e.g. BTC, ETHUSDT)")
	flag.StringVar(&f.timeframe, "timeframe", "", "override timeframe (1m/5m/15m/1h/4h/1d)")
	flag.StringVar(&f.startDate, "start", "", "override start date (YYYY-MM-DD)")
	flag.StringVar(&f.endDate, "end", "", "override end date (YYYY-MM-DD)")
	flag.Float64Var(&f.capital, "capital", 0, "override initial capital")
	flag.BoolVar(&f.noGate, "no-gate", false, "disable the sentiment gate")
	flag.BoolVar(&f.noReport, "no-report", false, "skip writing report files")
	flag.Parse()
	return f
}
