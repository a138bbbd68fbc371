package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"confluence-backtest/internal/backtest"
)

// FormatSummary renders a run report as a console block
func FormatSummary(r *backtest.Report) string {
	var b strings.Builder
	s := r.Summary

	fmt.Fprintf(&b, "=== Backtest: %s %s (%s to %s) ===\n",
		r.Config.Symbol, r.Config.Timeframe, r.Config.StartDate, r.Config.EndDate)
	if r.Pulse != nil {
		fmt.Fprintf(&b, "Gate: %s (fear/greed %d, %s)\n",
			r.Pulse.Sentiment, r.Pulse.FearGreedIndex, r.Pulse.Source)
	} else {
		fmt.Fprintf(&b, "Gate: unavailable (ungated run)\n")
	}
	fmt.Fprintf(&b, "Trades:        %d (%d wins / %d losses)\n", s.TotalTrades, s.Wins, s.Losses)
	fmt.Fprintf(&b, "Win rate:      %.1f%%\n", s.WinRate)
	fmt.Fprintf(&b, "Avg win:       %+.2f%%\n", s.AvgWinPct)
	fmt.Fprintf(&b, "Avg loss:      %+.2f%%\n", s.AvgLossPct)
	fmt.Fprintf(&b, "Profit factor: %.2f\n", s.ProfitFactor)
	fmt.Fprintf(&b, "Max drawdown:  %.2f%%\n", s.MaxDrawdownPct)
	fmt.Fprintf(&b, "Return:        %+.2f%% (%.2f -> %.2f)\n",
		s.TotalReturnPct, s.StartingCapital, s.FinalCapital)

	if n := len(r.Trades); n > 0 {
		tail := r.Trades
		if n > 5 {
			tail = tail[n-5:]
		}
		fmt.Fprintf(&b, "Last %d trades:\n", len(tail))
		for _, t := range tail {
			fmt.Fprintf(&b, "  %s %-5s %9.2f -> %9.2f  %+6.2f%%  %-6s %s\n",
				formatTs(t.ExitTs), t.Side, t.Entry, t.Exit, t.PnLPercent, t.Reason, t.Gate)
		}
	}
	return b.String()
}

// WriteCSV writes the trade log of a run as a CSV file in dir and returns
// the path written.
func WriteCSV(dir string, r *backtest.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-trades-%s.csv", r.Config.Symbol, r.GeneratedAt.Format("20060102-150405"))
	p := filepath.Join(dir, name)

	f, err := os.Create(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"entry_time", "exit_time", "side", "entry", "exit", "pnl", "pnl_pct", "reason", "gate"}); err != nil {
		return "", err
	}
	for _, t := range r.Trades {
		rec := []string{
			formatTs(t.EntryTs),
			formatTs(t.ExitTs),
			t.Side,
			strconv.FormatFloat(t.Entry, 'f', -1, 64),
			strconv.FormatFloat(t.Exit, 'f', -1, 64),
			strconv.FormatFloat(t.PnL, 'f', 2, 64),
			strconv.FormatFloat(t.PnLPercent, 'f', 2, 64),
			t.Reason,
			t.Gate,
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return p, nil
}

func formatTs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}
