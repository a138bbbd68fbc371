package report

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"confluence-backtest/internal/backtest"
	"confluence-backtest/internal/store"
	"confluence-backtest/internal/types"
)

func sampleReport() *backtest.Report {
	cfg := store.Default()
	return &backtest.Report{
		GeneratedAt: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
		Config:      *cfg,
		Summary: types.Summary{
			TotalTrades:     2,
			Wins:            1,
			Losses:          1,
			WinRate:         50,
			AvgWinPct:       4,
			AvgLossPct:      -2,
			ProfitFactor:    2,
			MaxDrawdownPct:  0.2,
			TotalReturnPct:  0.2,
			StartingCapital: 10000,
			FinalCapital:    10020,
		},
		Trades: []types.Trade{
			{Side: types.SideLong, Entry: 100, Exit: 104, EntryTs: 1000, ExitTs: 2000, PnL: 40, PnLPercent: 4, Reason: types.ExitTakeProfit, Gate: "fear"},
			{Side: types.SideLong, Entry: 104, Exit: 101.9, EntryTs: 3000, ExitTs: 4000, PnL: -20, PnLPercent: -2.02, Reason: types.ExitStopLoss, Gate: "fear"},
		},
		Pulse: &types.Pulse{Sentiment: types.SentimentFear, FearGreedIndex: 30, Source: "alternative.me"},
	}
}

func TestFormatSummary(t *testing.T) {
	out := FormatSummary(sampleReport())

	for _, want := range []string{
		"BTC 4h",
		"fear (fear/greed 30",
		"2 (1 wins / 1 losses)",
		"Win rate:      50.0%",
		"Profit factor: 2.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatSummaryUngated(t *testing.T) {
	r := sampleReport()
	r.Pulse = nil
	if !strings.Contains(FormatSummary(r), "ungated") {
		t.Error("expected ungated marker when pulse is absent")
	}
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()

	path, err := WriteCSV(dir, r)
	if err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open CSV: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}

	if len(rows) != 3 { // header + 2 trades
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][0] != "entry_time" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][2] != types.SideLong || rows[1][7] != types.ExitTakeProfit {
		t.Errorf("first trade row = %v", rows[1])
	}
	if rows[2][8] != "fear" {
		t.Errorf("gate column = %q, want fear", rows[2][8])
	}
}
