package tradelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"confluence-backtest/internal/types"
)

func TestAppendWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BACKTEST_LOG_DIR", dir)

	trades := []types.Trade{
		{Side: types.SideLong, Entry: 100, Exit: 104, PnL: 40, PnLPercent: 4, Reason: types.ExitTakeProfit, Gate: "fear"},
		{Side: types.SideShort, Entry: 104, Exit: 106, PnL: -19, PnLPercent: -1.9, Reason: types.ExitEndOfData, Gate: "fear"},
	}
	if err := AppendAll("BTC", "4h", trades); err != nil {
		t.Fatalf("AppendAll() error: %v", err)
	}

	entries, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one log file, got %v (err %v)", entries, err)
	}

	f, err := os.Open(entries[0])
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer f.Close()

	var lines []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("malformed log line %q: %v", sc.Text(), err)
		}
		lines = append(lines, e)
	}

	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}
	if lines[0].Symbol != "BTC" || lines[0].Timeframe != "4h" {
		t.Errorf("first entry = %+v, want BTC/4h annotation", lines[0])
	}
	if lines[0].Trade.Reason != types.ExitTakeProfit {
		t.Errorf("first trade reason = %q, want TP", lines[0].Trade.Reason)
	}
	if lines[1].Trade.Side != types.SideShort {
		t.Errorf("second trade side = %q, want short", lines[1].Trade.Side)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()

	report := map[string]any{"summary": map[string]any{"totalTrades": 2}}
	path, err := WriteReport(dir, "BTC", report)
	if err != nil {
		t.Fatalf("WriteReport() error: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(path), "BTC-") {
		t.Errorf("report filename %q not prefixed with symbol", filepath.Base(path))
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(b, &parsed); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
}
