package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"confluence-backtest/internal/types"
)

var mu sync.Mutex

// Entry is one closed trade as written to the JSONL log, annotated with the
// run it belongs to.
type Entry struct {
	Time      string      `json:"time"`
	Symbol    string      `json:"symbol"`
	Timeframe string      `json:"timeframe"`
	Trade     types.Trade `json:"trade"`
}

func logDir() string {
	if v := os.Getenv("BACKTEST_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

// Append writes one trade to today's JSONL log
func Append(symbol, timeframe string, trade types.Trade) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e := Entry{
		Time:      now.Format("2006-01-02 15:04:05"),
		Symbol:    symbol,
		Timeframe: timeframe,
		Trade:     trade,
	}
	p := dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// AppendAll logs every trade of a finished run
func AppendAll(symbol, timeframe string, trades []types.Trade) error {
	for _, t := range trades {
		if err := Append(symbol, timeframe, t); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport serializes a run report to dir, named by symbol and run time.
// It returns the path written.
func WriteReport(dir, symbol string, report any) (string, error) {
	mu.Lock()
	defer mu.Unlock()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s.json", symbol, time.Now().UTC().Format("20060102-150405"))
	p := filepath.Join(dir, name)
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// CompressOlder gzips trade logs older than retentionDays
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if info.ModTime().Before(cutoff) {
			gz := p + ".gz"
			// if already gz exists, remove original .txt
			if _, e2 := os.Stat(gz); e2 == nil {
				_ = os.Remove(p)
				return nil
			}

			in, e3 := os.Open(p)
			if e3 != nil {
				return nil
			}
			defer in.Close()

			out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if e4 != nil {
				return nil
			}
			gw := gzip.NewWriter(out)
			if _, e5 := io.Copy(gw, in); e5 == nil {
				_ = gw.Close()
				_ = out.Close()
				_ = os.Remove(p)
			} else {
				_ = gw.Close()
				_ = out.Close()
			}
		}
		return nil
	})
}
