package hyperliquid

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"confluence-backtest/internal/httpx"
	"confluence-backtest/internal/interfaces"
	"confluence-backtest/internal/logger"
	"confluence-backtest/internal/types"
)

const defaultBaseURL = "https://api.hyperliquid.xyz"

// maxCandlesPerRequest is the snapshot page size the API serves. Longer
// ranges are fetched in chunks and stitched together.
const maxCandlesPerRequest = 1000

// intervalMillis maps supported timeframes to their duration in milliseconds
var intervalMillis = map[string]int64{
	"1m":  60_000,
	"5m":  5 * 60_000,
	"15m": 15 * 60_000,
	"1h":  60 * 60_000,
	"4h":  4 * 60 * 60_000,
	"1d":  24 * 60 * 60_000,
}

// Client fetches historical candles from the Hyperliquid info endpoint
type Client struct {
	http    *httpx.Client
	baseURL string
}

var _ interfaces.CandleSource = (*Client)(nil)

// Option configures the client
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a Hyperliquid candle client
func NewClient(opts ...Option) *Client {
	c := &Client{baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	c.http = httpx.NewClient(
		httpx.WithBaseURL(c.baseURL),
		httpx.WithTimeout(30*time.Second),
		httpx.WithLogging(true),
	)
	return c
}

// snapshotRequest is the candleSnapshot request body
type snapshotRequest struct {
	Type string      `json:"type"`
	Req  snapshotReq `json:"req"`
}

type snapshotReq struct {
	Coin      string `json:"coin"`
	Interval  string `json:"interval"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

// rawCandle is one candle as the API serves it, prices as strings
type rawCandle struct {
	OpenTime  int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Coin      string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Trades    int64  `json:"n"`
}

// Candles fetches candles for [startTime, endTime] in ascending order,
// paging through the snapshot endpoint in chunks.
func (c *Client) Candles(ctx context.Context, symbol, interval string, startTime, endTime int64) ([]types.Candle, error) {
	step, ok := intervalMillis[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported interval %q", interval)
	}
	if startTime >= endTime {
		return nil, fmt.Errorf("invalid time range: start %d is not before end %d", startTime, endTime)
	}

	coin := coinFromSymbol(symbol)
	chunk := step * maxCandlesPerRequest

	seen := make(map[int64]bool)
	var candles []types.Candle

	for cursor := startTime; cursor < endTime; cursor += chunk {
		chunkEnd := cursor + chunk
		if chunkEnd > endTime {
			chunkEnd = endTime
		}

		page, err := c.fetchSnapshot(ctx, coin, interval, cursor, chunkEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch candles for %s %s: %w", coin, interval, err)
		}

		for _, rc := range page {
			if rc.OpenTime < startTime || rc.OpenTime >= endTime {
				continue
			}
			if seen[rc.OpenTime] {
				continue
			}
			seen[rc.OpenTime] = true

			candle, err := rc.toCandle()
			if err != nil {
				return nil, err
			}
			candles = append(candles, candle)
		}
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Ts < candles[j].Ts
	})

	logger.Debug(ctx, "Fetched candle history",
		"coin", coin,
		"interval", interval,
		"candles", len(candles))

	return candles, nil
}

// fetchSnapshot requests one page of candles
func (c *Client) fetchSnapshot(ctx context.Context, coin, interval string, startTime, endTime int64) ([]rawCandle, error) {
	body := snapshotRequest{
		Type: "candleSnapshot",
		Req: snapshotReq{
			Coin:      coin,
			Interval:  interval,
			StartTime: startTime,
			EndTime:   endTime,
		},
	}

	req := httpx.NewRequest(http.MethodPost, "/info").
		WithContext(ctx).
		WithBody(body)
	resp, err := c.http.DoWithRetry(req, httpx.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}

	var page []rawCandle
	if err := resp.ParseJSON(&page); err != nil {
		return nil, err
	}
	return page, nil
}

// toCandle parses the string-typed OHLCV fields
func (rc rawCandle) toCandle() (types.Candle, error) {
	open, err := parsePrice(rc.Open, "open", rc.OpenTime)
	if err != nil {
		return types.Candle{}, err
	}
	high, err := parsePrice(rc.High, "high", rc.OpenTime)
	if err != nil {
		return types.Candle{}, err
	}
	low, err := parsePrice(rc.Low, "low", rc.OpenTime)
	if err != nil {
		return types.Candle{}, err
	}
	closePrice, err := parsePrice(rc.Close, "close", rc.OpenTime)
	if err != nil {
		return types.Candle{}, err
	}
	vol, err := parsePrice(rc.Volume, "volume", rc.OpenTime)
	if err != nil {
		return types.Candle{}, err
	}

	return types.Candle{
		Ts:    rc.OpenTime,
		Open:  open,
		High:  high,
		Low:   low,
		Close: closePrice,
		Vol:   vol,
	}, nil
}

func parsePrice(s, field string, ts int64) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q in candle at %d: %w", field, s, ts, err)
	}
	return v, nil
}

// coinFromSymbol strips exchange suffixes so "BTCUSDT" and "BTCPERP"
// resolve to the "BTC" perp on Hyperliquid.
func coinFromSymbol(symbol string) string {
	coin := strings.ToUpper(strings.TrimSpace(symbol))
	coin = strings.TrimSuffix(coin, "USDT")
	coin = strings.TrimSuffix(coin, "PERP")
	return coin
}
