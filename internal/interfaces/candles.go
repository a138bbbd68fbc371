package interfaces

import (
	"context"

	"confluence-backtest/internal/types"
)

// CandleSource supplies an ordered, gap-permitting sequence of OHLCV candles
// for a symbol, timeframe and time range. Implementations paginate internally
// and return the concatenated series sorted ascending by timestamp.
type CandleSource interface {
	Candles(ctx context.Context, symbol, interval string, startTime, endTime int64) ([]types.Candle, error)
}
