package indicator

import (
	"confluence-backtest/internal/types"
)

// Config holds the indicator window lengths. The divergence tolerance is a
// percentage: a close within that distance of the window extreme counts as a
// retest of it.
type Config struct {
	FastMA                 int
	SlowMA                 int
	RSIPeriod              int
	VWAPLookback           int
	DivergenceLookback     int
	DivergenceTolerancePct float64
}

// DefaultConfig mirrors the stock run configuration: 9/21 MAs, RSI 14,
// VWAP 24, divergence lookback 15 with a 1% tolerance.
func DefaultConfig() Config {
	return Config{
		FastMA:                 9,
		SlowMA:                 21,
		RSIPeriod:              14,
		VWAPLookback:           24,
		DivergenceLookback:     15,
		DivergenceTolerancePct: 1,
	}
}

// Engine computes indicator frames incrementally. Candles are pushed in
// ascending time order and each emitted frame depends only on the candles
// pushed so far, so there is no way for a frame to look ahead.
//
// Moving windows keep running sums rather than re-summing the window per
// candle. The emitted values match a naive per-index recomputation.
type Engine struct {
	cfg Config

	idx    int
	closes []float64
	rsis   []float64

	fast   *rollingSum
	slow   *rollingSum
	gains  *rollingSum
	losses *rollingSum
	pv     *rollingSum
	vol    *rollingSum

	prevFast float64
	prevSlow float64
	havePrev bool
}

// NewEngine creates an indicator engine for one candle series.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:    cfg,
		fast:   newRollingSum(cfg.FastMA),
		slow:   newRollingSum(cfg.SlowMA),
		gains:  newRollingSum(cfg.RSIPeriod),
		losses: newRollingSum(cfg.RSIPeriod),
		pv:     newRollingSum(cfg.VWAPLookback),
		vol:    newRollingSum(cfg.VWAPLookback),
	}
}

// Push consumes the next candle and returns the frame for its index. The
// second return is false while the slow moving average is still warming up;
// that is an empty result, not an error.
func (e *Engine) Push(c types.Candle) (types.IndicatorFrame, bool) {
	i := e.idx
	e.idx++

	if i > 0 {
		d := c.Close - e.closes[i-1]
		if d > 0 {
			e.gains.Push(d)
			e.losses.Push(0)
		} else {
			e.gains.Push(0)
			e.losses.Push(-d)
		}
	}
	e.closes = append(e.closes, c.Close)

	// Neutral seed until a full window of deltas exists, so downstream
	// comparisons are always defined.
	rsi := 50.0
	if e.gains.Full() {
		avgGain := e.gains.Sum() / float64(e.cfg.RSIPeriod)
		avgLoss := e.losses.Sum() / float64(e.cfg.RSIPeriod)
		if avgLoss == 0 {
			rsi = 100
		} else {
			rs := avgGain / avgLoss
			rsi = 100 - (100 / (1 + rs))
		}
	}
	e.rsis = append(e.rsis, rsi)

	e.fast.Push(c.Close)
	e.slow.Push(c.Close)

	tp := (c.High + c.Low + c.Close) / 3
	e.pv.Push(tp * c.Vol)
	e.vol.Push(c.Vol)

	if !e.slow.Full() {
		return types.IndicatorFrame{}, false
	}

	fastMA := e.fast.Mean()
	slowMA := e.slow.Mean()

	frame := types.IndicatorFrame{
		Index:  i,
		Ts:     c.Ts,
		Close:  c.Close,
		FastMA: fastMA,
		SlowMA: slowMA,
		RSI:    rsi,
	}

	if v := e.vol.Sum(); v > 0 {
		frame.VWAP = e.pv.Sum() / v
	} else {
		// No traded volume anywhere in the window.
		frame.VWAP = c.Close
	}
	frame.AboveVWAP = c.Close > frame.VWAP

	if fastMA > slowMA {
		frame.Trend = types.TrendBullish
	} else {
		frame.Trend = types.TrendBearish
	}

	// Crosses compare against the previous frame; the first frame has none.
	// A persisting fast == slow tie never fires either direction.
	if e.havePrev {
		frame.BullishCross = e.prevFast <= e.prevSlow && fastMA > slowMA
		frame.BearishCross = e.prevFast >= e.prevSlow && fastMA < slowMA
	}
	e.prevFast, e.prevSlow = fastMA, slowMA
	e.havePrev = true

	frame.Divergence = e.divergence(i)

	return frame, true
}

// divergence compares the current close against the window extreme and the
// RSI at that extreme. Bullish: price retests the window low while RSI holds
// higher. Bearish is the mirror against the window high.
func (e *Engine) divergence(i int) string {
	start := i - e.cfg.DivergenceLookback + 1
	if start < 0 {
		start = 0
	}
	minIdx, maxIdx := start, start
	for j := start + 1; j <= i; j++ {
		if e.closes[j] < e.closes[minIdx] {
			minIdx = j
		}
		if e.closes[j] > e.closes[maxIdx] {
			maxIdx = j
		}
	}

	tol := e.cfg.DivergenceTolerancePct / 100
	cur := e.closes[i]
	if cur <= e.closes[minIdx]*(1+tol) && e.rsis[i] > e.rsis[minIdx] {
		return types.DivergenceBullish
	}
	if cur >= e.closes[maxIdx]*(1-tol) && e.rsis[i] < e.rsis[maxIdx] {
		return types.DivergenceBearish
	}
	return ""
}

// Compute runs a fresh engine over a full candle series and returns the
// frames for every index past warm-up.
func Compute(candles []types.Candle, cfg Config) []types.IndicatorFrame {
	eng := NewEngine(cfg)
	frames := make([]types.IndicatorFrame, 0, len(candles))
	for _, c := range candles {
		if frame, ok := eng.Push(c); ok {
			frames = append(frames, frame)
		}
	}
	return frames
}
