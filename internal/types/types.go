package types

// Candle is one OHLCV bar. Ts is the bar open time in epoch milliseconds.
// Candles are immutable once fetched and strictly ascending by Ts.
type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Trade direction emitted by the signal generator.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Trend labels derived from the moving-average relationship.
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
)

// Divergence labels. Absence of a divergence is the empty string.
const (
	DivergenceBullish = "bullish"
	DivergenceBearish = "bearish"
)

// IndicatorFrame holds the derived values for one candle index. Frames are
// only emitted once the slow moving average has warmed up, and each frame
// depends exclusively on candles [0..Index].
type IndicatorFrame struct {
	Index        int     `json:"index"`
	Ts           int64   `json:"time"`
	Close        float64 `json:"close"`
	FastMA       float64 `json:"fastMA"`
	SlowMA       float64 `json:"slowMA"`
	RSI          float64 `json:"rsi"`
	VWAP         float64 `json:"vwap"`
	AboveVWAP    bool    `json:"aboveVWAP"`
	Trend        string  `json:"trend"`
	BullishCross bool    `json:"bullishCross"`
	BearishCross bool    `json:"bearishCross"`
	Divergence   string  `json:"divergence,omitempty"`
}

// Signal is the confluence verdict for one candle index. Direction is empty
// unless the confluence score met the configured minimum (and, when a gate is
// in play, the gate agreed).
type Signal struct {
	Index             int       `json:"index"`
	Direction         Direction `json:"direction,omitempty"`
	ConfluenceScore   int       `json:"confluenceScore"`
	ConfluenceDetails []string  `json:"confluenceDetails,omitempty"`
}

// Position sides.
const (
	SideLong  = "long"
	SideShort = "short"
)

// Exit reasons recorded on closed trades.
const (
	ExitStopLoss   = "SL"
	ExitTakeProfit = "TP"
	ExitSignal     = "SIGNAL"
	ExitEndOfData  = "EOD"
)

// Trade is an immutable record of a closed position.
type Trade struct {
	Side       string  `json:"side"`
	Entry      float64 `json:"entry"`
	Exit       float64 `json:"exit"`
	EntryTs    int64   `json:"entryTime"`
	ExitTs     int64   `json:"exitTime"`
	PnL        float64 `json:"pnl"`
	PnLPercent float64 `json:"pnlPercent"`
	Reason     string  `json:"reason"`
	Gate       string  `json:"gate,omitempty"`
}

// Sentiment categories reported by the market pulse oracle.
const (
	SentimentExtremeFear  = "extreme_fear"
	SentimentFear         = "fear"
	SentimentNeutral      = "neutral"
	SentimentGreed        = "greed"
	SentimentExtremeGreed = "extreme_greed"
)

// Pulse is the market sentiment payload consulted by the confluence gate.
type Pulse struct {
	Sentiment      string `json:"sentiment"`
	FearGreedIndex int    `json:"fearGreedIndex"`
	Source         string `json:"source,omitempty"`
}

// Summary holds the aggregate performance statistics of one run. Every ratio
// is guarded against zero denominators and reports 0 instead of NaN or Inf.
type Summary struct {
	TotalTrades     int     `json:"totalTrades"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	WinRate         float64 `json:"winRate"`
	AvgWinPct       float64 `json:"avgWinPct"`
	AvgLossPct      float64 `json:"avgLossPct"`
	ProfitFactor    float64 `json:"profitFactor"`
	MaxDrawdownPct  float64 `json:"maxDrawdownPct"`
	TotalReturnPct  float64 `json:"totalReturn"`
	StartingCapital float64 `json:"startingCapital"`
	FinalCapital    float64 `json:"finalCapital"`
}
