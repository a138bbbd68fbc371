package backtest

import (
	"fmt"

	"confluence-backtest/internal/types"
)

// GateFunc approves or vetoes a signal direction. A nil GateFunc means no
// gate is in play and every internally-passing signal trades.
type GateFunc func(types.Direction) bool

// SimConfig holds the position-sizing and exit parameters of one run
type SimConfig struct {
	InitialCapital float64
	PositionSize   float64 // fraction of capital committed per trade
	StopLossPct    float64
	TakeProfitPct  float64
}

// SimResult is the outcome of one simulation fold
type SimResult struct {
	Trades         []types.Trade
	FinalCapital   float64
	MaxDrawdownPct float64
}

// position is the single open position; at most one exists at a time
type position struct {
	side    string
	entry   float64
	entryTs int64
}

// Simulate folds the frame and signal sequences into a closed-trade list.
// The two slices must be index-aligned and the same length; a mismatch is a
// programming error upstream, not a recoverable condition. The fold is pure
// and deterministic: identical inputs produce identical trades.
//
// Per candle, exits are checked in strict precedence — stop-loss, then
// take-profit, then opposite crossover — and a candle that closes a position
// may open a new one in the same step. Whatever is still open after the last
// candle is force-closed at its close price.
func Simulate(frames []types.IndicatorFrame, signals []types.Signal, gate GateFunc, gateTag string, cfg SimConfig) SimResult {
	if len(frames) != len(signals) {
		panic(fmt.Sprintf("backtest: frames and signals misaligned: %d vs %d", len(frames), len(signals)))
	}

	capital := cfg.InitialCapital
	peak := capital
	maxDrawdown := 0.0
	var pos *position
	trades := make([]types.Trade, 0)

	updateDrawdown := func() {
		if capital > peak {
			peak = capital
		}
		if peak > 0 {
			if dd := (peak - capital) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	closePosition := func(f types.IndicatorFrame, pnlPct float64, reason string) {
		pnl := capital * cfg.PositionSize * pnlPct / 100
		capital += pnl
		trades = append(trades, types.Trade{
			Side:       pos.side,
			Entry:      pos.entry,
			Exit:       f.Close,
			EntryTs:    pos.entryTs,
			ExitTs:     f.Ts,
			PnL:        pnl,
			PnLPercent: pnlPct,
			Reason:     reason,
			Gate:       gateTag,
		})
		pos = nil
		updateDrawdown()
	}

	for i, f := range frames {
		updateDrawdown()

		if pos != nil {
			pnlPct := (f.Close - pos.entry) / pos.entry * 100
			if pos.side == types.SideShort {
				pnlPct = -pnlPct
			}

			switch {
			case pnlPct <= -cfg.StopLossPct:
				closePosition(f, pnlPct, types.ExitStopLoss)
			case pnlPct >= cfg.TakeProfitPct:
				closePosition(f, pnlPct, types.ExitTakeProfit)
			case pos.side == types.SideLong && f.BearishCross:
				closePosition(f, pnlPct, types.ExitSignal)
			case pos.side == types.SideShort && f.BullishCross:
				closePosition(f, pnlPct, types.ExitSignal)
			}
		}

		if pos == nil {
			sig := signals[i]
			if sig.Direction != "" && (gate == nil || gate(sig.Direction)) {
				side := types.SideLong
				if sig.Direction == types.Sell {
					side = types.SideShort
				}
				pos = &position{side: side, entry: f.Close, entryTs: f.Ts}
			}
		}
	}

	if pos != nil {
		last := frames[len(frames)-1]
		pnlPct := (last.Close - pos.entry) / pos.entry * 100
		if pos.side == types.SideShort {
			pnlPct = -pnlPct
		}
		closePosition(last, pnlPct, types.ExitEndOfData)
	}

	return SimResult{
		Trades:         trades,
		FinalCapital:   capital,
		MaxDrawdownPct: maxDrawdown * 100,
	}
}
