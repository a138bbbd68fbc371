package backtest

import (
	"confluence-backtest/internal/types"
)

// Summarize folds a closed-trade list into summary statistics. Breakeven
// trades count as neither wins nor losses. Every ratio with a zero
// denominator reports 0.
func Summarize(trades []types.Trade, initialCapital, finalCapital, maxDrawdownPct float64) types.Summary {
	s := types.Summary{
		TotalTrades:     len(trades),
		MaxDrawdownPct:  maxDrawdownPct,
		StartingCapital: initialCapital,
		FinalCapital:    finalCapital,
	}

	var winPctSum, lossPctSum float64
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			s.Wins++
			winPctSum += t.PnLPercent
		case t.PnL < 0:
			s.Losses++
			lossPctSum += t.PnLPercent
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.TotalTrades) * 100
	}
	if s.Wins > 0 {
		s.AvgWinPct = winPctSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLossPct = lossPctSum / float64(s.Losses)
	}

	grossLoss := s.AvgLossPct * float64(s.Losses)
	if grossLoss < 0 {
		grossLoss = -grossLoss
	}
	if grossLoss > 0 {
		s.ProfitFactor = s.AvgWinPct * float64(s.Wins) / grossLoss
	}

	if initialCapital > 0 {
		s.TotalReturnPct = (finalCapital - initialCapital) / initialCapital * 100
	}

	return s
}
