package backtest

import (
	"reflect"
	"testing"

	"confluence-backtest/internal/types"
)

func testSimConfig() SimConfig {
	return SimConfig{
		InitialCapital: 10000,
		PositionSize:   0.1,
		StopLossPct:    2,
		TakeProfitPct:  4,
	}
}

// frame builds a minimal indicator frame for simulator tests
func frame(index int, close float64, bullCross, bearCross bool) types.IndicatorFrame {
	return types.IndicatorFrame{
		Index:        index,
		Ts:           int64(index) * 60_000,
		Close:        close,
		BullishCross: bullCross,
		BearishCross: bearCross,
	}
}

func buySignal(index int) types.Signal {
	return types.Signal{Index: index, Direction: types.Buy, ConfluenceScore: 3}
}

func noSignal(index int) types.Signal {
	return types.Signal{Index: index}
}

func TestSimulateTakeProfit(t *testing.T) {
	frames := []types.IndicatorFrame{
		frame(0, 100, true, false),
		frame(1, 104, false, false), // +4% hits the target
	}
	signals := []types.Signal{buySignal(0), noSignal(1)}

	res := Simulate(frames, signals, nil, "N/A", testSimConfig())

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Reason != types.ExitTakeProfit {
		t.Errorf("Reason = %q, want TP", tr.Reason)
	}
	if tr.PnL != 40 {
		t.Errorf("PnL = %v, want 40", tr.PnL)
	}
	if res.FinalCapital != 10040 {
		t.Errorf("FinalCapital = %v, want 10040", res.FinalCapital)
	}
}

func TestSimulateStopLossBeatsSignalExit(t *testing.T) {
	// The exit candle both breaches the stop and carries a bearish cross;
	// the stop must win.
	frames := []types.IndicatorFrame{
		frame(0, 100, true, false),
		frame(1, 97.9, false, true),
	}
	signals := []types.Signal{buySignal(0), noSignal(1)}

	res := Simulate(frames, signals, nil, "N/A", testSimConfig())

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	if res.Trades[0].Reason != types.ExitStopLoss {
		t.Errorf("Reason = %q, want SL", res.Trades[0].Reason)
	}
	if got := res.Trades[0].PnLPercent; got > -2 {
		t.Errorf("PnLPercent = %v, want <= -2", got)
	}
}

func TestSimulateSignalExit(t *testing.T) {
	frames := []types.IndicatorFrame{
		frame(0, 100, true, false),
		frame(1, 101, false, true), // +1%, inside both bands, bearish cross
	}
	signals := []types.Signal{buySignal(0), noSignal(1)}

	res := Simulate(frames, signals, nil, "N/A", testSimConfig())

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	if res.Trades[0].Reason != types.ExitSignal {
		t.Errorf("Reason = %q, want SIGNAL", res.Trades[0].Reason)
	}
}

func TestSimulateEndOfDataClose(t *testing.T) {
	frames := []types.IndicatorFrame{
		frame(0, 100, true, false),
		frame(1, 101, false, false),
	}
	signals := []types.Signal{buySignal(0), noSignal(1)}

	res := Simulate(frames, signals, nil, "N/A", testSimConfig())

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Reason != types.ExitEndOfData {
		t.Errorf("Reason = %q, want EOD", tr.Reason)
	}
	if tr.Exit != 101 {
		t.Errorf("Exit = %v, want 101", tr.Exit)
	}
}

func TestSimulateSameCandleReentry(t *testing.T) {
	// Candle 1 closes the long on its bearish cross and immediately opens a
	// short on the same candle's SELL signal.
	frames := []types.IndicatorFrame{
		frame(0, 100, true, false),
		frame(1, 101, false, true),
		frame(2, 101.5, false, false),
	}
	signals := []types.Signal{
		buySignal(0),
		{Index: 1, Direction: types.Sell, ConfluenceScore: 3},
		noSignal(2),
	}

	res := Simulate(frames, signals, nil, "N/A", testSimConfig())

	if len(res.Trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(res.Trades))
	}
	if res.Trades[0].Side != types.SideLong || res.Trades[0].Reason != types.ExitSignal {
		t.Errorf("first trade = %+v, want long closed by SIGNAL", res.Trades[0])
	}
	if res.Trades[1].Side != types.SideShort || res.Trades[1].Entry != 101 {
		t.Errorf("second trade = %+v, want short entered at 101", res.Trades[1])
	}
}

func TestSimulateShortSideMirror(t *testing.T) {
	frames := []types.IndicatorFrame{
		frame(0, 100, false, true),
		frame(1, 96, false, false), // price fell 4%, short gains 4%
	}
	signals := []types.Signal{
		{Index: 0, Direction: types.Sell, ConfluenceScore: 3},
		noSignal(1),
	}

	res := Simulate(frames, signals, nil, "N/A", testSimConfig())

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Reason != types.ExitTakeProfit {
		t.Errorf("Reason = %q, want TP", tr.Reason)
	}
	if tr.PnLPercent != 4 {
		t.Errorf("PnLPercent = %v, want 4", tr.PnLPercent)
	}
}

func TestSimulateGateVeto(t *testing.T) {
	frames := []types.IndicatorFrame{
		frame(0, 100, true, false),
		frame(1, 104, false, false),
	}
	signals := []types.Signal{buySignal(0), noSignal(1)}

	vetoAll := func(types.Direction) bool { return false }
	res := Simulate(frames, signals, vetoAll, "extreme_greed", testSimConfig())

	if len(res.Trades) != 0 {
		t.Fatalf("got %d trades, want 0 with a vetoing gate", len(res.Trades))
	}
	if res.FinalCapital != 10000 {
		t.Errorf("FinalCapital = %v, want untouched 10000", res.FinalCapital)
	}
}

func TestSimulateGateTagRecorded(t *testing.T) {
	frames := []types.IndicatorFrame{
		frame(0, 100, true, false),
		frame(1, 104, false, false),
	}
	signals := []types.Signal{buySignal(0), noSignal(1)}

	res := Simulate(frames, signals, func(types.Direction) bool { return true }, "fear", testSimConfig())

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	if res.Trades[0].Gate != "fear" {
		t.Errorf("Gate = %q, want fear", res.Trades[0].Gate)
	}
}

func TestSimulateSinglePositionInvariant(t *testing.T) {
	// Back-to-back BUY signals while a long is already open must not stack.
	frames := []types.IndicatorFrame{
		frame(0, 100, true, false),
		frame(1, 101, true, false),
		frame(2, 102, true, false),
	}
	signals := []types.Signal{buySignal(0), buySignal(1), buySignal(2)}

	res := Simulate(frames, signals, nil, "N/A", testSimConfig())

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1 (single open position)", len(res.Trades))
	}
	if res.Trades[0].Entry != 100 {
		t.Errorf("Entry = %v, want the first signal's close 100", res.Trades[0].Entry)
	}
}

func TestSimulateDeterminism(t *testing.T) {
	frames := []types.IndicatorFrame{
		frame(0, 100, true, false),
		frame(1, 103, false, false),
		frame(2, 97, false, true),
		frame(3, 99, true, false),
		frame(4, 104, false, false),
	}
	signals := []types.Signal{
		buySignal(0), noSignal(1), noSignal(2), buySignal(3), noSignal(4),
	}

	first := Simulate(frames, signals, nil, "N/A", testSimConfig())
	second := Simulate(frames, signals, nil, "N/A", testSimConfig())

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different results")
	}
}

func TestSimulateDrawdownTracksPeak(t *testing.T) {
	// One losing trade from a 10000 peak: capital drops by the realized
	// loss, so drawdown = loss / peak.
	frames := []types.IndicatorFrame{
		frame(0, 100, true, false),
		frame(1, 97, false, false), // -3% breaches the 2% stop
	}
	signals := []types.Signal{buySignal(0), noSignal(1)}

	res := Simulate(frames, signals, nil, "N/A", testSimConfig())

	if len(res.Trades) != 1 || res.Trades[0].Reason != types.ExitStopLoss {
		t.Fatalf("expected a single stopped-out trade, got %+v", res.Trades)
	}
	wantCapital := 10000 + 10000*0.1*(-3.0)/100 // 9970
	if res.FinalCapital != wantCapital {
		t.Errorf("FinalCapital = %v, want %v", res.FinalCapital, wantCapital)
	}
	wantDD := (10000 - wantCapital) / 10000 * 100
	if res.MaxDrawdownPct != wantDD {
		t.Errorf("MaxDrawdownPct = %v, want %v", res.MaxDrawdownPct, wantDD)
	}
}

func TestSimulateEmptyInput(t *testing.T) {
	res := Simulate(nil, nil, nil, "N/A", testSimConfig())
	if len(res.Trades) != 0 {
		t.Errorf("got %d trades, want 0", len(res.Trades))
	}
	if res.FinalCapital != 10000 {
		t.Errorf("FinalCapital = %v, want 10000", res.FinalCapital)
	}
	if res.MaxDrawdownPct != 0 {
		t.Errorf("MaxDrawdownPct = %v, want 0", res.MaxDrawdownPct)
	}
}

func TestSimulatePanicsOnMisalignedInput(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on mismatched frame/signal lengths")
		}
	}()
	Simulate([]types.IndicatorFrame{frame(0, 100, false, false)}, nil, nil, "N/A", testSimConfig())
}
