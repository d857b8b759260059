package backtest

import (
	"math"
	"testing"
	"time"

	"options-backtester/internal/errors"
	"options-backtester/internal/marketdata"
	"options-backtester/internal/models"
)

var day1 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func putSnap(strike, bid, ask float64) *marketdata.OptionSnapshot {
	expiry := day1.AddDate(0, 0, 45)
	return &marketdata.OptionSnapshot{
		Symbol:          marketdata.BuildOptionSymbol("XYZ", expiry, models.Put, strike),
		Type:            models.Put,
		Strike:          strike,
		Expiration:      expiry,
		Bid:             bid,
		Ask:             ask,
		UnderlyingPrice: 100,
	}
}

func TestOpenPositionCashFlow(t *testing.T) {
	p := NewPortfolio(10_000)

	// Short open credits premium.
	pos, err := p.OpenPosition(putSnap(95, 2.90, 3.10), models.Short, 1, 3.00, day1)
	if err != nil {
		t.Fatalf("short open: %v", err)
	}
	if p.Cash() != 10_300 {
		t.Errorf("cash after short open = %v, want 10300", p.Cash())
	}
	if pos.ID != 1 || pos.Closed() {
		t.Errorf("position = %+v, want open with ID 1", pos)
	}

	// Long open debits cost.
	pos2, err := p.OpenPosition(putSnap(90, 1.40, 1.60), models.Long, 2, 1.50, day1)
	if err != nil {
		t.Fatalf("long open: %v", err)
	}
	if p.Cash() != 10_000 {
		t.Errorf("cash after long open = %v, want 10000", p.Cash())
	}
	if pos2.ID != 2 {
		t.Errorf("second position ID = %d, want 2", pos2.ID)
	}
	if len(p.OpenPositions()) != 2 {
		t.Errorf("open positions = %d, want 2", len(p.OpenPositions()))
	}
}

func TestOpenPositionRefusesLongBeyondCash(t *testing.T) {
	p := NewPortfolio(200)

	_, err := p.OpenPosition(putSnap(95, 2.90, 3.10), models.Long, 1, 3.00, day1)
	if !errors.Is(err, errors.ErrInsufficientCash) {
		t.Fatalf("long open error = %v, want ErrInsufficientCash", err)
	}
	if p.Cash() != 200 || len(p.OpenPositions()) != 0 {
		t.Error("refused open mutated the ledger")
	}

	// Shorts are never cash-blocked.
	if _, err := p.OpenPosition(putSnap(95, 2.90, 3.10), models.Short, 1, 3.00, day1); err != nil {
		t.Errorf("short open with low cash: %v", err)
	}
}

func TestClosePosition(t *testing.T) {
	p := NewPortfolio(10_000)
	pos, _ := p.OpenPosition(putSnap(95, 2.90, 3.10), models.Short, 1, 3.00, day1)

	ts := day1.AddDate(0, 0, 20)
	trade, err := p.ClosePosition(pos, 1.50, ts, "take_profit_50.0%")
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	if trade.PnL != 150 {
		t.Errorf("trade PnL = %v, want 150", trade.PnL)
	}
	if trade.PnLPercent != 50 {
		t.Errorf("trade PnLPercent = %v, want 50", trade.PnLPercent)
	}
	if p.Cash() != 10_150 {
		t.Errorf("cash after close = %v, want 10150", p.Cash())
	}
	if len(p.OpenPositions()) != 0 || len(p.Trades()) != 1 {
		t.Error("close did not move the lot to the trade log")
	}
	if !pos.Closed() || pos.RealizedPnL != 150 {
		t.Errorf("position = %+v, want closed with PnL 150", pos)
	}

	if _, err := p.ClosePosition(pos, 1.50, ts, "again"); !errors.Is(err, errors.ErrPositionClosed) {
		t.Errorf("second close error = %v, want ErrPositionClosed", err)
	}
}

func TestClosePositionAtExpiration(t *testing.T) {
	p := NewPortfolio(10_000)

	itm, _ := p.OpenPosition(putSnap(95, 2.90, 3.10), models.Short, 1, 3.00, day1)
	otm, _ := p.OpenPosition(putSnap(90, 1.40, 1.60), models.Short, 1, 1.50, day1)

	ts := day1.AddDate(0, 0, 45)
	tr1, err := p.ClosePositionAtExpiration(itm, 92, ts)
	if err != nil {
		t.Fatal(err)
	}
	if tr1.Reason != "expired_itm" || tr1.ExitPrice != 3 {
		t.Errorf("ITM expiration trade = %+v, want intrinsic 3 expired_itm", tr1)
	}

	tr2, err := p.ClosePositionAtExpiration(otm, 92, ts)
	if err != nil {
		t.Fatal(err)
	}
	if tr2.Reason != "expired_otm" || tr2.ExitPrice != 0 {
		t.Errorf("OTM expiration trade = %+v, want intrinsic 0 expired_otm", tr2)
	}
}

func TestEquityMarksOpenPositions(t *testing.T) {
	p := NewPortfolio(10_000)
	short, _ := p.OpenPosition(putSnap(95, 2.90, 3.10), models.Short, 1, 3.00, day1)
	long, _ := p.OpenPosition(putSnap(90, 1.40, 1.60), models.Long, 1, 1.50, day1)

	// Cash is 10000 + 300 - 150 = 10150. Mark the short at 2.00 and the
	// long at its entry via the missing-quote fallback.
	equity := p.Equity(map[string]float64{short.Entry.Symbol: 2.00})
	want := 10_150.0 - 200 + 150
	if math.Abs(equity-want) > 1e-9 {
		t.Errorf("equity = %v, want %v", equity, want)
	}
	if p.Cash() != 10_150 {
		t.Error("Equity() mutated cash")
	}
	_ = long

	if got := p.ReturnPercent(11_000); got != 10 {
		t.Errorf("ReturnPercent(11000) = %v, want 10", got)
	}
}
