package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"EdgeDesk/internal/domain/models"
	internalrepo "EdgeDesk/internal/repository"
	xlogger "EdgeDesk/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordScanCycle(string)        {}
func (nopMetrics) RecordSignal(string)           {}
func (nopMetrics) RecordTradeOpened()            {}
func (nopMetrics) RecordTradeClosed(bool)        {}
func (nopMetrics) RecordRateLimited(string)      {}
func (nopMetrics) RecordStreamEvent(string)      {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestLedger(t *testing.T, opts ...LedgerOption) *TradeLedger {
	t.Helper()
	return NewTradeLedger(internalrepo.NewMemoryTradeStore(), nopMetrics{}, testLogger(t), opts...)
}

func openReq(bankroll, riskPct float64) *models.OpenTradeRequest {
	return &models.OpenTradeRequest{
		Symbol:            "BTC-DEC",
		Venue:             "alpha",
		MarketID:          "m1",
		Side:              "BUY",
		MarketProbability: 0.5,
		BankrollUsd:       bankroll,
		MaxRiskPct:        riskPct,
	}
}

func TestOpenSizesByRiskBudget(t *testing.T) {
	l := newTestLedger(t)
	tr, err := l.Open(context.Background(), openReq(100, 8))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if tr.Size != 8 {
		t.Fatalf("size: want 8, got %v", tr.Size)
	}
	if tr.Status != models.StatusOpen {
		t.Fatalf("status: want open, got %s", tr.Status)
	}
	if tr.ID == "" {
		t.Fatalf("trade must get an id")
	}
}

func TestOpenRejectsInvalidRisk(t *testing.T) {
	l := newTestLedger(t)
	cases := []struct {
		bankroll float64
		risk     float64
	}{
		{100, 0},
		{100, -5},
		{100, 101},
		{0, 10},
		{-1, 10},
	}
	for _, tc := range cases {
		if _, err := l.Open(context.Background(), openReq(tc.bankroll, tc.risk)); !errors.Is(err, models.ErrInvalidRisk) {
			t.Fatalf("bankroll=%v risk=%v: want ErrInvalidRisk, got %v", tc.bankroll, tc.risk, err)
		}
	}
}

func TestClosePnlBuySide(t *testing.T) {
	l := newTestLedger(t)
	tr, err := l.Open(context.Background(), openReq(1000, 10))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	closed, err := l.Close(context.Background(), tr.ID, 0.75)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	// size=100, entry=0.5, exit=0.75: pnl = 100*(0.75-0.5)/0.5 = 50
	if closed.Pnl == nil || math.Abs(*closed.Pnl-50) > 1e-9 {
		t.Fatalf("pnl: want 50, got %v", closed.Pnl)
	}
	if closed.Status != models.StatusClosed {
		t.Fatalf("status: want closed, got %s", closed.Status)
	}
	if closed.ExitProbability == nil || *closed.ExitProbability != 0.75 {
		t.Fatalf("exit probability not recorded: %v", closed.ExitProbability)
	}
	if closed.ClosedAt == nil {
		t.Fatalf("close time not recorded")
	}
}

func TestClosePnlSellSide(t *testing.T) {
	l := newTestLedger(t)
	req := openReq(1000, 10)
	req.Side = "SELL"
	tr, err := l.Open(context.Background(), req)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	closed, err := l.Close(context.Background(), tr.ID, 0.25)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	// size=100, entry=0.5, exit=0.25: pnl = 100*(0.5-0.25)/(1-0.5) = 50
	if closed.Pnl == nil || math.Abs(*closed.Pnl-50) > 1e-9 {
		t.Fatalf("pnl: want 50, got %v", closed.Pnl)
	}
}

func TestCloseUnknownTrade(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.Close(context.Background(), "missing", 0.5); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDoubleCloseLosesExactlyOnce(t *testing.T) {
	l := newTestLedger(t)
	tr, err := l.Open(context.Background(), openReq(1000, 10))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Close(context.Background(), tr.ID, 0.6)
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, models.ErrAlreadyClosed):
			conflict++
		default:
			t.Fatalf("unexpected close error: %v", err)
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("want 1 success and 1 conflict, got %d/%d", ok, conflict)
	}

	got, err := l.Get(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ExitProbability == nil || *got.ExitProbability != 0.6 {
		t.Fatalf("winner's exit must stand, got %v", got.ExitProbability)
	}
}

func TestSummarizeAggregatesClosedTrades(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	l := newTestLedger(t, WithLedgerClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))
	ctx := context.Background()

	// Three closed trades with pnl +50, -20, +30 and one left open.
	for _, exit := range []float64{0.75, 0.4, 0.65} {
		tr, err := l.Open(ctx, openReq(1000, 10))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if _, err := l.Close(ctx, tr.ID, exit); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	if _, err := l.Open(ctx, openReq(1000, 10)); err != nil {
		t.Fatalf("open: %v", err)
	}

	sum, curve, err := l.Summarize(ctx)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalTrades != 4 || sum.ClosedTrades != 3 || sum.OpenTrades != 1 {
		t.Fatalf("counts: %+v", sum)
	}
	if sum.Wins != 2 || sum.Losses != 1 {
		t.Fatalf("wins/losses: %+v", sum)
	}
	if math.Abs(sum.NetPnl-60) > 1e-9 {
		t.Fatalf("net pnl: want 60, got %v", sum.NetPnl)
	}
	if math.Abs(sum.WinRate-2.0/3.0) > 1e-9 {
		t.Fatalf("win rate: want 0.667, got %v", sum.WinRate)
	}
	// 60 pnl over 300 at risk.
	if math.Abs(sum.RoiPct-20) > 1e-9 {
		t.Fatalf("roi: want 20, got %v", sum.RoiPct)
	}

	if len(curve) != 3 {
		t.Fatalf("equity curve: want 3 points, got %d", len(curve))
	}
	wantEquity := []float64{50, 30, 60}
	for i, p := range curve {
		if math.Abs(p.Equity-wantEquity[i]) > 1e-9 {
			t.Fatalf("equity[%d]: want %v, got %v", i, wantEquity[i], p.Equity)
		}
	}
	for i := 1; i < len(curve); i++ {
		if curve[i].Time.Before(curve[i-1].Time) {
			t.Fatalf("equity curve must be ordered by close time")
		}
	}
}

func TestSummarizeEmptyLedger(t *testing.T) {
	l := newTestLedger(t)
	sum, curve, err := l.Summarize(context.Background())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.WinRate != 0 || sum.RoiPct != 0 || sum.NetPnl != 0 {
		t.Fatalf("empty ledger should report zeros: %+v", sum)
	}
	if len(curve) != 0 {
		t.Fatalf("empty ledger should have no curve points")
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	l := newTestLedger(t, WithLedgerClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	ctx := context.Background()

	symbols := []string{"A", "B", "C"}
	for _, sym := range symbols {
		req := openReq(100, 10)
		req.Symbol = sym
		if _, err := l.Open(ctx, req); err != nil {
			t.Fatalf("open %s: %v", sym, err)
		}
	}

	out, err := l.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 trades, got %d", len(out))
	}
	if out[0].Symbol != "C" || out[1].Symbol != "B" {
		t.Fatalf("want newest first, got %s,%s", out[0].Symbol, out[1].Symbol)
	}
}
