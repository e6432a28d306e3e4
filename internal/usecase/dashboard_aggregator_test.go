package usecase

import (
	"context"
	"testing"

	"EdgeDesk/internal/domain/models"
)

type stubSignalFeed struct {
	sigs []models.Signal
}

func (s *stubSignalFeed) Signals() []models.Signal { return s.sigs }

func TestBuildEmptySources(t *testing.T) {
	agg := NewDashboardAggregator(newTestLedger(t), &stubSignalFeed{}, 10)

	view, err := agg.Build(context.Background(), 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if view.Summary == nil || view.Summary.TotalTrades != 0 {
		t.Fatalf("empty summary expected, got %+v", view.Summary)
	}
	if len(view.Signals) != 0 || len(view.Opportunities) != 0 || len(view.RecentTrades) != 0 {
		t.Fatalf("empty sections expected, got %+v", view)
	}
}

func TestBuildComposesSections(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	tr, err := ledger.Open(ctx, openReq(1000, 10))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := ledger.Close(ctx, tr.ID, 0.75); err != nil {
		t.Fatalf("close: %v", err)
	}

	feed := &stubSignalFeed{sigs: []models.Signal{{Symbol: "NVDA", Direction: models.DirectionBullish, Confidence: 0.6}}}
	agg := NewDashboardAggregator(ledger, feed, 10)
	agg.RecordOpportunities([]models.Opportunity{{Symbol: "BTC-DEC", Venue: "alpha", EdgeBps: 760}})

	view, err := agg.Build(ctx, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if view.Summary.ClosedTrades != 1 || view.Summary.Wins != 1 {
		t.Fatalf("summary: %+v", view.Summary)
	}
	if len(view.EquityCurve) != 1 {
		t.Fatalf("want 1 equity point, got %d", len(view.EquityCurve))
	}
	if len(view.Signals) != 1 || view.Signals[0].Symbol != "NVDA" {
		t.Fatalf("signals: %+v", view.Signals)
	}
	if len(view.Opportunities) != 1 || view.Opportunities[0].Venue != "alpha" {
		t.Fatalf("opportunities: %+v", view.Opportunities)
	}
	if len(view.RecentTrades) != 1 {
		t.Fatalf("recent trades: %+v", view.RecentTrades)
	}
}

func TestBuildHonorsLimit(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := ledger.Open(ctx, openReq(100, 10)); err != nil {
			t.Fatalf("open: %v", err)
		}
	}

	feed := &stubSignalFeed{sigs: make([]models.Signal, 5)}
	agg := NewDashboardAggregator(ledger, feed, 10)
	agg.RecordOpportunities(make([]models.Opportunity, 5))

	view, err := agg.Build(ctx, 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(view.RecentTrades) != 2 || len(view.Signals) != 2 || len(view.Opportunities) != 2 {
		t.Fatalf("limit not applied: trades=%d signals=%d opps=%d",
			len(view.RecentTrades), len(view.Signals), len(view.Opportunities))
	}
}

func TestRecordOpportunitiesSnapshotIsCopied(t *testing.T) {
	agg := NewDashboardAggregator(newTestLedger(t), &stubSignalFeed{}, 10)

	src := []models.Opportunity{{Symbol: "A"}}
	agg.RecordOpportunities(src)
	src[0].Symbol = "mutated"

	got := agg.Opportunities()
	if len(got) != 1 || got[0].Symbol != "A" {
		t.Fatalf("snapshot must not alias caller slice, got %+v", got)
	}
}
