package usecase

import (
	"errors"
	"math"
	"testing"
	"time"

	"EdgeDesk/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestArbitrageScanRanksByEdge(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewArbitrageScannerWithClock(func() time.Time { return fixed })

	quotes := []models.Quote{
		{Venue: "alpha", MarketID: "m1", ProbabilityYes: 0.60, FeeBps: 50},
		{Venue: "beta", MarketID: "m2", ProbabilityYes: 0.54, FeeBps: 40},
	}
	out, err := s.Scan("BTC-DEC", 0.62, 80, quotes)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 opportunities, got %d", len(out))
	}
	if out[0].Venue != "beta" {
		t.Fatalf("largest edge should rank first, got %s", out[0].Venue)
	}
	if !almostEqual(out[0].EdgeBps, 760) {
		t.Fatalf("beta edge: want 760, got %v", out[0].EdgeBps)
	}
	if !almostEqual(out[1].EdgeBps, 150) {
		t.Fatalf("alpha edge: want 150, got %v", out[1].EdgeBps)
	}
	if !almostEqual(out[0].ExpectedRoiPct, 7.6) {
		t.Fatalf("beta roi: want 7.6, got %v", out[0].ExpectedRoiPct)
	}
}

func TestArbitrageScanDropsBelowThreshold(t *testing.T) {
	s := NewArbitrageScanner()
	quotes := []models.Quote{
		// Edge is (0.62-0.61)*10000 - 50 = 50 bps, below the 80 floor.
		{Venue: "alpha", MarketID: "m1", ProbabilityYes: 0.61, FeeBps: 50},
	}
	out, err := s.Scan("BTC-DEC", 0.62, 80, quotes)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("want empty result, got %d", len(out))
	}
}

func TestArbitrageScanDeterministicIDs(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewArbitrageScannerWithClock(func() time.Time { return fixed })

	out, err := s.Scan("ETH-SEP", 0.5, 0, []models.Quote{
		{Venue: "alpha", MarketID: "m1", ProbabilityYes: 0.4},
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := "ETH-SEP:alpha:m1:" + "1748779200000000000"
	if out[0].ID != want {
		t.Fatalf("id: want %s, got %s", want, out[0].ID)
	}
}

func TestArbitrageScanRejectsInvalidInput(t *testing.T) {
	s := NewArbitrageScanner()

	if _, err := s.Scan("X", 0, 0, nil); !errors.Is(err, models.ErrInvalidQuote) {
		t.Fatalf("fair probability 0 should be rejected, got %v", err)
	}
	if _, err := s.Scan("X", 1, 0, nil); !errors.Is(err, models.ErrInvalidQuote) {
		t.Fatalf("fair probability 1 should be rejected, got %v", err)
	}
	_, err := s.Scan("X", 0.5, 0, []models.Quote{{Venue: "v", MarketID: "m", ProbabilityYes: 1.2}})
	if !errors.Is(err, models.ErrInvalidQuote) {
		t.Fatalf("out-of-range quote should be rejected, got %v", err)
	}
	_, err = s.Scan("X", 0.5, 0, []models.Quote{{Venue: "v", MarketID: "m", ProbabilityYes: 0.5, FeeBps: -1}})
	if !errors.Is(err, models.ErrInvalidQuote) {
		t.Fatalf("negative fee should be rejected, got %v", err)
	}
}
