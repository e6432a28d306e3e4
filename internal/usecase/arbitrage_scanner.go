package usecase

import (
	"fmt"
	"sort"
	"time"

	"EdgeDesk/internal/domain/models"
)

// ArbitrageScanner computes fee-adjusted edges over caller-supplied venue
// quotes. Pure computation: no state is carried between scans, and every
// edge is recomputed from the quote set at scan time.
type ArbitrageScanner struct {
	now func() time.Time
}

// NewArbitrageScanner creates an arbitrage scanner.
func NewArbitrageScanner() *ArbitrageScanner {
	return &ArbitrageScanner{now: time.Now}
}

// NewArbitrageScannerWithClock creates a scanner with an injected clock (tests).
func NewArbitrageScannerWithClock(now func() time.Time) *ArbitrageScanner {
	return &ArbitrageScanner{now: now}
}

// Scan ranks quotes by fee-adjusted edge against the fair-probability
// estimate. Positive edge means the venue underprices "yes" relative to fair
// value. Quotes below minEdgeBps are dropped; an empty result is not an error.
func (s *ArbitrageScanner) Scan(symbol string, fairProbability, minEdgeBps float64, quotes []models.Quote) ([]models.Opportunity, error) {
	if fairProbability <= 0 || fairProbability >= 1 {
		return nil, fmt.Errorf("%w: fair probability %v outside (0,1)", models.ErrInvalidQuote, fairProbability)
	}

	scanned := s.now()
	out := make([]models.Opportunity, 0, len(quotes))
	for _, q := range quotes {
		if q.ProbabilityYes < 0 || q.ProbabilityYes > 1 {
			return nil, fmt.Errorf("%w: %s/%s probability %v", models.ErrInvalidQuote, q.Venue, q.MarketID, q.ProbabilityYes)
		}
		if q.FeeBps < 0 {
			return nil, fmt.Errorf("%w: %s/%s negative fee", models.ErrInvalidQuote, q.Venue, q.MarketID)
		}

		edgeBps := (fairProbability-q.ProbabilityYes)*10_000 - q.FeeBps
		if edgeBps < minEdgeBps {
			continue
		}
		out = append(out, models.Opportunity{
			ID:                fmt.Sprintf("%s:%s:%s:%d", symbol, q.Venue, q.MarketID, scanned.UnixNano()),
			Symbol:            symbol,
			Venue:             q.Venue,
			MarketID:          q.MarketID,
			MarketProbability: q.ProbabilityYes,
			FairProbability:   fairProbability,
			EdgeBps:           edgeBps,
			ExpectedRoiPct:    edgeBps / 100,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EdgeBps > out[j].EdgeBps
	})
	return out, nil
}
