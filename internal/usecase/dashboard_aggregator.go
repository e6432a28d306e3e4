package usecase

import (
	"context"
	"fmt"
	"sync"

	"EdgeDesk/internal/domain/models"
)

// SignalFeed exposes the latest completed scan snapshot.
type SignalFeed interface {
	Signals() []models.Signal
}

// DashboardAggregator composes the read model from the live sources on
// every request. It keeps no derived state of its own beyond the last
// opportunity snapshot handed to RecordOpportunities.
type DashboardAggregator struct {
	ledger  *TradeLedger
	signals SignalFeed
	topN    int

	mu   sync.RWMutex
	opps []models.Opportunity
}

// NewDashboardAggregator creates an aggregator over the ledger and signal
// feed. topN caps the signal and opportunity lists; values below 1 fall
// back to 10.
func NewDashboardAggregator(ledger *TradeLedger, signals SignalFeed, topN int) *DashboardAggregator {
	if topN < 1 {
		topN = 10
	}
	return &DashboardAggregator{
		ledger:  ledger,
		signals: signals,
		topN:    topN,
	}
}

// RecordOpportunities replaces the opportunity snapshot. The scan handler
// calls this after every arbitrage scan so the dashboard reflects the most
// recent result set.
func (d *DashboardAggregator) RecordOpportunities(opps []models.Opportunity) {
	cp := make([]models.Opportunity, len(opps))
	copy(cp, opps)
	d.mu.Lock()
	d.opps = cp
	d.mu.Unlock()
}

// Opportunities returns a copy of the last recorded opportunity snapshot.
func (d *DashboardAggregator) Opportunities() []models.Opportunity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cp := make([]models.Opportunity, len(d.opps))
	copy(cp, d.opps)
	return cp
}

// Build assembles the full dashboard view. Empty sources yield empty
// sections, never an error.
func (d *DashboardAggregator) Build(ctx context.Context, limit int) (*models.DashboardView, error) {
	if limit < 1 {
		limit = d.topN
	}

	summary, curve, err := d.ledger.Summarize(ctx)
	if err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}
	recent, err := d.ledger.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}

	var sigs []models.Signal
	if d.signals != nil {
		sigs = d.signals.Signals()
		if len(sigs) > limit {
			sigs = sigs[:limit]
		}
	}
	opps := d.Opportunities()
	if len(opps) > limit {
		opps = opps[:limit]
	}

	return &models.DashboardView{
		Summary:       summary,
		EquityCurve:   curve,
		Signals:       sigs,
		Opportunities: opps,
		RecentTrades:  recent,
	}, nil
}
