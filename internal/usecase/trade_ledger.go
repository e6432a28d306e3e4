package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"EdgeDesk/internal/domain/models"
	domrepo "EdgeDesk/internal/domain/repository"
	xlogger "EdgeDesk/pkg/logger"

	"github.com/google/uuid"
)

// minProbDenominator floors the payout denominators so entries at the edge
// of the probability range cannot blow up PnL.
const minProbDenominator = 0.01

// TradeLedger owns the paper-trade lifecycle. State transitions run inside
// the store's Update, so a double close yields exactly one success and one
// ErrAlreadyClosed.
type TradeLedger struct {
	store     domrepo.TradeStore
	archive   domrepo.TradeArchive
	publisher domrepo.EventPublisher
	broadcast domrepo.Broadcaster
	metrics   domrepo.Metrics
	log       *xlogger.Logger
	now       func() time.Time
}

// LedgerOption configures TradeLedger.
type LedgerOption func(*TradeLedger)

// WithLedgerClock injects a clock (tests).
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *TradeLedger) { l.now = now }
}

// WithArchive attaches a durable sink for closed trades.
func WithArchive(a domrepo.TradeArchive) LedgerOption {
	return func(l *TradeLedger) { l.archive = a }
}

// WithLedgerPublisher attaches an event publisher for trade lifecycle events.
func WithLedgerPublisher(p domrepo.EventPublisher) LedgerOption {
	return func(l *TradeLedger) { l.publisher = p }
}

// WithLedgerBroadcaster attaches a realtime broadcaster for trade envelopes.
func WithLedgerBroadcaster(b domrepo.Broadcaster) LedgerOption {
	return func(l *TradeLedger) { l.broadcast = b }
}

// NewTradeLedger creates a trade ledger over store.
func NewTradeLedger(store domrepo.TradeStore, metrics domrepo.Metrics, log *xlogger.Logger, opts ...LedgerOption) *TradeLedger {
	l := &TradeLedger{
		store:   store,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open creates a paper trade sized by the risk budget:
// size = bankroll * maxRiskPct/100. Risk parameters outside (0,100] and
// non-positive bankrolls are rejected with ErrInvalidRisk.
func (l *TradeLedger) Open(ctx context.Context, req *models.OpenTradeRequest) (*models.Trade, error) {
	if req.MaxRiskPct <= 0 || req.MaxRiskPct > 100 {
		return nil, fmt.Errorf("%w: maxRiskPct %v outside (0,100]", models.ErrInvalidRisk, req.MaxRiskPct)
	}
	if req.BankrollUsd <= 0 {
		return nil, fmt.Errorf("%w: bankroll %v", models.ErrInvalidRisk, req.BankrollUsd)
	}

	t := &models.Trade{
		ID:               uuid.NewString(),
		Symbol:           req.Symbol,
		Venue:            req.Venue,
		MarketID:         req.MarketID,
		Side:             models.Side(req.Side),
		Status:           models.StatusOpen,
		EntryProbability: req.MarketProbability,
		Size:             req.BankrollUsd * req.MaxRiskPct / 100,
		BankrollUsd:      req.BankrollUsd,
		MaxRiskPct:       req.MaxRiskPct,
		FeeBps:           req.FeeBps,
		Notes:            req.Notes,
		ExecutedAt:       l.now(),
	}
	if err := l.store.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("open trade: %w", err)
	}

	l.metrics.RecordTradeOpened()
	l.publishTrade(ctx, t)
	return t, nil
}

// Close marks the trade closed and books PnL atomically with the exit
// probability and close time. Returns ErrNotFound for unknown ids and
// ErrAlreadyClosed when the trade already made its terminal transition.
func (l *TradeLedger) Close(ctx context.Context, tradeID string, exitProbability float64) (*models.Trade, error) {
	resolved := clamp01(exitProbability)
	closedAt := l.now()

	t, err := l.store.Update(ctx, tradeID, func(t *models.Trade) error {
		if t.Status != models.StatusOpen {
			return models.ErrAlreadyClosed
		}
		pnl := tradePnl(t.Side, t.Size, t.EntryProbability, resolved)
		t.Status = models.StatusClosed
		t.ExitProbability = &resolved
		t.Pnl = &pnl
		t.ClosedAt = &closedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.RecordTradeClosed(*t.Pnl > 0)
	if l.archive != nil {
		if err := l.archive.Archive(ctx, t); err != nil {
			// The in-memory ledger stays authoritative; archive loss is
			// surfaced, not fatal.
			l.log.Error("trade archive failed", xlogger.String("trade", t.ID), xlogger.Error(err))
			l.metrics.RecordError("trade_archive")
		}
	}
	l.publishTrade(ctx, t)
	return t, nil
}

// Get returns a trade by id.
func (l *TradeLedger) Get(ctx context.Context, tradeID string) (*models.Trade, error) {
	return l.store.Get(ctx, tradeID)
}

// Summarize recomputes the performance summary and equity curve from the
// full trade set. Nothing is cached, so the summary can never drift from
// the ledger.
func (l *TradeLedger) Summarize(ctx context.Context) (*models.DashboardSummary, []models.EquityPoint, error) {
	trades, err := l.store.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("summarize: %w", err)
	}

	sum := &models.DashboardSummary{TotalTrades: len(trades)}
	closed := make([]models.Trade, 0, len(trades))
	var sizeAtRisk float64
	for _, t := range trades {
		if t.Status != models.StatusClosed || t.Pnl == nil {
			sum.OpenTrades++
			continue
		}
		sum.ClosedTrades++
		closed = append(closed, t)
		sizeAtRisk += t.Size
		if *t.Pnl > 0 {
			sum.Wins++
		} else {
			sum.Losses++
		}
		sum.NetPnl += *t.Pnl
	}
	if sum.ClosedTrades > 0 {
		sum.WinRate = float64(sum.Wins) / float64(sum.ClosedTrades)
	}
	if sizeAtRisk > 0 {
		sum.RoiPct = sum.NetPnl / sizeAtRisk * 100
	}

	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].ClosedAt.Before(*closed[j].ClosedAt)
	})
	curve := make([]models.EquityPoint, 0, len(closed))
	var equity float64
	for _, t := range closed {
		equity += *t.Pnl
		curve = append(curve, models.EquityPoint{Time: *t.ClosedAt, Equity: equity})
	}
	return sum, curve, nil
}

// Recent returns up to n trades, most recent first.
func (l *TradeLedger) Recent(ctx context.Context, n int) ([]models.Trade, error) {
	trades, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent trades: %w", err)
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].ExecutedAt.After(trades[j].ExecutedAt)
	})
	if n > 0 && len(trades) > n {
		trades = trades[:n]
	}
	return trades, nil
}

func (l *TradeLedger) publishTrade(ctx context.Context, t *models.Trade) {
	if l.publisher != nil {
		if err := l.publisher.PublishTrade(ctx, t); err != nil {
			l.log.Warn("trade event publish failed", xlogger.Error(err))
			l.metrics.RecordError("trade_publish")
		}
	}
	if l.broadcast != nil {
		env, err := models.NewEnvelope(models.EnvTrade, t, l.now())
		if err == nil {
			l.broadcast.Broadcast(env)
		}
	}
}

// tradePnl prices the trade as a binary claim in probability space with a
// linear payout: a BUY gains as the market resolves above entry, a SELL
// gains as it resolves below, and both sides break even at exit == entry.
func tradePnl(side models.Side, size, entry, resolved float64) float64 {
	if side == models.SideSell {
		den := 1 - entry
		if den < minProbDenominator {
			den = minProbDenominator
		}
		return size * (entry - resolved) / den
	}
	den := entry
	if den < minProbDenominator {
		den = minProbDenominator
	}
	return size * (resolved - entry) / den
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
