package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"EdgeDesk/internal/domain/models"
	domrepo "EdgeDesk/internal/domain/repository"
	xlogger "EdgeDesk/pkg/logger"
)

// Signal thresholds over the retained per-symbol premium flow.
const (
	bullishRatio     = 3.0
	bearishRatio     = 0.33
	signalPremiumUSD = 500_000.0
	maxSignalScore   = 0.9
)

// FlowScanner periodically ingests options activity, retains the unusual
// records, and recomputes directional signals from the full retained window.
// One failed cycle never stops the loop.
type FlowScanner struct {
	source    domrepo.FlowSource
	history   domrepo.FlowHistory
	publisher domrepo.EventPublisher
	broadcast domrepo.Broadcaster
	metrics   domrepo.Metrics
	log       *xlogger.Logger

	interval  time.Duration
	retention time.Duration
	timeframe string
	now       func() time.Time

	mu      sync.RWMutex
	signals []models.Signal
}

// ScannerOption configures FlowScanner.
type ScannerOption func(*FlowScanner)

// WithScannerClock injects a clock (tests).
func WithScannerClock(now func() time.Time) ScannerOption {
	return func(s *FlowScanner) { s.now = now }
}

// WithPublisher attaches an event publisher for emitted signals.
func WithPublisher(p domrepo.EventPublisher) ScannerOption {
	return func(s *FlowScanner) { s.publisher = p }
}

// WithBroadcaster attaches a realtime broadcaster for alert envelopes.
func WithBroadcaster(b domrepo.Broadcaster) ScannerOption {
	return func(s *FlowScanner) { s.broadcast = b }
}

// NewFlowScanner creates a flow scanner.
func NewFlowScanner(
	source domrepo.FlowSource,
	history domrepo.FlowHistory,
	metrics domrepo.Metrics,
	log *xlogger.Logger,
	interval, retention time.Duration,
	timeframe string,
	opts ...ScannerOption,
) *FlowScanner {
	s := &FlowScanner{
		source:    source,
		history:   history,
		metrics:   metrics,
		log:       log,
		interval:  interval,
		retention: retention,
		timeframe: timeframe,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the periodic scan loop. Returns immediately.
func (s *FlowScanner) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.RunCycle(ctx); err != nil {
					s.log.Warn("flow scan cycle failed", xlogger.Error(err))
				}
			}
		}
	}()
}

// RunCycle executes one scan pass: fetch, classify, retain, prune, recompute.
func (s *FlowScanner) RunCycle(ctx context.Context) error {
	start := s.now()

	batch, err := s.source.Fetch(ctx)
	if err != nil {
		s.metrics.RecordScanCycle("error")
		s.metrics.RecordError("flow_fetch")
		return fmt.Errorf("flow scan: %w", err)
	}

	unusual := make([]models.OptionsActivity, 0, len(batch))
	for _, rec := range batch {
		if rec.IsUnusual() {
			unusual = append(unusual, rec)
		}
	}
	if len(unusual) > 0 {
		if err := s.history.Append(ctx, unusual); err != nil {
			s.metrics.RecordScanCycle("error")
			s.metrics.RecordError("flow_history")
			return fmt.Errorf("flow scan retain: %w", err)
		}
	}

	// Retention bounds the window so stale flow cannot skew confidence.
	if err := s.history.Prune(ctx, start.Add(-s.retention)); err != nil {
		s.log.Warn("flow history prune failed", xlogger.Error(err))
		s.metrics.RecordError("flow_prune")
	}

	retained, err := s.history.BySymbol(ctx)
	if err != nil {
		s.metrics.RecordScanCycle("error")
		s.metrics.RecordError("flow_history")
		return fmt.Errorf("flow scan read history: %w", err)
	}

	signals := make([]models.Signal, 0, len(retained))
	for symbol, recs := range retained {
		if sig, ok := s.computeSignal(symbol, recs); ok {
			signals = append(signals, sig)
		}
	}
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Confidence > signals[j].Confidence
	})

	s.mu.Lock()
	s.signals = signals
	s.mu.Unlock()

	for _, sig := range signals {
		s.metrics.RecordSignal(string(sig.Direction))
		s.emit(ctx, sig)
	}

	s.metrics.RecordScanCycle("ok")
	s.metrics.RecordLatency("flow_scan", s.now().Sub(start).Seconds())
	return nil
}

// Signals returns the latest computed signals, sorted by confidence.
func (s *FlowScanner) Signals() []models.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Signal, len(s.signals))
	copy(out, s.signals)
	return out
}

// computeSignal derives at most one directional signal for a symbol from its
// retained premium flow. A symbol with no put premium has an undefined
// call/put ratio and yields no signal rather than a division by zero.
func (s *FlowScanner) computeSignal(symbol string, recs []models.OptionsActivity) (models.Signal, bool) {
	var callPremium, putPremium float64
	for _, r := range recs {
		switch r.OptionType {
		case models.OptionCall:
			callPremium += r.Premium
		case models.OptionPut:
			putPremium += r.Premium
		}
	}
	if putPremium == 0 {
		return models.Signal{}, false
	}
	ratio := callPremium / putPremium
	total := callPremium + putPremium

	switch {
	case ratio > bullishRatio && callPremium > signalPremiumUSD:
		return models.Signal{
			Symbol:       symbol,
			Direction:    models.DirectionBullish,
			Confidence:   math.Min(maxSignalScore, ratio/10),
			Timeframe:    s.timeframe,
			Rationale:    fmt.Sprintf("call premium %.0f dominates puts %.1f:1", callPremium, ratio),
			TotalPremium: total,
			CallPutRatio: ratio,
			GeneratedAt:  s.now(),
		}, true
	case ratio < bearishRatio && putPremium > signalPremiumUSD:
		conf := maxSignalScore
		if ratio > 0 {
			conf = math.Min(maxSignalScore, 1/(ratio*10))
		}
		return models.Signal{
			Symbol:       symbol,
			Direction:    models.DirectionBearish,
			Confidence:   conf,
			Timeframe:    s.timeframe,
			Rationale:    fmt.Sprintf("put premium %.0f dominates calls %.2f:1", putPremium, ratio),
			TotalPremium: total,
			CallPutRatio: ratio,
			GeneratedAt:  s.now(),
		}, true
	}
	return models.Signal{}, false
}

func (s *FlowScanner) emit(ctx context.Context, sig models.Signal) {
	if s.publisher != nil {
		if err := s.publisher.PublishSignal(ctx, sig); err != nil {
			s.log.Warn("signal publish failed", xlogger.Error(err))
			s.metrics.RecordError("signal_publish")
		}
	}
	if s.broadcast != nil {
		env, err := models.NewEnvelope(models.EnvAlert, models.AlertPayload{
			Symbol:     sig.Symbol,
			Direction:  sig.Direction,
			Confidence: sig.Confidence,
			Rationale:  sig.Rationale,
		}, s.now())
		if err == nil {
			s.broadcast.Broadcast(env)
		}
	}
}
