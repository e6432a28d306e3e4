package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scanCycles   *prometheus.CounterVec
	signals      *prometheus.CounterVec
	tradesOpened prometheus.Counter
	tradesClosed *prometheus.CounterVec
	rateLimited  *prometheus.CounterVec
	streamEvents *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		scanCycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgedesk_scan_cycles_total",
				Help: "Flow scan cycles by outcome",
			},
			[]string{"outcome"},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgedesk_signals_total",
				Help: "Directional signals emitted",
			},
			[]string{"direction"},
		),
		tradesOpened: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "edgedesk_trades_opened_total",
				Help: "Paper trades opened",
			},
		),
		tradesClosed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgedesk_trades_closed_total",
				Help: "Paper trades closed by result",
			},
			[]string{"result"},
		),
		rateLimited: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgedesk_rate_limited_total",
				Help: "Requests declined by the rate limiter",
			},
			[]string{"route"},
		),
		streamEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgedesk_stream_events_total",
				Help: "Stream client lifecycle events",
			},
			[]string{"kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgedesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgedesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordScanCycle records one flow scan cycle outcome ("ok" or "error").
func (r *Recorder) RecordScanCycle(outcome string) {
	r.scanCycles.WithLabelValues(outcome).Inc()
}

// RecordSignal records an emitted signal by direction.
func (r *Recorder) RecordSignal(direction string) {
	r.signals.WithLabelValues(direction).Inc()
}

// RecordTradeOpened records a paper trade open.
func (r *Recorder) RecordTradeOpened() {
	r.tradesOpened.Inc()
}

// RecordTradeClosed records a paper trade close with its result.
func (r *Recorder) RecordTradeClosed(win bool) {
	result := "loss"
	if win {
		result = "win"
	}
	r.tradesClosed.WithLabelValues(result).Inc()
}

// RecordRateLimited records a declined request.
func (r *Recorder) RecordRateLimited(route string) {
	r.rateLimited.WithLabelValues(route).Inc()
}

// RecordStreamEvent records a stream client event (connect, reconnect, failed, drop).
func (r *Recorder) RecordStreamEvent(kind string) {
	r.streamEvents.WithLabelValues(kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
