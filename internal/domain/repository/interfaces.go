package repository

import (
	"context"
	"time"

	"EdgeDesk/internal/domain/models"
)

// FlowSource supplies the current batch of raw options-activity records.
type FlowSource interface {
	Fetch(ctx context.Context) ([]models.OptionsActivity, error)
}

// FlowHistory retains unusual activity per symbol between scan cycles.
type FlowHistory interface {
	Append(ctx context.Context, records []models.OptionsActivity) error
	Prune(ctx context.Context, olderThan time.Time) error
	BySymbol(ctx context.Context) (map[string][]models.OptionsActivity, error)
}

// TradeStore owns trade persistence. Update applies mutate under exclusive
// access to the trade, so state transitions on one id never interleave.
type TradeStore interface {
	Insert(ctx context.Context, t *models.Trade) error
	Get(ctx context.Context, id string) (*models.Trade, error)
	Update(ctx context.Context, id string, mutate func(*models.Trade) error) (*models.Trade, error)
	List(ctx context.Context) ([]models.Trade, error)
}

// TradeArchive is a durable append-only sink for closed trades.
type TradeArchive interface {
	Archive(ctx context.Context, t *models.Trade) error
	Close() error
}

// EventPublisher fans trade lifecycle and signal events out to downstream
// consumers.
type EventPublisher interface {
	PublishTrade(ctx context.Context, t *models.Trade) error
	PublishSignal(ctx context.Context, s models.Signal) error
	Close() error
}

// Broadcaster pushes typed envelopes to connected realtime clients.
type Broadcaster interface {
	Broadcast(env *models.Envelope)
}

// FeedStream is a live duplex connection to the upstream data feed.
type FeedStream interface {
	Run(ctx context.Context) error
	Messages() <-chan *models.Envelope
	Send(env *models.Envelope)
	IsConnected() bool
	Close() error
}

type Metrics interface {
	RecordScanCycle(outcome string)
	RecordSignal(direction string)
	RecordTradeOpened()
	RecordTradeClosed(win bool)
	RecordRateLimited(route string)
	RecordStreamEvent(kind string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
