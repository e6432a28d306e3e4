package usecase

import (
	"context"
	"errors"

	"EdgeDesk/internal/domain/models"
	domrepo "EdgeDesk/internal/domain/repository"
	xlogger "EdgeDesk/pkg/logger"
)

// StreamCollector drains the upstream feed and fans every frame out to the
// realtime hub. It owns the stream's lifecycle: once Run returns, the feed
// is done for good.
type StreamCollector struct {
	stream  domrepo.FeedStream
	hub     domrepo.Broadcaster
	metrics domrepo.Metrics
	log     *xlogger.Logger
}

// NewStreamCollector wires the feed stream to the broadcaster.
func NewStreamCollector(stream domrepo.FeedStream, hub domrepo.Broadcaster, metrics domrepo.Metrics, log *xlogger.Logger) *StreamCollector {
	return &StreamCollector{
		stream:  stream,
		hub:     hub,
		metrics: metrics,
		log:     log,
	}
}

// Run starts the stream and relays frames until the stream terminates or
// ctx is cancelled. Keepalive frames are handled inside the stream client
// and never reach the hub.
func (c *StreamCollector) Run(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- c.stream.Run(ctx)
	}()

	for {
		select {
		case env := <-c.stream.Messages():
			c.relay(env)
		case err := <-done:
			// Flush whatever the reader buffered before it stopped.
			for {
				select {
				case env := <-c.stream.Messages():
					c.relay(env)
				default:
					return c.finish(err)
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *StreamCollector) relay(env *models.Envelope) {
	if env == nil {
		return
	}
	if env.Type == models.EnvPing || env.Type == models.EnvPong {
		return
	}
	c.metrics.RecordStreamEvent(string(env.Type))
	c.hub.Broadcast(env)
}

func (c *StreamCollector) finish(err error) error {
	if errors.Is(err, models.ErrConnectionExhausted) {
		c.log.Error("feed stream gave up reconnecting", xlogger.Error(err))
		c.metrics.RecordError("stream_exhausted")
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		c.log.Warn("feed stream stopped", xlogger.Error(err))
	}
	return err
}
