package repository

import (
	"context"

	"EdgeDesk/internal/domain/models"
	"EdgeDesk/internal/domain/repository"
	pkgkafka "EdgeDesk/pkg/kafka"
)

// KafkaEventPublisher emits trade lifecycle and signal events to a topic,
// keyed by symbol so per-symbol ordering holds under the hash balancer.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishTrade(ctx context.Context, t *models.Trade) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.Symbol), map[string]interface{}{
		"event": "trade_" + string(t.Status),
		"trade": t,
	})
}

func (p *KafkaEventPublisher) PublishSignal(ctx context.Context, s models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), map[string]interface{}{
		"event":  "signal",
		"signal": s,
	})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
