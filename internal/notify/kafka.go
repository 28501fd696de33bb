package notify

import (
	"context"

	"BreadthPulse/internal/domain/models"
	pkgkafka "BreadthPulse/pkg/kafka"
)

// KafkaSink publishes alert events to a Kafka topic, keyed by event
// type so consumers can partition by signal.
type KafkaSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSink creates a Kafka-backed event sink.
func NewKafkaSink(producer *pkgkafka.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Deliver(ctx context.Context, ev models.AlertEvent) error {
	return s.producer.Publish(ctx, s.topic, []byte(ev.Type), ev)
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
