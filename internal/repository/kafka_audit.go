package repository

import (
	"context"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
	pkgkafka "StockGate/pkg/kafka"
)

// KafkaAuditPublisher ships audit records to a broker topic for
// out-of-process ingestion. Keyed by correlation id so replays of the
// same invocation land in one partition.
type KafkaAuditPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAuditPublisher creates a Kafka-backed audit publisher.
func NewKafkaAuditPublisher(producer *pkgkafka.Producer, topic string) drepo.AuditPublisher {
	return &KafkaAuditPublisher{producer: producer, topic: topic}
}

func (p *KafkaAuditPublisher) Publish(ctx context.Context, rec *models.AuditRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.CorrelationID), rec)
}

func (p *KafkaAuditPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
