package repository

import (
	"context"
	"fmt"

	"FinPrep/internal/domain/models"
	pkgkafka "FinPrep/pkg/kafka"
	applogger "FinPrep/pkg/logger"
)

// KafkaDatasetPublisher announces prepared datasets on a Kafka topic.
// Messages are keyed by symbol so consumers see per-symbol ordering.
type KafkaDatasetPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaDatasetPublisher(producer *pkgkafka.Producer, topic string) (*KafkaDatasetPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("producer is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	return &KafkaDatasetPublisher{producer: producer, topic: topic}, nil
}

// SetLogger injects a structured logger.
func (p *KafkaDatasetPublisher) SetLogger(l *applogger.Logger) { p.l = l }

func (p *KafkaDatasetPublisher) PublishSummary(ctx context.Context, s models.DatasetSummary) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(s.Symbol), s); err != nil {
		if p.l != nil {
			p.l.Error("publish dataset summary failed",
				applogger.String("topic", p.topic),
				applogger.String("dataset_id", s.ID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("publish dataset summary: %w", err)
	}
	if p.l != nil {
		p.l.Debug("dataset summary published",
			applogger.String("topic", p.topic),
			applogger.String("dataset_id", s.ID),
			applogger.String("symbol", s.Symbol),
		)
	}
	return nil
}

func (p *KafkaDatasetPublisher) Close() error {
	return p.producer.Close()
}

// NoopDatasetPublisher swallows announcements when Kafka is not
// configured, keeping the preparation path identical either way.
type NoopDatasetPublisher struct{}

func (NoopDatasetPublisher) PublishSummary(context.Context, models.DatasetSummary) error { return nil }

func (NoopDatasetPublisher) Close() error { return nil }
