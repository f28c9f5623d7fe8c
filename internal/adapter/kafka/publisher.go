// Package kafka publishes normalized asteroid views to the sink topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/astronuts/neo-data-etl/internal/config"
	"github.com/astronuts/neo-data-etl/internal/domain"
)

// Publisher produces asteroid views to a Kafka topic.
// It implements pipeline.EventSink.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishBatch serializes and publishes the views in a single WriteMessages
// call, one message per asteroid keyed by identifier.
func (p *Publisher) PublishBatch(ctx context.Context, views []domain.AsteroidView) error {
	if len(views) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(views))
	for i := range views {
		msg, err := serializeToMessage(views[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an AsteroidView into a Kafka message.
func serializeToMessage(view domain.AsteroidView) (kafkago.Message, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize asteroid view: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(view.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "hazardous", Value: []byte(strconv.FormatBool(view.Hazardous))},
			{Key: "ingested_at", Value: []byte(view.IngestedAt.Format(time.RFC3339))},
		},
	}, nil
}
