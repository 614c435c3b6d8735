// Package kafka mirrors appended alert records to a Kafka topic for
// downstream consumers. Mirroring is feature-flagged and best-effort: the
// ledger file remains the source of truth.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/lightning-alert-service/internal/config"
	"github.com/couchcryptid/lightning-alert-service/internal/domain"
)

// Publisher produces alert records to the configured mirror topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the alert mirror topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.AlertKafkaBrokers...),
		Topic:        cfg.AlertKafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes and writes one alert record.
func (p *Publisher) Publish(ctx context.Context, rec domain.AlertRecord) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an AlertRecord into a Kafka message, keyed by
// alert number so a partitioned topic preserves per-ledger ordering.
func serializeToMessage(rec domain.AlertRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(rec.Number)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_number", Value: []byte(strconv.Itoa(rec.Number))},
			{Key: "timestamp", Value: []byte(rec.Timestamp)},
		},
	}, nil
}
