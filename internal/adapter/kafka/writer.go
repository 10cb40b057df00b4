// Package kafka publishes district aggregates to a sink topic after each
// pipeline run. Batch export only; the pipeline never consumes from Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/fernhall/house-price-map-service/internal/config"
	"github.com/fernhall/house-price-map-service/internal/domain"
)

// Writer produces district aggregate messages to a Kafka topic.
// It implements pipeline.AggregatePublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishAggregates serializes every district aggregate in the snapshot and
// publishes them in a single WriteMessages call.
func (w *Writer) PublishAggregates(ctx context.Context, snapshot *domain.Snapshot) error {
	if len(snapshot.Districts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snapshot.Districts))
	for i := range snapshot.Districts {
		msg, err := serializeToMessage(snapshot, snapshot.Districts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish aggregates: %w", err)
	}
	w.logger.Info("aggregates published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a district aggregate into a Kafka message
// keyed by district code so consumers see per-district ordering.
func serializeToMessage(snapshot *domain.Snapshot, agg domain.DistrictAggregate) (kafkago.Message, error) {
	data, err := json.Marshal(agg)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize district aggregate: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(agg.District),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_id", Value: []byte(snapshot.ID)},
			{Key: "generated_at", Value: []byte(snapshot.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
