package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

// Writer publishes one message per region table to a Kafka topic.
// It implements pipeline.TableSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the region curve topic. Messages
// are keyed by region, so a compacted topic keeps the latest table per region.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// WriteTables serializes and publishes all tables in a single
// WriteMessages call.
func (w *Writer) WriteTables(ctx context.Context, tables []domain.RegionTable) error {
	if len(tables) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(tables))
	for i := range tables {
		msg, err := serializeToMessage(tables[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d tables: %w", len(msgs), err)
	}
	w.logger.Debug("published region tables", "topic", w.writer.Topic, "tables", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RegionTable into a Kafka message.
func serializeToMessage(table domain.RegionTable) (kafkago.Message, error) {
	data, err := json.Marshal(table)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region table %q: %w", table.Region, err)
	}
	return kafkago.Message{
		Key:   []byte(table.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(table.Region)},
			{Key: "generated_at", Value: []byte(table.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
