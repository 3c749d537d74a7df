package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/asl-index-service/internal/config"
	"github.com/couchcryptid/asl-index-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces detection records to a Kafka topic.
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

// PublishTable serializes and publishes every record of a result table,
// missing months included, in a single WriteMessages call. Messages are keyed
// by month so re-runs overwrite rather than duplicate on compacted topics.
func (w *Writer) PublishTable(ctx context.Context, table domain.Table) error {
	if len(table) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(table))
	for i := range table {
		msg, err := serializeToMessage(table[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Record into a Kafka message.
func serializeToMessage(rec domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Time.Format("2006-01")),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "calculation_version", Value: []byte(domain.CalculationVersion)},
			{Key: "processed_at", Value: []byte(rec.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
