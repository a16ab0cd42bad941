// Package kafka optionally publishes assembled rows to a topic for
// downstream consumers that want the series as a stream rather than a file.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/precip-data-etl/internal/config"
	"github.com/couchcryptid/precip-data-etl/internal/domain"
)

// Writer produces one message per result row. It implements pipeline.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// WriteTable publishes every row in a single WriteMessages call. Messages
// are keyed by window_end so reprocessed ranges compact cleanly.
func (w *Writer) WriteTable(ctx context.Context, table *domain.ResultTable) error {
	if len(table.Rows) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, len(table.Rows))
	for i, row := range table.Rows {
		msg, err := serializeRow(table, row)
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

// rowPayload is the JSON shape published per window.
type rowPayload struct {
	WindowEnd      time.Time           `json:"window_end"`
	WindowComplete bool                `json:"window_complete"`
	Values         map[string]*float64 `json:"values"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// serializeRow marshals an extraction row into a Kafka message.
func serializeRow(table *domain.ResultTable, row domain.ExtractionRow) (kafkago.Message, error) {
	data, err := json.Marshal(rowPayload{
		WindowEnd:      row.WindowEnd,
		WindowComplete: row.Complete,
		Values:         row.Values,
		GeneratedAt:    table.GeneratedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.WindowEnd.Format(time.RFC3339)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "window_complete", Value: []byte(strconv.FormatBool(row.Complete))},
			{Key: "generated_at", Value: []byte(table.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
