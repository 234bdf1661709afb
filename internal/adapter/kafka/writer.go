package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/couchcryptid/forecast-features-etl/internal/config"
	"github.com/couchcryptid/forecast-features-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	writeAttempts = 3
	writeDelay    = 100 * time.Millisecond
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces scored rows to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer   messageWriter
	logger   *slog.Logger
	attempts uint
	delay    time.Duration
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, attempts: writeAttempts, delay: writeDelay}
}

// LoadBatch serializes the scored rows and publishes them in one
// WriteMessages call, retrying transient broker errors a few times before
// giving the batch back to the pipeline.
func (w *Writer) LoadBatch(ctx context.Context, rows []domain.ScoredRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	return retry.Do(
		func() error {
			return w.writer.WriteMessages(ctx, msgs...)
		},
		retry.Context(ctx),
		retry.Attempts(w.attempts),
		retry.Delay(w.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			w.logger.Warn("write batch failed, retrying", "attempt", n+1, "error", err, "batch_size", len(msgs))
		}),
	)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage converts a ScoredRow into a Kafka message keyed by row ID.
func serializeToMessage(row domain.ScoredRow) (kafkago.Message, error) {
	out, err := domain.SerializeScoredRow(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize message %s: %w", row.ID, err)
	}
	headers := make([]kafkago.Header, 0, len(out.Headers))
	for _, key := range []string{"policy", "scored_at"} {
		if v, ok := out.Headers[key]; ok {
			headers = append(headers, kafkago.Header{Key: key, Value: []byte(v)})
		}
	}
	return kafkago.Message{
		Key:     out.Key,
		Value:   out.Value,
		Headers: headers,
	}, nil
}
