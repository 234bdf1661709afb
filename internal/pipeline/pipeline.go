package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/forecast-features-etl/internal/domain"
	"github.com/couchcryptid/forecast-features-etl/internal/observability"
	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw forecast messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns one raw message into a scored row.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.ScoredRow, error)
}

// BatchLoader publishes scored rows to the sink.
type BatchLoader interface {
	LoadBatch(ctx context.Context, rows []domain.ScoredRow) error
}

// Pipeline moves forecast rows from the source to the sink, one batch at a
// time. A batch's offsets are committed only after every well-formed row in
// it has been delivered, so a stopped pipeline replays rather than loses rows.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once a batch of scored rows has been delivered.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not delivered any scored rows yet")
	}
	return nil
}

// Run scores batches until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	extractBackoff := initialBackoff
	for ctx.Err() == nil {
		batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("extract batch failed", "error", err, "retry_in", extractBackoff)
			if !sharedretry.SleepWithContext(ctx, extractBackoff) {
				break
			}
			extractBackoff = sharedretry.NextBackoff(extractBackoff, maxBackoff)
			continue
		}
		extractBackoff = initialBackoff

		if len(batch) == 0 {
			continue
		}
		if !p.processBatch(ctx, batch) {
			break
		}
	}

	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// processBatch scores, delivers and commits one batch. It returns false when
// the context ends before the batch is delivered; nothing is committed then.
func (p *Pipeline) processBatch(ctx context.Context, batch []domain.RawEvent) bool {
	start := time.Now()
	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	rows := p.scoreBatch(ctx, batch)
	if len(rows) > 0 {
		if !p.deliver(ctx, rows) {
			return false
		}
		p.metrics.MessagesProduced.Add(float64(len(rows)))
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}

	p.commitInOrder(ctx, batch)
	return true
}

// scoreBatch scores each message in input order. Malformed messages are
// logged, counted and left out of the result.
func (p *Pipeline) scoreBatch(ctx context.Context, batch []domain.RawEvent) []domain.ScoredRow {
	rows := make([]domain.ScoredRow, 0, len(batch))
	for _, raw := range batch {
		row, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("malformed row, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.MalformedRows.Inc()
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// deliver loads rows, retrying the same rows with backoff until the sink
// accepts them or the context ends.
func (p *Pipeline) deliver(ctx context.Context, rows []domain.ScoredRow) bool {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := p.loader.LoadBatch(ctx, rows)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			p.logger.Warn("load abandoned on shutdown, batch will be replayed", "error", err, "rows", len(rows))
			return false
		}
		p.logger.Error("load batch failed, retrying",
			"error", err,
			"attempt", attempt,
			"rows", len(rows),
			"retry_in", backoff,
		)
		if !sharedretry.SleepWithContext(ctx, backoff) {
			return false
		}
		backoff = sharedretry.NextBackoff(backoff, maxBackoff)
	}
}

// commitInOrder acknowledges every message of a delivered batch, malformed
// ones included, in the order they were read.
func (p *Pipeline) commitInOrder(ctx context.Context, batch []domain.RawEvent) {
	for _, raw := range batch {
		if raw.Commit == nil {
			continue
		}
		if err := raw.Commit(ctx); err != nil {
			p.logger.Warn("commit offset failed", "error", err,
				"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
		}
	}
}
