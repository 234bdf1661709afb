package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/forecast-features-etl/internal/domain"
	"github.com/couchcryptid/forecast-features-etl/internal/observability"
	"github.com/couchcryptid/forecast-features-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
	err     error
	calls   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.ScoredRow, error) {
	if m.err != nil {
		return domain.ScoredRow{}, m.err
	}
	return domain.ScoredRow{ID: string(raw.Key)}, nil
}

// mockLoader fails its first `failures` calls, or every call when err is set.
// Successful loads are appended to events when it is non-nil.
type mockLoader struct {
	loaded   []domain.ScoredRow
	err      error
	failures int
	calls    int
	events   *[]string
}

func (m *mockLoader) LoadBatch(_ context.Context, rows []domain.ScoredRow) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	if m.calls <= m.failures {
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, rows...)
	if m.events != nil {
		*m.events = append(*m.events, "load")
	}
	return nil
}

// recordCommit makes raw append "commit:<key>" to events when committed.
func recordCommit(raw domain.RawEvent, events *[]string) domain.RawEvent {
	raw.Commit = func(_ context.Context) error {
		*events = append(*events, "commit:"+string(raw.Key))
		return nil
	}
	return raw
}

func loadedIDs(rows []domain.ScoredRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawEvent("row-1", validJSON)}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), metrics, 10)
	require.Error(t, p.CheckReadiness(context.Background()))

	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "row-1", ldr.loaded[0].ID)
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MessagesConsumed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MessagesProduced), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no events, will block
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_MalformedRowsAreSkippedAndCommitted(t *testing.T) {
	var committed atomic.Int64
	bad := rawEvent("bad", `{"date": "2020-01-05"}`)
	bad.Commit = func(_ context.Context) error {
		committed.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{bad}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(newExtractor(t, fakeTagger{}, false, metrics))

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Empty(t, ldr.loaded)
	assert.Zero(t, ldr.calls, "an all-malformed batch is not loaded")
	assert.Equal(t, int64(1), committed.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MalformedRows), 0)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_OutputCountExcludesMalformed(t *testing.T) {
	batch := []domain.RawEvent{
		rawEvent("a", `{"date": "2020-01-05", "source": "met", "forecast": "Cold."}`),
		rawEvent("b", `not json`),
		rawEvent("c", `{"date": "2020-01-06", "source": "met", "forecast": "Wet."}`),
		rawEvent("d", `{"date": "2020-01-07", "forecast": "Dry."}`),
		rawEvent("e", `{"date": "2020-01-08", "source": "met", "forecast": ""}`),
	}
	ext := &mockExtractor{batches: [][]domain.RawEvent{batch}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(newExtractor(t, fakeTagger{}, false, metrics))

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)
	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 3)
	assert.Equal(t, "2020-01-05", ldr.loaded[0].Row.Date)
	assert.Equal(t, "2020-01-06", ldr.loaded[1].Row.Date)
	assert.Equal(t, "2020-01-08", ldr.loaded[2].Row.Date)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MalformedRows), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.MessagesProduced), 0)
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	commitCalled := false

	raw := rawEvent("row-5", validJSON)
	raw.Topic = "raw-forecasts"
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, slog.Default(), newTestMetrics(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.True(t, commitCalled)
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	commitCalled := false

	raw := rawEvent("row-6", validJSON)
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}, {rawEvent("row-7", validJSON)}}}
	ldr := &mockLoader{err: errors.New("broker unavailable")}
	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.GreaterOrEqual(t, ldr.calls, 2, "the same batch is retried")
	assert.Equal(t, int64(1), ext.calls.Load(), "no new batch is read while one is undelivered")
	assert.False(t, commitCalled)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_LoadFailureRetriesSameRows(t *testing.T) {
	var events []string
	ext := &mockExtractor{batches: [][]domain.RawEvent{
		{recordCommit(rawEvent("row-1", validJSON), &events)},
		{recordCommit(rawEvent("row-2", validJSON), &events)},
	}}
	ldr := &mockLoader{failures: 1, events: &events}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), metrics, 10)
	runFor(t, p, 700*time.Millisecond)

	assert.Equal(t, []string{"row-1", "row-2"}, loadedIDs(ldr.loaded), "no row is lost")
	assert.Equal(t, 3, ldr.calls)
	assert.Equal(t, []string{"load", "commit:row-1", "load", "commit:row-2"}, events)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MessagesProduced), 0)
}

func TestPipeline_Run_MalformedCommittedAfterDelivery(t *testing.T) {
	var events []string
	batch := []domain.RawEvent{
		recordCommit(rawEvent("a", validJSON), &events),
		recordCommit(rawEvent("bad", `not json`), &events),
		recordCommit(rawEvent("c", `{"date": "2020-01-06", "source": "met", "forecast": "Wet."}`), &events),
	}
	ext := &mockExtractor{batches: [][]domain.RawEvent{batch}}
	ldr := &mockLoader{failures: 1, events: &events}
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(newExtractor(t, fakeTagger{}, false, metrics))

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)
	runFor(t, p, 600*time.Millisecond)

	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, "2020-01-05", ldr.loaded[0].Row.Date)
	assert.Equal(t, "2020-01-06", ldr.loaded[1].Row.Date)
	assert.Equal(t, []string{"load", "commit:a", "commit:bad", "commit:c"}, events)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MalformedRows), 0)
}

func TestPipeline_Run_CancelledDuringRetryCommitsNothing(t *testing.T) {
	var events []string
	ext := &mockExtractor{batches: [][]domain.RawEvent{{
		recordCommit(rawEvent("a", validJSON), &events),
		recordCommit(rawEvent("bad", `not json`), &events),
	}}}
	ldr := &mockLoader{err: errors.New("broker unavailable"), events: &events}
	tfm := pipeline.NewTransformer(newExtractor(t, fakeTagger{}, false, newTestMetrics()))

	p := pipeline.New(ext, tfm, ldr, slog.Default(), newTestMetrics(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Empty(t, events, "an undelivered batch is replayed, malformed rows included")
}

func TestPipeline_Run_ExtractFailureBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("broker unavailable")}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, slog.Default(), newTestMetrics(), 10)

	runFor(t, p, 500*time.Millisecond)

	// 200ms then 400ms backoff: at most three attempts fit in the window.
	assert.LessOrEqual(t, ext.calls.Load(), int64(3))
	assert.GreaterOrEqual(t, ext.calls.Load(), int64(2))
}

// --- helpers ---

const validJSON = `{"date": "2020-01-05", "source": "met", "forecast": "Today will be cold and wet with frost forming overnight."}`

func rawEvent(key, value string) domain.RawEvent {
	return domain.RawEvent{
		Key:   []byte(key),
		Value: []byte(value),
	}
}
