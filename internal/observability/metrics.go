package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "forecast_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// feature extraction service.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	MalformedRows    prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Scoring metrics.
	TaggingErrors    prometheus.Counter
	DimensionMatches *prometheus.CounterVec // labels: dimension; rows scoring above zero
	NullScores       *prometheus.CounterVec // labels: dimension
	ScoreRequests    *prometheus.CounterVec // labels: outcome={success,malformed}
	ConceptSenses    *prometheus.GaugeVec   // labels: dimension
	LexiconSenses    prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics and registers them with reg. Tools that
// score outside the service pass their own registry.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.MalformedRows,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.TaggingErrors,
		m.DimensionMatches,
		m.NullScores,
		m.ScoreRequests,
		m.ConceptSenses,
		m.LexiconSenses,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total scored rows written to the sink topic.",
		}),
		MalformedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_rows_total",
			Help:      "Total input rows skipped because they could not be parsed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		TaggingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tagging_errors_total",
			Help:      "Total forecasts whose text could not be tagged; emitted with null scores.",
		}),
		DimensionMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dimension_matches_total",
			Help:      "Rows with a score above zero, by dimension.",
		}, []string{"dimension"}),
		NullScores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "null_scores_total",
			Help:      "Null scores emitted, by dimension.",
		}, []string{"dimension"}),
		ScoreRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_requests_total",
			Help:      "On-demand scoring requests by outcome.",
		}, []string{"outcome"}),
		ConceptSenses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "concept_senses",
			Help:      "Number of senses in each dimension's concept.",
		}, []string{"dimension"}),
		LexiconSenses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lexicon_senses",
			Help:      "Number of senses in the loaded lexicon.",
		}),
	}
}
