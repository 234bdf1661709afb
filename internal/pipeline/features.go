package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/forecast-features-etl/internal/concept"
	"github.com/couchcryptid/forecast-features-etl/internal/domain"
	"github.com/couchcryptid/forecast-features-etl/internal/observability"
	"github.com/couchcryptid/forecast-features-etl/internal/scoring"
	"github.com/couchcryptid/forecast-features-etl/internal/tagger"
)

// FeatureExtractor tags a forecast once and scores it against every concept
// in configured order. It is safe for concurrent use.
type FeatureExtractor struct {
	tagger     tagger.Tagger
	policy     scoring.Policy
	concepts   []*concept.Concept
	dimensions []string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewFeatureExtractor creates an extractor over concepts, which must be
// built for the policy's scoping.
func NewFeatureExtractor(t tagger.Tagger, p scoring.Policy, concepts []*concept.Concept, logger *slog.Logger, metrics *observability.Metrics) *FeatureExtractor {
	dims := make([]string, len(concepts))
	for i, c := range concepts {
		dims[i] = c.Name()
	}
	return &FeatureExtractor{
		tagger:     t,
		policy:     p,
		concepts:   concepts,
		dimensions: dims,
		logger:     logger,
		metrics:    metrics,
	}
}

// Dimensions returns the score column names in output order.
func (e *FeatureExtractor) Dimensions() []string {
	return append([]string(nil), e.dimensions...)
}

// Extract scores one row. If the text cannot be tagged every score is null
// and the row is still returned.
func (e *FeatureExtractor) Extract(row domain.ForecastRow) domain.ScoredRow {
	scores := make([]domain.Score, len(e.concepts))

	tokens, err := e.tagger.Tag(row.Forecast)
	if err != nil {
		e.logger.Warn("tagging failed, emitting null scores",
			"error", err,
			"date", row.Date,
			"source", row.Source,
		)
		e.metrics.TaggingErrors.Inc()
		for i := range scores {
			scores[i] = domain.NullScore
		}
	} else {
		for i, c := range e.concepts {
			scores[i] = e.policy.Score(tokens, c)
		}
	}

	for i, s := range scores {
		switch {
		case !s.Valid:
			e.metrics.NullScores.WithLabelValues(e.dimensions[i]).Inc()
		case s.Value > 0:
			e.metrics.DimensionMatches.WithLabelValues(e.dimensions[i]).Inc()
		}
	}

	return domain.NewScoredRow(row, e.policy.Name(), e.Dimensions(), scores)
}

// ExtractAll scores rows in order; the i-th output belongs to the i-th input.
func (e *FeatureExtractor) ExtractAll(rows []domain.ForecastRow) []domain.ScoredRow {
	out := make([]domain.ScoredRow, len(rows))
	for i, row := range rows {
		out[i] = e.Extract(row)
	}
	return out
}
