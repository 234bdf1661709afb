package pipeline

import (
	"context"

	"github.com/couchcryptid/forecast-features-etl/internal/domain"
)

// ForecastTransformer implements Transformer: it parses a raw message into a
// forecast row and scores it.
type ForecastTransformer struct {
	extractor *FeatureExtractor
}

// NewTransformer creates a ForecastTransformer.
func NewTransformer(extractor *FeatureExtractor) *ForecastTransformer {
	return &ForecastTransformer{extractor: extractor}
}

func (t *ForecastTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.ScoredRow, error) {
	row, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.ScoredRow{}, err
	}
	return t.extractor.Extract(row), nil
}
