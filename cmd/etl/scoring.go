package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/forecast-features-etl/internal/concept"
	"github.com/couchcryptid/forecast-features-etl/internal/config"
	"github.com/couchcryptid/forecast-features-etl/internal/lexicon"
	"github.com/couchcryptid/forecast-features-etl/internal/observability"
	"github.com/couchcryptid/forecast-features-etl/internal/pipeline"
	"github.com/couchcryptid/forecast-features-etl/internal/scoring"
	"github.com/couchcryptid/forecast-features-etl/internal/tagger"
)

// buildExtractor loads the lexicon, builds every configured dimension for the
// selected policy, and assembles the feature extractor. Any unknown seed
// sense or role mismatch fails startup.
func buildExtractor(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.FeatureExtractor, error) {
	ont, err := lexicon.OpenSQLite(ctx, cfg.LexiconPath)
	if err != nil {
		return nil, err
	}
	metrics.LexiconSenses.Set(float64(ont.Len()))
	logger.Info("lexicon loaded", "path", cfg.LexiconPath, "senses", ont.Len())

	stopwords := scoring.ResolveStopwords(cfg.StopwordsPath, logger)
	lookup := lexicon.NewCachedLookup(ont, cfg.LexiconCacheSize)

	policy, err := scoring.NewPolicy(cfg.ScoringPolicy, lookup, stopwords, logger)
	if err != nil {
		return nil, err
	}

	dims, err := concept.LoadConfig(cfg.ConceptsPath)
	if err != nil {
		return nil, err
	}
	concepts, err := concept.BuildAll(ont, dims, policy.Scoped())
	if err != nil {
		return nil, fmt.Errorf("build concepts: %w", err)
	}
	for _, c := range concepts {
		metrics.ConceptSenses.WithLabelValues(c.Name()).Set(float64(len(c.Senses())))
		logger.Info("concept built", "dimension", c.Name(), "senses", len(c.Senses()))
	}

	logger.Info("scoring engine ready",
		"policy", policy.Name(),
		"dimensions", dims.Names(),
		"stopwords", len(stopwords),
		"cache_size", cfg.LexiconCacheSize,
	)
	return pipeline.NewFeatureExtractor(tagger.NewProseTagger(), policy, concepts, logger, metrics), nil
}
