package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Scoring engine configuration.
	LexiconPath      string
	LexiconCacheSize int
	ConceptsPath     string // empty selects the built-in dimensions
	StopwordsPath    string // empty selects the built-in English list
	ScoringPolicy    string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseLexiconCacheSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-forecasts"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "forecast-features"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "forecast-features-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		LexiconPath:      sharedcfg.EnvOrDefault("LEXICON_PATH", "data/wordnet.db"),
		LexiconCacheSize: cacheSize,
		ConceptsPath:     os.Getenv("CONCEPTS_PATH"),
		StopwordsPath:    os.Getenv("STOPWORDS_PATH"),
		ScoringPolicy:    sharedcfg.EnvOrDefault("SCORING_POLICY", "scoped"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.LexiconPath == "" {
		return nil, errors.New("LEXICON_PATH is required")
	}
	if cfg.ScoringPolicy != "scoped" && cfg.ScoringPolicy != "unscoped" {
		return nil, fmt.Errorf("invalid SCORING_POLICY %q (want scoped or unscoped)", cfg.ScoringPolicy)
	}

	return cfg, nil
}

func parseLexiconCacheSize() (int, error) {
	s := os.Getenv("LEXICON_CACHE_SIZE")
	if s == "" {
		return 5000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid LEXICON_CACHE_SIZE")
	}
	return n, nil
}
