package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-forecasts", cfg.KafkaSourceTopic)
	assert.Equal(t, "forecast-features", cfg.KafkaSinkTopic)
	assert.Equal(t, "forecast-features-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, "data/wordnet.db", cfg.LexiconPath)
	assert.Equal(t, 5000, cfg.LexiconCacheSize)
	assert.Empty(t, cfg.ConceptsPath)
	assert.Empty(t, cfg.StopwordsPath)
	assert.Equal(t, "scoped", cfg.ScoringPolicy)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("LEXICON_PATH", "/var/lib/lexicon/wordnet.db")
	t.Setenv("LEXICON_CACHE_SIZE", "250")
	t.Setenv("CONCEPTS_PATH", "/etc/forecast/concepts.yaml")
	t.Setenv("STOPWORDS_PATH", "/etc/forecast/stopwords.txt")
	t.Setenv("SCORING_POLICY", "unscoped")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "/var/lib/lexicon/wordnet.db", cfg.LexiconPath)
	assert.Equal(t, 250, cfg.LexiconCacheSize)
	assert.Equal(t, "/etc/forecast/concepts.yaml", cfg.ConceptsPath)
	assert.Equal(t, "/etc/forecast/stopwords.txt", cfg.StopwordsPath)
	assert.Equal(t, "unscoped", cfg.ScoringPolicy)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_BatchSizeTooLarge(t *testing.T) {
	t.Setenv("BATCH_SIZE", "9999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidLexiconCacheSize(t *testing.T) {
	for _, v := range []string{"0", "-5", "lots"} {
		t.Setenv("LEXICON_CACHE_SIZE", v)
		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "LEXICON_CACHE_SIZE")
	}
}

func TestLoad_InvalidScoringPolicy(t *testing.T) {
	t.Setenv("SCORING_POLICY", "fuzzy")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCORING_POLICY")
}

func TestLoad_EmptyEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("SCORING_POLICY", "")
	t.Setenv("LEXICON_PATH", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "scoped", cfg.ScoringPolicy)
	assert.Equal(t, "data/wordnet.db", cfg.LexiconPath)
}
