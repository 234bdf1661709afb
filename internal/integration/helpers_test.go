//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/forecast-features-etl/internal/concept"
	"github.com/couchcryptid/forecast-features-etl/internal/lexicon"
	"github.com/couchcryptid/forecast-features-etl/internal/observability"
	"github.com/couchcryptid/forecast-features-etl/internal/pipeline"
	"github.com/couchcryptid/forecast-features-etl/internal/scoring"
	"github.com/couchcryptid/forecast-features-etl/internal/tagger"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("forecast-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// loadMockData reads the forecast fixture as raw JSON objects.
func loadMockData(t *testing.T) []map[string]string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "forecasts_200105.json"))
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(data, &rows))
	return rows
}

// writeLexicon stores a small weather ontology in a SQLite file and returns
// its path.
func writeLexicon(t *testing.T) string {
	t.Helper()

	ids := []lexicon.SenseID{
		"cold.a.01", "coldness.n.03", "frost.n.01", "hoarfrost.n.01",
		"wet.a.01", "dry.a.01",
	}
	data := lexicon.Data{
		Hyponyms: []lexicon.Edge{
			{Parent: "coldness.n.03", Child: "frost.n.01"},
			{Parent: "frost.n.01", Child: "hoarfrost.n.01"},
		},
	}
	for _, id := range ids {
		lemma, pos, n, err := id.Parse()
		require.NoError(t, err)
		data.Senses = append(data.Senses, lexicon.Sense{ID: id, Lemma: lemma, POS: pos, Number: n})
		data.Lemmas = append(data.Lemmas, lexicon.LemmaEntry{Lemma: lemma, POS: pos.Index(), Senses: []lexicon.SenseID{id}})
	}

	path := filepath.Join(t.TempDir(), "wordnet.db")
	require.NoError(t, lexicon.WriteSQLite(context.Background(), path, data))
	return path
}

var testDimensions = &concept.Config{
	Version: concept.ConfigVersion,
	Dimensions: []concept.Dimension{
		{Name: "COLD", Seeds: concept.Seeds{Noun: []string{"coldness.n.03"}, Adjective: []string{"cold.a.01"}}},
		{Name: "WET", Seeds: concept.Seeds{Adjective: []string{"wet.a.01"}}},
		{Name: "DRY", Seeds: concept.Seeds{Adjective: []string{"dry.a.01"}}},
	},
}

// newTransformer loads the SQLite lexicon and wires the unscoped scorer.
func newTransformer(t *testing.T, metrics *observability.Metrics) *pipeline.ForecastTransformer {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ont, err := lexicon.OpenSQLite(ctx, writeLexicon(t))
	require.NoError(t, err)

	concepts, err := concept.BuildAll(ont, testDimensions, false)
	require.NoError(t, err)

	logger := discardLogger()
	policy := scoring.NewUnscoped(lexicon.NewCachedLookup(ont, 100), scoring.DefaultStopwords(), logger)
	extractor := pipeline.NewFeatureExtractor(tagger.NewProseTagger(), policy, concepts, logger, metrics)
	return pipeline.NewTransformer(extractor)
}
