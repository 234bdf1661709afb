// Command validate checks that a lexicon database and a dimension
// configuration agree: every seed sense resolves, scoped seeds match their
// role, and each dimension's closure is non-trivial. Given a sample CSV of
// forecasts it also scores every row under both policies and prints them.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -lexicon data/wordnet.db \
//	  -concepts internal/concept/concepts.yaml \
//	  -forecasts data/mock/forecasts_200105.csv
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/forecast-features-etl/internal/concept"
	"github.com/couchcryptid/forecast-features-etl/internal/domain"
	"github.com/couchcryptid/forecast-features-etl/internal/lexicon"
	"github.com/couchcryptid/forecast-features-etl/internal/observability"
	"github.com/couchcryptid/forecast-features-etl/internal/pipeline"
	"github.com/couchcryptid/forecast-features-etl/internal/scoring"
	"github.com/couchcryptid/forecast-features-etl/internal/tagger"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	lexiconPath := flag.String("lexicon", "data/wordnet.db", "path to the SQLite lexicon")
	conceptsPath := flag.String("concepts", "", "dimension configuration (empty selects the built-in one)")
	forecastsPath := flag.String("forecasts", "", "optional CSV of date,source,forecast rows to score")
	flag.Parse()

	os.Exit(run(*lexiconPath, *conceptsPath, *forecastsPath))
}

func run(lexiconPath, conceptsPath, forecastsPath string) int {
	// Fixed clock so repeated runs print identical rows.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2020, time.January, 5, 6, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Forecast Concept Validation ===")
	fmt.Println()

	ont, err := lexicon.OpenSQLite(context.Background(), lexiconPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load lexicon: %v\n", err)
		return 1
	}
	fmt.Printf("Lexicon: %d senses\n", ont.Len())

	cfg, err := concept.LoadConfig(conceptsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load concepts: %v\n", err)
		return 1
	}

	unscoped, unscopedPhase := validateBuild("Phase 1: Unscoped concepts", ont, cfg, false)
	scoped, scopedPhase := validateBuild("Phase 2: Scoped concepts", ont, cfg, true)
	phases := []*phase{unscopedPhase, scopedPhase}

	if forecastsPath != "" && unscopedPhase.passed() && scopedPhase.passed() {
		phases = append(phases, scoreSample(forecastsPath, ont, unscoped, scoped))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateBuild builds every dimension and reports closure sizes. A closure
// no larger than its seed list is flagged: the seeds are all leaf senses.
func validateBuild(name string, ont *lexicon.Ontology, cfg *concept.Config, scoped bool) ([]*concept.Concept, *phase) {
	p := &phase{name: name}
	fmt.Printf("\n%s\n", name)

	concepts := make([]*concept.Concept, 0, len(cfg.Dimensions))
	for _, dim := range cfg.Dimensions {
		c, err := concept.Build(ont, dim, scoped)
		if err != nil {
			p.errorf("%s: %v", dim.Name, err)
			continue
		}
		concepts = append(concepts, c)

		fmt.Printf("  %-8s seeds=%-3d senses=%d", dim.Name, len(dim.Seeds.All()), len(c.Senses()))
		if scoped {
			for _, role := range domain.ScoredRoles {
				fmt.Printf(" %s=%d", role, len(c.ForRole(role)))
			}
		}
		if len(c.Senses()) <= len(dim.Seeds.All()) {
			fmt.Print("  (leaf seeds only)")
		}
		fmt.Println()
	}
	return concepts, p
}

// scoreSample scores every row of a forecast CSV under both policies and
// writes the scored records to stdout.
func scoreSample(path string, ont *lexicon.Ontology, unscoped, scoped []*concept.Concept) *phase {
	p := &phase{name: "Phase 3: Sample scoring"}

	f, err := os.Open(path)
	if err != nil {
		p.errorf("open forecasts: %v", err)
		return p
	}
	defer f.Close()

	rows, skipped, err := loadForecasts(f)
	if err != nil {
		p.errorf("load forecasts: %v", err)
		return p
	}
	for _, msg := range skipped {
		fmt.Fprintf(os.Stderr, "WARN: skipping malformed row, %s\n", msg)
	}
	fmt.Printf("\nForecasts: %d rows, %d malformed skipped\n", len(rows), len(skipped))
	if len(rows) == 0 {
		p.errorf("no well-formed rows in %s", path)
		return p
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lookup := lexicon.NewCachedLookup(ont, 1000)
	stopwords := scoring.DefaultStopwords()
	tg := tagger.NewProseTagger()
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	extractors := []*pipeline.FeatureExtractor{
		pipeline.NewFeatureExtractor(tg, scoring.NewUnscoped(lookup, stopwords, logger), unscoped, logger, metrics),
		pipeline.NewFeatureExtractor(tg, scoring.NewScoped(lookup, stopwords, logger), scoped, logger, metrics),
	}

	for _, e := range extractors {
		scored := e.ExtractAll(rows)
		if len(scored) == 0 {
			continue
		}
		fmt.Printf("\n%s\n", scored[0].Policy)

		w := csv.NewWriter(os.Stdout)
		_ = w.Write(scored[0].Header())
		for i, r := range scored {
			if got, want := len(r.Record()), 3+len(e.Dimensions()); got != want {
				p.errorf("%s row %d: %d columns, want %d", r.Policy, i+1, got, want)
			}
			_ = w.Write(r.Record())
		}
		w.Flush()
		if err := w.Error(); err != nil {
			p.errorf("write rows: %v", err)
		}
	}
	return p
}

// loadForecasts reads a date,source,forecast CSV. Records that cannot be
// read or lack a required field are skipped; each skip is returned as a
// message naming its line.
func loadForecasts(r io.Reader) ([]domain.ForecastRow, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var rows []domain.ForecastRow
	var skipped []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skipped = append(skipped, fmt.Sprintf("line %d: %v", parseErr.StartLine, parseErr.Err))
			continue
		}
		if err != nil {
			return rows, skipped, err
		}

		row, err := domain.RowFromRecord(header, rec)
		var malformed *domain.MalformedRowError
		if errors.As(err, &malformed) {
			line, _ := cr.FieldPos(0)
			skipped = append(skipped, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if err != nil {
			return rows, skipped, err
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}
