// Command lexdb imports a WordNet 3.0 database directory (index.*, data.*
// and *.exc files) into the SQLite lexicon read by the ETL service.
//
// Usage:
//
//	go run ./cmd/lexdb \
//	  -wordnet-dir /usr/share/wordnet/dict \
//	  -out data/wordnet.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/forecast-features-etl/internal/lexicon"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	wordnetDir := flag.String("wordnet-dir", "", "directory containing the WordNet database files")
	out := flag.String("out", "", "output path for the SQLite lexicon")
	flag.Parse()

	if *wordnetDir == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -wordnet-dir, -out")
	}

	start := time.Now()
	data, err := lexicon.ReadWordNet(*wordnetDir)
	if err != nil {
		return fmt.Errorf("reading wordnet: %w", err)
	}
	log.Printf("read %d senses, %d hyponym edges, %d lemmas, %d exceptions",
		len(data.Senses), len(data.Hyponyms), len(data.Lemmas), len(data.Exceptions))

	// Refuse to write a lexicon the service could not load.
	if _, err := lexicon.New(data); err != nil {
		return fmt.Errorf("validating wordnet: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := lexicon.WriteSQLite(context.Background(), *out, data); err != nil {
		return fmt.Errorf("writing lexicon: %w", err)
	}
	log.Printf("wrote lexicon: %s (%s)", *out, time.Since(start).Round(time.Millisecond))
	return nil
}
