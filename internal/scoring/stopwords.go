package scoring

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

//go:embed english.txt
var englishStopwords []byte

// Stopwords is a case-insensitive set of words that never count as matches.
type Stopwords map[string]struct{}

// Has reports whether word is a stopword.
func (s Stopwords) Has(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// DefaultStopwords returns the built-in English list.
func DefaultStopwords() Stopwords {
	s, err := parseStopwords(bytes.NewReader(englishStopwords))
	if err != nil {
		panic(fmt.Sprintf("embedded stopwords: %v", err))
	}
	return s
}

// LoadStopwords reads one word per line. Blank lines and lines starting with
// '#' are ignored.
func LoadStopwords(path string) (Stopwords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading stopwords: %w", err)
	}
	defer f.Close()

	s, err := parseStopwords(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s, nil
}

// ResolveStopwords returns the list at path, or the built-in list when path
// is empty. An unreadable list is replaced by an empty set, which means every
// word is scored.
func ResolveStopwords(path string, logger *slog.Logger) Stopwords {
	if path == "" {
		return DefaultStopwords()
	}
	s, err := LoadStopwords(path)
	if err != nil {
		logger.Warn("stopword list unavailable, scoring every word", "path", path, "error", err)
		return Stopwords{}
	}
	return s
}

func parseStopwords(r io.Reader) (Stopwords, error) {
	s := make(Stopwords)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s[strings.ToLower(line)] = struct{}{}
	}
	return s, sc.Err()
}
