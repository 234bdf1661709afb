// Package scoring measures how strongly tagged text matches a concept.
//
// Two policies are available. Unscoped counts every non-stopword token whose
// senses meet the concept. Scoped counts grammatical roles: a role scores one
// point when any of its tokens meets the concept's senses for that role.
package scoring

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/forecast-features-etl/internal/concept"
	"github.com/couchcryptid/forecast-features-etl/internal/domain"
	"github.com/couchcryptid/forecast-features-etl/internal/lexicon"
)

// Policy names.
const (
	PolicyScoped   = "scoped"
	PolicyUnscoped = "unscoped"
)

// Policy scores a token sequence against one concept.
type Policy interface {
	Name() string
	Scoped() bool
	Score(tokens []domain.TaggedToken, c *concept.Concept) domain.Score
}

// NewPolicy returns the named policy. An empty name selects the scoped policy.
func NewPolicy(name string, lookup lexicon.Lookup, stopwords Stopwords, logger *slog.Logger) (Policy, error) {
	switch name {
	case PolicyScoped, "":
		return NewScoped(lookup, stopwords, logger), nil
	case PolicyUnscoped:
		return NewUnscoped(lookup, stopwords, logger), nil
	default:
		return nil, fmt.Errorf("unknown scoring policy %q (want %s or %s)", name, PolicyScoped, PolicyUnscoped)
	}
}

// Unscoped scores one point per non-stopword token with a sense in the
// concept. It never returns a null score.
type Unscoped struct {
	lookup    lexicon.Lookup
	stopwords Stopwords
	logger    *slog.Logger
}

func NewUnscoped(lookup lexicon.Lookup, stopwords Stopwords, logger *slog.Logger) *Unscoped {
	return &Unscoped{lookup: lookup, stopwords: stopwords, logger: logger}
}

func (p *Unscoped) Name() string { return PolicyUnscoped }

func (p *Unscoped) Scoped() bool { return false }

func (p *Unscoped) Score(tokens []domain.TaggedToken, c *concept.Concept) domain.Score {
	senses := c.Senses()
	total := 0.0
	for _, tok := range tokens {
		if p.stopwords.Has(tok.Word) {
			continue
		}
		match := senses.Intersection(p.lookup.SensesOf(tok.Word))
		if len(match) == 0 {
			continue
		}
		p.logger.Debug("matched word", "dimension", c.Name(), "word", tok.Word, "senses", match)
		total++
	}
	return domain.NewScore(total)
}

// Scoped scores one point per grammatical role with at least one matching
// token, looking only at the concept's senses for that role. The score is
// null when no non-stopword token has a scored role.
type Scoped struct {
	lookup    lexicon.Lookup
	stopwords Stopwords
	logger    *slog.Logger
}

func NewScoped(lookup lexicon.Lookup, stopwords Stopwords, logger *slog.Logger) *Scoped {
	return &Scoped{lookup: lookup, stopwords: stopwords, logger: logger}
}

func (p *Scoped) Name() string { return PolicyScoped }

func (p *Scoped) Scoped() bool { return true }

func (p *Scoped) Score(tokens []domain.TaggedToken, c *concept.Concept) domain.Score {
	taggable := false
	matched := make(map[domain.Role]bool, len(domain.ScoredRoles))
	for _, tok := range tokens {
		if !tok.Role.Scored() || p.stopwords.Has(tok.Word) {
			continue
		}
		taggable = true
		if matched[tok.Role] {
			continue
		}
		match := c.ForRole(tok.Role).Intersection(p.lookup.SensesOf(tok.Word))
		if len(match) == 0 {
			continue
		}
		p.logger.Debug("matched word", "dimension", c.Name(), "role", tok.Role, "word", tok.Word, "senses", match)
		matched[tok.Role] = true
	}
	if !taggable {
		return domain.NullScore
	}
	return domain.NewScore(float64(len(matched)))
}
