// Package concept builds weather dimensions as closed sets of word senses:
// every configured seed sense plus all of its more specific senses.
package concept

import (
	"github.com/couchcryptid/forecast-features-etl/internal/domain"
	"github.com/couchcryptid/forecast-features-etl/internal/lexicon"
)

// Concept is the sense set of one weather dimension. A scoped concept also
// keeps one set per grammatical role. Concepts are immutable once built;
// callers must not modify the sets they return.
type Concept struct {
	name   string
	senses lexicon.SenseSet
	roles  map[domain.Role]lexicon.SenseSet
}

// NewConcept creates an unscoped concept from a flat sense set.
func NewConcept(name string, senses lexicon.SenseSet) *Concept {
	return &Concept{name: name, senses: senses.Clone()}
}

// NewScopedConcept creates a concept partitioned by role. The flat set is the
// union of the role sets.
func NewScopedConcept(name string, roles map[domain.Role]lexicon.SenseSet) *Concept {
	c := &Concept{
		name:   name,
		senses: lexicon.NewSenseSet(),
		roles:  make(map[domain.Role]lexicon.SenseSet, len(roles)),
	}
	for r, set := range roles {
		c.roles[r] = set.Clone()
		c.senses.Union(set)
	}
	return c
}

func (c *Concept) Name() string { return c.name }

// Scoped reports whether the concept is partitioned by role.
func (c *Concept) Scoped() bool { return c.roles != nil }

// Senses returns the flat sense set.
func (c *Concept) Senses() lexicon.SenseSet { return c.senses }

// ForRole returns the senses a token of the given role may match. Unscoped
// concepts answer with the flat set for every role.
func (c *Concept) ForRole(role domain.Role) lexicon.SenseSet {
	if c.roles == nil {
		return c.senses
	}
	if set, ok := c.roles[role]; ok {
		return set
	}
	return lexicon.SenseSet{}
}
