package concept

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/forecast-features-etl/internal/domain"
	"github.com/couchcryptid/forecast-features-etl/internal/lexicon"
)

// ErrRoleMismatch is returned when a seed is listed under a role that its
// part of speech does not map to.
var ErrRoleMismatch = errors.New("seed part of speech does not match its role")

// Resolver resolves seed senses and their hyponym closures.
type Resolver interface {
	Sense(id lexicon.SenseID) (lexicon.Sense, error)
	Closure(seed lexicon.SenseID) (lexicon.SenseSet, error)
}

// Build computes the concept for one dimension. Unscoped concepts are the
// union of every seed's closure. Scoped concepts union closures per role
// group, and reject a seed whose part of speech belongs to another role.
func Build(r Resolver, dim Dimension, scoped bool) (*Concept, error) {
	if !scoped {
		senses := lexicon.NewSenseSet()
		for _, seed := range dim.Seeds.All() {
			set, err := r.Closure(lexicon.SenseID(seed))
			if err != nil {
				return nil, fmt.Errorf("dimension %s: %w", dim.Name, err)
			}
			senses.Union(set)
		}
		return &Concept{name: dim.Name, senses: senses}, nil
	}

	roles := make(map[domain.Role]lexicon.SenseSet)
	for _, role := range domain.ScoredRoles {
		seeds := dim.Seeds.ForRole(role)
		if len(seeds) == 0 {
			continue
		}
		set := lexicon.NewSenseSet()
		for _, seed := range seeds {
			id := lexicon.SenseID(seed)
			sense, err := r.Sense(id)
			if err != nil {
				return nil, fmt.Errorf("dimension %s: %w", dim.Name, err)
			}
			if got := sense.POS.Role(); got != role {
				return nil, fmt.Errorf("dimension %s: %s is a %s sense listed under %s: %w", dim.Name, id, got, role, ErrRoleMismatch)
			}
			closure, err := r.Closure(id)
			if err != nil {
				return nil, fmt.Errorf("dimension %s: %w", dim.Name, err)
			}
			set.Union(closure)
		}
		roles[role] = set
	}
	return NewScopedConcept(dim.Name, roles), nil
}

// BuildAll builds every configured dimension in order. All failures are
// reported together.
func BuildAll(r Resolver, cfg *Config, scoped bool) ([]*Concept, error) {
	concepts := make([]*Concept, 0, len(cfg.Dimensions))
	var errs []error
	for _, dim := range cfg.Dimensions {
		c, err := Build(r, dim, scoped)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		concepts = append(concepts, c)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return concepts, nil
}
