// Package lexicon is a read-only lexical ontology of word senses: the
// hyponym ("more specific than") relation between senses and the index from
// word forms to senses. Data comes from WordNet via ReadWordNet and is
// persisted in SQLite.
package lexicon

import (
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/forecast-features-etl/internal/domain"
)

// Edge links a sense to one of its direct hyponyms.
type Edge struct {
	Parent SenseID
	Child  SenseID
}

// LemmaEntry lists the senses of one lemma for one indexed part of speech,
// most frequent first.
type LemmaEntry struct {
	Lemma  string
	POS    POS
	Senses []SenseID
}

// Exception maps an irregular inflected form to its base forms.
type Exception struct {
	POS   POS
	Form  string
	Bases []string
}

// Data is the raw content of an ontology.
type Data struct {
	Senses     []Sense
	Hyponyms   []Edge
	Lemmas     []LemmaEntry
	Exceptions []Exception
}

// Lookup maps a surface word to every sense the ontology associates with it.
type Lookup interface {
	SensesOf(word string) []SenseID
}

// Ontology is an immutable in-memory ontology. Closures are memoized; it is
// safe for concurrent use.
type Ontology struct {
	senses     map[SenseID]Sense
	hyponyms   map[SenseID][]SenseID
	index      map[POS]map[string][]SenseID
	exceptions map[POS]map[string][]string

	mu       sync.Mutex
	closures map[SenseID]SenseSet
}

// New validates data and builds an Ontology from it.
func New(data Data) (*Ontology, error) {
	o := &Ontology{
		senses:     make(map[SenseID]Sense, len(data.Senses)),
		hyponyms:   make(map[SenseID][]SenseID),
		index:      make(map[POS]map[string][]SenseID, len(indexPOS)),
		exceptions: make(map[POS]map[string][]string, len(indexPOS)),
		closures:   make(map[SenseID]SenseSet),
	}
	for _, p := range indexPOS {
		o.index[p] = make(map[string][]SenseID)
		o.exceptions[p] = make(map[string][]string)
	}

	for _, s := range data.Senses {
		if _, dup := o.senses[s.ID]; dup {
			return nil, fmt.Errorf("duplicate sense %q", s.ID)
		}
		o.senses[s.ID] = s
	}
	for _, e := range data.Hyponyms {
		if _, ok := o.senses[e.Parent]; !ok {
			return nil, fmt.Errorf("hyponym edge %s -> %s: %w", e.Parent, e.Child, &domain.UnknownSenseError{ID: string(e.Parent)})
		}
		if _, ok := o.senses[e.Child]; !ok {
			return nil, fmt.Errorf("hyponym edge %s -> %s: %w", e.Parent, e.Child, &domain.UnknownSenseError{ID: string(e.Child)})
		}
		o.hyponyms[e.Parent] = append(o.hyponyms[e.Parent], e.Child)
	}
	for _, l := range data.Lemmas {
		idx, ok := o.index[l.POS.Index()]
		if !ok {
			return nil, fmt.Errorf("lemma %q: unknown part of speech %q", l.Lemma, l.POS)
		}
		for _, id := range l.Senses {
			if _, ok := o.senses[id]; !ok {
				return nil, fmt.Errorf("lemma %q: %w", l.Lemma, &domain.UnknownSenseError{ID: string(id)})
			}
		}
		key := normalizeWord(l.Lemma)
		idx[key] = append(idx[key], l.Senses...)
	}
	for _, x := range data.Exceptions {
		exc, ok := o.exceptions[x.POS.Index()]
		if !ok {
			return nil, fmt.Errorf("exception %q: unknown part of speech %q", x.Form, x.POS)
		}
		exc[x.Form] = append(exc[x.Form], x.Bases...)
	}
	return o, nil
}

// Len returns the number of senses.
func (o *Ontology) Len() int { return len(o.senses) }

// Sense resolves a sense key.
func (o *Ontology) Sense(id SenseID) (Sense, error) {
	s, ok := o.senses[id]
	if !ok {
		return Sense{}, &domain.UnknownSenseError{ID: string(id)}
	}
	return s, nil
}

// Closure returns the seed and every sense reachable from it through the
// hyponym relation, at any depth. The result is a copy the caller may modify.
func (o *Ontology) Closure(seed SenseID) (SenseSet, error) {
	if _, ok := o.senses[seed]; !ok {
		return nil, &domain.UnknownSenseError{ID: string(seed)}
	}

	o.mu.Lock()
	cached, ok := o.closures[seed]
	o.mu.Unlock()
	if ok {
		return cached.Clone(), nil
	}

	set := o.walk(seed)

	o.mu.Lock()
	o.closures[seed] = set
	o.mu.Unlock()
	return set.Clone(), nil
}

// walk collects the hyponym closure with an explicit work list. The visited
// set bounds the walk on shared descendants and on cycles.
func (o *Ontology) walk(seed SenseID) SenseSet {
	visited := NewSenseSet(seed)
	work := []SenseID{seed}
	for len(work) > 0 {
		last := len(work) - 1
		id := work[last]
		work = work[:last]
		for _, child := range o.hyponyms[id] {
			if visited.Has(child) {
				continue
			}
			visited.Add(child)
			work = append(work, child)
		}
	}
	return visited
}

// SensesOf returns the senses of every base form of word across all parts
// of speech. Lookup is case-insensitive and ignores grammatical role.
func (o *Ontology) SensesOf(word string) []SenseID {
	word = normalizeWord(word)
	if word == "" {
		return nil
	}

	var out []SenseID
	seen := make(SenseSet)
	for _, pos := range indexPOS {
		for _, form := range o.morphy(word, pos) {
			for _, id := range o.index[pos][form] {
				if seen.Has(id) {
					continue
				}
				seen.Add(id)
				out = append(out, id)
			}
		}
	}
	return out
}

func normalizeWord(w string) string {
	w = strings.ToLower(strings.TrimSpace(w))
	return strings.ReplaceAll(w, " ", "_")
}
