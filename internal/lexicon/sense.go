package lexicon

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/forecast-features-etl/internal/domain"
)

// POS is a WordNet part-of-speech letter.
type POS byte

const (
	Noun         POS = 'n'
	Verb         POS = 'v'
	Adjective    POS = 'a'
	AdjectiveSat POS = 's' // adjective satellite, indexed with Adjective
	Adverb       POS = 'r'
)

// indexPOS are the parts of speech that own a lemma index, in lookup order.
var indexPOS = []POS{Noun, Verb, Adjective, Adverb}

// ParsePOS validates a part-of-speech letter.
func ParsePOS(s string) (POS, error) {
	if len(s) == 1 {
		switch p := POS(s[0]); p {
		case Noun, Verb, Adjective, AdjectiveSat, Adverb:
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown part of speech %q", s)
}

func (p POS) String() string { return string(rune(p)) }

// Index returns the part of speech whose lemma index lists senses of p.
func (p POS) Index() POS {
	if p == AdjectiveSat {
		return Adjective
	}
	return p
}

// Role maps the part of speech to a grammatical role.
func (p POS) Role() domain.Role {
	switch p {
	case Noun:
		return domain.RoleNoun
	case Verb:
		return domain.RoleVerb
	case Adjective, AdjectiveSat:
		return domain.RoleAdjective
	case Adverb:
		return domain.RoleAdverb
	default:
		return domain.RoleOther
	}
}

// SenseID is a stable sense key of the form lemma.pos.NN, e.g. "cold.a.01".
type SenseID string

// NewSenseID formats a sense key.
func NewSenseID(lemma string, pos POS, number int) SenseID {
	return SenseID(fmt.Sprintf("%s.%s.%02d", lemma, pos, number))
}

// Parse splits the key into its lemma, part of speech and sense number.
// The lemma may itself contain dots.
func (id SenseID) Parse() (lemma string, pos POS, number int, err error) {
	s := string(id)
	last := strings.LastIndexByte(s, '.')
	if last <= 0 {
		return "", 0, 0, fmt.Errorf("sense key %q: want lemma.pos.NN", s)
	}
	mid := strings.LastIndexByte(s[:last], '.')
	if mid <= 0 {
		return "", 0, 0, fmt.Errorf("sense key %q: want lemma.pos.NN", s)
	}
	pos, err = ParsePOS(s[mid+1 : last])
	if err != nil {
		return "", 0, 0, fmt.Errorf("sense key %q: %w", s, err)
	}
	number, err = strconv.Atoi(s[last+1:])
	if err != nil || number < 1 {
		return "", 0, 0, fmt.Errorf("sense key %q: bad sense number", s)
	}
	return s[:mid], pos, number, nil
}

// Sense is one disambiguated meaning in the ontology.
type Sense struct {
	ID     SenseID
	Lemma  string
	POS    POS
	Number int
	Gloss  string
}

// SenseSet is a set of sense keys.
type SenseSet map[SenseID]struct{}

// NewSenseSet builds a set from the given keys.
func NewSenseSet(ids ...SenseID) SenseSet {
	s := make(SenseSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s SenseSet) Add(id SenseID) { s[id] = struct{}{} }

func (s SenseSet) Has(id SenseID) bool {
	_, ok := s[id]
	return ok
}

// Union adds every member of other to s.
func (s SenseSet) Union(other SenseSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Intersection returns the members of ids found in s, in the order given.
func (s SenseSet) Intersection(ids []SenseID) []SenseID {
	var out []SenseID
	for _, id := range ids {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

func (s SenseSet) Clone() SenseSet {
	out := make(SenseSet, len(s))
	out.Union(s)
	return out
}

// Sorted returns the members in lexical order.
func (s SenseSet) Sorted() []SenseID {
	out := make([]SenseID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
