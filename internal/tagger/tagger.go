// Package tagger splits forecast text into treebank-style tokens and assigns
// each a Penn Treebank part-of-speech tag and a coarse grammatical role.
package tagger

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/couchcryptid/forecast-features-etl/internal/domain"
	"github.com/jdkato/prose/v2"
)

var errInvalidUTF8 = errors.New("text is not valid UTF-8")

// Tagger produces tagged tokens for a piece of text.
type Tagger interface {
	Tag(text string) ([]domain.TaggedToken, error)
}

// ProseTagger tags text with prose's treebank tokenizer and averaged
// perceptron tagger. It is safe for concurrent use.
type ProseTagger struct{}

// NewProseTagger creates a tagger backed by prose.
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

// Tag tokenizes and tags text. Empty text yields no tokens. Failures inside
// the tagger are reported as *domain.TaggingError.
func (t *ProseTagger) Tag(text string) (tokens []domain.TaggedToken, err error) {
	if !utf8.ValidString(text) {
		return nil, &domain.TaggingError{Err: errInvalidUTF8}
	}
	text = Normalize(text)
	if text == "" {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			tokens = nil
			err = &domain.TaggingError{Err: fmt.Errorf("tagger panic: %v", r)}
		}
	}()

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, &domain.TaggingError{Err: err}
	}

	for _, tok := range doc.Tokens() {
		tokens = append(tokens, domain.TaggedToken{
			Word: tok.Text,
			Tag:  tok.Tag,
			Role: RoleForTag(tok.Tag),
		})
	}
	return tokens, nil
}

// RoleForTag maps a Penn Treebank tag to a role by its first letter:
// N noun, V verb, J adjective, R adverb, anything else other.
func RoleForTag(tag string) domain.Role {
	if tag == "" {
		return domain.RoleOther
	}
	switch tag[0] {
	case 'N':
		return domain.RoleNoun
	case 'V':
		return domain.RoleVerb
	case 'J':
		return domain.RoleAdjective
	case 'R':
		return domain.RoleAdverb
	default:
		return domain.RoleOther
	}
}
