package domain

import "fmt"

// UnknownSenseError reports a sense identifier that does not resolve in the
// ontology. It is fatal when raised while building concepts.
type UnknownSenseError struct {
	ID string
}

func (e *UnknownSenseError) Error() string {
	return fmt.Sprintf("unknown sense %q", e.ID)
}

// TaggingError reports a tokenizer or tagger failure on one text.
type TaggingError struct {
	Err error
}

func (e *TaggingError) Error() string {
	return fmt.Sprintf("tag forecast text: %v", e.Err)
}

func (e *TaggingError) Unwrap() error { return e.Err }

// MalformedRowError reports an input row that cannot be turned into a
// ForecastRow. Field is empty when the whole payload was unreadable.
type MalformedRowError struct {
	Field string
	Err   error
}

func (e *MalformedRowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed row: %v", e.Err)
	}
	return fmt.Sprintf("malformed row: field %q: %v", e.Field, e.Err)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }
