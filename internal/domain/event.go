package domain

import (
	"context"
	"time"
)

// RawForecastRecord is the flat JSON structure produced by the scrapers.
// Pointer fields distinguish an absent key from an empty value.
type RawForecastRecord struct {
	Date     *string `json:"date"`
	Source   *string `json:"source"`
	Forecast *string `json:"forecast"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ForecastRow is a validated input row.
type ForecastRow struct {
	Date     string `json:"date"`
	Source   string `json:"source"`
	Forecast string `json:"forecast"`
}

// TaggedToken is one token of forecast text with its part-of-speech tag.
type TaggedToken struct {
	Word string
	Tag  string
	Role Role
}

// ScoredRow is a forecast row augmented with one score per dimension.
// Dimensions and Scores are parallel slices in configured order.
type ScoredRow struct {
	ID         string
	Row        ForecastRow
	Dimensions []string
	Scores     []Score
	Policy     string
	ScoredAt   time.Time
}

// Record returns the output row: date, source, forecast, then one formatted
// score per dimension.
func (r ScoredRow) Record() []string {
	out := make([]string, 0, 3+len(r.Scores))
	out = append(out, r.Row.Date, r.Row.Source, r.Row.Forecast)
	for _, s := range r.Scores {
		out = append(out, s.String())
	}
	return out
}

// Header returns the column names matching Record.
func (r ScoredRow) Header() []string {
	out := make([]string, 0, 3+len(r.Dimensions))
	out = append(out, "date", "source", "forecast")
	return append(out, r.Dimensions...)
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
