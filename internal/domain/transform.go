package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// rowNamespace seeds the name-based row IDs. Changing it changes every ID.
var rowNamespace = uuid.MustParse("6f1c2d0e-5b7a-4e43-9a51-3c1f0de8a2b4")

var errMissingField = errors.New("missing required field")

// ParseRawEvent deserializes a RawEvent's value into a ForecastRow.
// It expects the flat JSON produced by the scrapers.
func ParseRawEvent(raw RawEvent) (ForecastRow, error) {
	var rec RawForecastRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return ForecastRow{}, &MalformedRowError{Err: fmt.Errorf("parse raw event: %w", err)}
	}
	return rowFromRecord(rec)
}

func rowFromRecord(rec RawForecastRecord) (ForecastRow, error) {
	switch {
	case rec.Date == nil:
		return ForecastRow{}, &MalformedRowError{Field: "date", Err: errMissingField}
	case rec.Source == nil:
		return ForecastRow{}, &MalformedRowError{Field: "source", Err: errMissingField}
	case rec.Forecast == nil:
		return ForecastRow{}, &MalformedRowError{Field: "forecast", Err: errMissingField}
	}
	return ForecastRow{Date: *rec.Date, Source: *rec.Source, Forecast: *rec.Forecast}, nil
}

// RowFromRecord builds a ForecastRow from a tabular record using its header.
// Columns other than date, source and forecast are ignored. When a header
// name repeats, the first occurrence wins.
func RowFromRecord(header, record []string) (ForecastRow, error) {
	var rec RawForecastRecord
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		if seen[name] {
			continue
		}
		seen[name] = true
		if i >= len(record) {
			continue
		}
		v := record[i]
		switch name {
		case "date":
			rec.Date = &v
		case "source":
			rec.Source = &v
		case "forecast":
			rec.Forecast = &v
		}
	}
	return rowFromRecord(rec)
}

// generateID produces a deterministic ID from the row's fields.
// Reprocessing the same row produces the same ID.
func generateID(row ForecastRow) string {
	name := row.Date + "|" + row.Source + "|" + row.Forecast
	return uuid.NewSHA1(rowNamespace, []byte(name)).String()
}

// NewScoredRow assembles a scored row and assigns its ID.
func NewScoredRow(row ForecastRow, policy string, dimensions []string, scores []Score) ScoredRow {
	return ScoredRow{
		ID:         generateID(row),
		Row:        row,
		Dimensions: dimensions,
		Scores:     scores,
		Policy:     policy,
		ScoredAt:   clock.Now(),
	}
}

// ScoredRowPayload is the JSON form of a ScoredRow on the sink topic and the
// HTTP API.
type ScoredRowPayload struct {
	ID       string           `json:"id"`
	Date     string           `json:"date"`
	Source   string           `json:"source"`
	Forecast string           `json:"forecast"`
	Policy   string           `json:"policy"`
	Scores   []DimensionScore `json:"scores"`
	Record   []string         `json:"record"`
	ScoredAt time.Time        `json:"scored_at"`
}

// DimensionScore pairs a dimension name with its formatted score.
type DimensionScore struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
}

// Payload converts the row to its JSON form.
func (r ScoredRow) Payload() ScoredRowPayload {
	scores := make([]DimensionScore, len(r.Scores))
	for i, s := range r.Scores {
		scores[i] = DimensionScore{Dimension: r.Dimensions[i], Value: s.String()}
	}
	return ScoredRowPayload{
		ID:       r.ID,
		Date:     r.Row.Date,
		Source:   r.Row.Source,
		Forecast: r.Row.Forecast,
		Policy:   r.Policy,
		Scores:   scores,
		Record:   r.Record(),
		ScoredAt: r.ScoredAt,
	}
}

// SerializeScoredRow marshals a scored row into an OutputEvent keyed by row ID.
func SerializeScoredRow(r ScoredRow) (OutputEvent, error) {
	data, err := json.Marshal(r.Payload())
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize scored row: %w", err)
	}
	return OutputEvent{
		Key:   []byte(r.ID),
		Value: data,
		Headers: map[string]string{
			"policy":    r.Policy,
			"scored_at": r.ScoredAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
