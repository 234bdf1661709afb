package domain

import "strconv"

// Score is a per-dimension similarity score. An invalid Score is null.
type Score struct {
	Value float64
	Valid bool
}

// NullScore is the "no score" value.
var NullScore = Score{}

// NewScore returns a valid score.
func NewScore(v float64) Score {
	return Score{Value: v, Valid: true}
}

// String formats the score with exactly two decimals, or "" when null.
func (s Score) String() string {
	if !s.Valid {
		return ""
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}
