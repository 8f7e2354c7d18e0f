package extract

import (
	"fmt"
	"strings"
)

// Cardinality says how many matches a query expects and whether absence is an error.
type Cardinality string

// All cardinalities supported.
const (
	SingleRequired   Cardinality = "single-required"
	SingleOptional   Cardinality = "single-optional"
	MultipleRequired Cardinality = "multiple-required"
)

var validCardinalities = map[Cardinality]struct{}{
	SingleRequired:   {},
	SingleOptional:   {},
	MultipleRequired: {},
}

// ParseCardinality converts a user-supplied mode name, case-insensitively.
func ParseCardinality(s string) (Cardinality, error) {
	c := Cardinality(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validCardinalities[c]; !ok {
		return "", fmt.Errorf("%w: unknown mode %q (must be single-required, single-optional or multiple-required)", ErrInvalidQuery, s)
	}
	return c, nil
}

// Query identifies one labeled numeric field: the marker that precedes the value on its line.
type Query struct {
	Marker string
	Mode   Cardinality
}

// Validate checks the marker and the cardinality.
func (q Query) Validate() error {
	if q.Marker == "" {
		return fmt.Errorf("%w: empty marker", ErrInvalidQuery)
	}
	if _, ok := validCardinalities[q.Mode]; !ok {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidQuery, q.Mode)
	}
	return nil
}

// Preset queries for IQ-TREE reports.
var (
	OptimalLogLikelihood = Query{Marker: "Optimal log-likelihood:", Mode: SingleRequired}
	InitialLogLikelihood = Query{Marker: "Initial log-likelihood:", Mode: SingleOptional}
	AllLogLikelihoods    = Query{Marker: "Optimal log-likelihood:", Mode: MultipleRequired}
)
