package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/treebench/iqstat/schema"
)

// decimalPattern requires a fractional part so that trailing integer counts are never
// mistaken for the metric on the same line.
var decimalPattern = regexp.MustCompile(`-?\d+\.\d+`)

// ParseValue returns the first signed decimal after the last occurrence of marker in line.
func ParseValue(line, marker string) (float64, error) {
	if marker == "" {
		return 0, ErrInvalidQuery
	}
	idx := strings.LastIndex(line, marker)
	if idx < 0 {
		return 0, &MissingFieldError{Field: marker}
	}
	match := decimalPattern.FindString(line[idx+len(marker):])
	if match == "" {
		return 0, &ValueParseError{Marker: marker, Line: line}
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, &ValueParseError{Marker: marker, Line: line, Err: err}
	}
	return v, nil
}

// FirstMatch returns the value on the first line containing the query marker.
// A missing optional field yields an absent value and a warning, never an error.
func FirstMatch(doc *Document, q Query) (schema.ExtractedValue, error) {
	if err := q.Validate(); err != nil {
		return schema.Absent(), err
	}
	for line := range doc.Matching(q.Marker) {
		v, err := ParseValue(line, q.Marker)
		if err != nil {
			return schema.Absent(), attachSource(err, doc.Name())
		}
		return schema.Present(v), nil
	}
	if q.Mode == SingleOptional {
		log.Warn().Str("source", doc.Name()).Str("marker", q.Marker).Msg("optional field not found")
		return schema.Absent(), nil
	}
	return schema.Absent(), &MissingFieldError{Source: doc.Name(), Field: q.Marker}
}

// AllMatches returns the values of every line containing the query marker, in file order.
// Zero matches is an error whatever the query mode.
func AllMatches(doc *Document, q Query) ([]float64, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var values []float64
	for line := range doc.Matching(q.Marker) {
		v, err := ParseValue(line, q.Marker)
		if err != nil {
			return nil, attachSource(err, doc.Name())
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, &MissingFieldError{Source: doc.Name(), Field: q.Marker}
	}
	return values, nil
}

// BestOf returns the largest matched value, e.g. the best likelihood of several restarts.
func BestOf(doc *Document, q Query) (float64, error) {
	values, err := AllMatches(doc, q)
	if err != nil {
		return 0, err
	}
	best := values[0]
	for _, v := range values[1:] {
		best = max(best, v)
	}
	return best, nil
}
