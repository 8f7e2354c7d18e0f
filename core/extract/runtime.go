package extract

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Runtime report markers. The full form is only trusted when its unit is on the line.
const (
	elapsedMarker   = "Elapsed time:"
	elapsedUnit     = "seconds"
	wallClockMarker = "Total wall-clock time used:"
)

// runtimeMarker returns the runtime marker a line carries, preferring the full form.
func runtimeMarker(line string) (string, bool) {
	switch {
	case strings.Contains(line, elapsedMarker) && strings.Contains(line, elapsedUnit):
		return elapsedMarker, true
	case strings.Contains(line, wallClockMarker):
		return wallClockMarker, true
	default:
		return "", false
	}
}

// elapsedTimes collects up to limit runtimes in file order; limit <= 0 means all.
// Runtime lines without a readable number are skipped.
func elapsedTimes(doc *Document, limit int) []float64 {
	var times []float64
	for i := range doc.Len() {
		line := doc.Line(i)
		marker, ok := runtimeMarker(line)
		if !ok {
			continue
		}
		v, err := ParseValue(line, marker)
		if err != nil {
			log.Debug().Str("source", doc.Name()).Str("line", line).Msg("skipping unreadable runtime line")
			continue
		}
		times = append(times, v)
		if limit > 0 && len(times) == limit {
			break
		}
	}
	return times
}

// ElapsedTime returns the first reported runtime in seconds.
func ElapsedTime(doc *Document) (float64, error) {
	times := elapsedTimes(doc, 1)
	if len(times) == 0 {
		return 0, &MissingFieldError{Source: doc.Name(), Field: "elapsed time"}
	}
	return times[0], nil
}

// AllElapsedTimes returns every reported runtime, one per timed phase.
func AllElapsedTimes(doc *Document) ([]float64, error) {
	times := elapsedTimes(doc, 0)
	if len(times) == 0 {
		return nil, &MissingFieldError{Source: doc.Name(), Field: "elapsed time"}
	}
	return times, nil
}
