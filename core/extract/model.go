package extract

import (
	"strings"

	"github.com/treebench/iqstat/schema"
)

// Labels of the substitution model lines in a run log.
const (
	rateHeterogeneityLabel = "Rate heterogeneity"
	baseFrequenciesLabel   = "Base frequencies"
)

// ModelParameters returns the rate heterogeneity and base frequency summaries verbatim.
// Absent sections stay nil; when a section repeats, the last one wins.
func ModelParameters(doc *Document) schema.ModelParameters {
	var params schema.ModelParameters
	for i := range doc.Len() {
		line := doc.Line(i)
		if strings.HasPrefix(line, rateHeterogeneityLabel) {
			params.RateHeterogeneity = labelRemainder(line, rateHeterogeneityLabel)
		}
		if strings.HasPrefix(line, baseFrequenciesLabel) {
			params.BaseFrequencies = labelRemainder(line, baseFrequenciesLabel)
		}
	}
	return params
}

// labelRemainder returns the text after the first colon following label.
func labelRemainder(line, label string) *string {
	rest := line[len(label):]
	if i := strings.Index(rest, ":"); i >= 0 {
		rest = rest[i+1:]
	}
	rest = strings.TrimSpace(rest)
	return &rest
}
