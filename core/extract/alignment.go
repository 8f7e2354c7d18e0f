package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/treebench/iqstat/schema"
)

// Markers of the alignment summary in an IQ-TREE log.
const (
	alignmentMarker = "Alignment has"
	patternsMarker  = "distinct patterns"
	gapHeaderMarker = "Gap/Ambiguity"
	totalMarker     = "TOTAL"
	constantMarker  = "constant sites"
)

// alignmentState accumulates the pieces of the composite summary during a single pass.
type alignmentState struct {
	patterns, columns, constant             int
	havePatterns, haveColumns, haveConstant bool
	gaps                                    float64
	haveGaps                                bool
}

// PatternsGapsInvariant reads the distinct pattern count, the gap proportion and the
// invariant-site proportion in one pass. Each piece is taken from its first occurrence.
func PatternsGapsInvariant(doc *Document) (schema.AlignmentSummary, error) {
	var st alignmentState
	for i := range doc.Len() {
		line := doc.Line(i)
		var err error
		switch {
		case strings.Contains(line, alignmentMarker):
			err = st.readAlignmentLine(line)
		case strings.Contains(line, gapHeaderMarker):
			continue
		case strings.Contains(line, totalMarker):
			err = st.readTotalLine(line)
		case strings.Contains(line, constantMarker):
			err = st.readConstantLine(line)
		}
		if err != nil {
			return schema.AlignmentSummary{}, attachSource(err, doc.Name())
		}
	}
	return st.summary(doc.Name())
}

// readAlignmentLine handles "Alignment has 20 sequences with 1000 columns, 512 distinct patterns".
func (st *alignmentState) readAlignmentLine(line string) error {
	if !st.haveColumns {
		if _, after, ok := strings.Cut(line, "with"); ok {
			if before, _, ok := strings.Cut(after, "columns"); ok {
				n, err := strconv.Atoi(strings.TrimSpace(before))
				if err != nil {
					return &ValueParseError{Marker: "columns", Line: line, Err: err}
				}
				st.columns, st.haveColumns = n, true
			}
		}
	}
	if !st.havePatterns {
		for part := range strings.SplitSeq(line, ",") {
			if !strings.Contains(part, patternsMarker) {
				continue
			}
			n, err := leadingInt(part)
			if err != nil {
				return &ValueParseError{Marker: patternsMarker, Line: line, Err: err}
			}
			st.patterns, st.havePatterns = n, true
			break
		}
	}
	return nil
}

// readTotalLine handles "****  TOTAL  3.42%  0 sequences failed composition chi2 test".
func (st *alignmentState) readTotalLine(line string) error {
	if st.haveGaps {
		return nil
	}
	fields := strings.Fields(line)
	for i, f := range fields {
		if !strings.Contains(f, totalMarker) {
			continue
		}
		if i+1 >= len(fields) {
			return &ValueParseError{Marker: totalMarker, Line: line}
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(fields[i+1], "%"), 64)
		if err != nil {
			return &ValueParseError{Marker: totalMarker, Line: line, Err: err}
		}
		st.gaps, st.haveGaps = pct/100.0, true
		return nil
	}
	return nil
}

// readConstantLine handles "350 parsimony-informative, 150 singleton sites, 500 constant sites".
func (st *alignmentState) readConstantLine(line string) error {
	if st.haveConstant {
		return nil
	}
	for part := range strings.SplitSeq(line, ",") {
		if !strings.Contains(part, constantMarker) {
			continue
		}
		n, err := leadingInt(part)
		if err != nil {
			return &ValueParseError{Marker: constantMarker, Line: line, Err: err}
		}
		st.constant, st.haveConstant = n, true
		return nil
	}
	return nil
}

func (st *alignmentState) summary(source string) (schema.AlignmentSummary, error) {
	var missing []string
	if !st.havePatterns {
		missing = append(missing, patternsMarker)
	}
	if !st.haveGaps {
		missing = append(missing, totalMarker+" gap percentage")
	}
	if !st.haveConstant {
		missing = append(missing, constantMarker)
	}
	if !st.haveColumns {
		missing = append(missing, "alignment columns")
	}
	if len(missing) > 0 {
		return schema.AlignmentSummary{}, &MissingFieldError{Source: source, Field: strings.Join(missing, ", ")}
	}
	if st.columns == 0 {
		return schema.AlignmentSummary{}, &ValueParseError{Source: source, Marker: "columns", Line: alignmentMarker, Err: fmt.Errorf("alignment has zero columns")}
	}
	return schema.AlignmentSummary{
		Patterns:  st.patterns,
		Gaps:      st.gaps,
		Invariant: float64(st.constant) / float64(st.columns),
	}, nil
}

// leadingInt parses the first whitespace-separated token of s.
func leadingInt(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("no leading number in %q", s)
	}
	return strconv.Atoi(fields[0])
}
