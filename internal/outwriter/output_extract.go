package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/schema"
)

// WriteExtractionResult outputs the value of a single ad-hoc query.
func WriteExtractionResult(result schema.ExtractionResult, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		header := []string{"source", "marker", "mode", "value", "matches", "values"}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				value := ""
				if result.Value.Found {
					value = fmtFloat(result.Value.Value)
				}
				return cw.Write([]string{
					result.Source,
					result.Marker,
					result.Mode,
					value,
					fmt.Sprintf(intFmt, matchCount(result)),
					formatSeries(result.Values, fmtFloat),
				})
			})
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeExtractionText(w, result, fmtFloat, intFmt)
		}, "Wrote text")
	}
	return nil
}

// writeExtractionText prints the value on its own line so that shell callers can capture it.
func writeExtractionText(w io.Writer, result schema.ExtractionResult, fmtFloat func(float64) string, intFmt string) error {
	if _, err := fmt.Fprintln(w, formatValue(result.Value, fmtFloat)); err != nil {
		return err
	}
	if len(result.Values) > 1 {
		_, err := fmt.Fprintf(w, "matches ("+intFmt+"): %s\n", len(result.Values), formatSeries(result.Values, fmtFloat))
		return err
	}
	return nil
}

// matchCount is the number of lines that produced a value.
func matchCount(result schema.ExtractionResult) int {
	if len(result.Values) > 0 {
		return len(result.Values)
	}
	if result.Value.Found {
		return 1
	}
	return 0
}
