package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/schema"
)

// WriteRunResults outputs the analysis results, dispatching based on the output format configured.
func WriteRunResults(runs []schema.AnalysisResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONResultsForRuns(w, runs)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, runCSVHeader(cfg), func(cw *csv.Writer) error {
				return writeCSVResultsForRuns(cw, runs, cfg, fmtFloat, intFmt)
			})
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunTable(runs, cfg, fmtFloat, intFmt, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeRunTable generates and writes the human-readable table.
func writeRunTable(runs []schema.AnalysisResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := []string{"#", "Run"}
	for _, spec := range cfg.Metrics {
		headers = append(headers, spec.Name)
	}
	headers = append(headers, "Elapsed", "Patterns", "Gaps", "Invariant", "Topologies", "Label")
	table.Header(headers)

	// 2. Configure Separators/Borders to match a minimal look
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	nameWidth := GetMaxTableNameWidth(cfg)
	var data [][]string
	for i, r := range runs {
		row := []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(r.Run, nameWidth),
		}
		for _, spec := range cfg.Metrics {
			row = append(row, formatValue(r.Metric(spec.Name), fmtFloat))
		}
		row = append(row, formatValue(r.ElapsedSeconds(), fmtFloat))
		if a := r.Alignment; a != nil {
			row = append(row, fmt.Sprintf(intFmt, a.Patterns), fmtFloat(a.Gaps), fmtFloat(a.Invariant))
		} else {
			row = append(row, absentCell, absentCell, absentCell)
		}
		if tp := r.Topology; tp != nil {
			label := schema.GetPlainLabel(tp.Topologies, tp.Trees)
			if cfg.UseColors {
				label = contract.GetColorLabel(tp.Topologies, tp.Trees)
			}
			row = append(row, fmt.Sprintf("%d/%d", tp.Topologies, tp.Trees), label)
		} else {
			row = append(row, absentCell, absentCell)
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	withTopology := 0
	for _, r := range runs {
		if r.Topology != nil {
			withTopology++
		}
	}
	if _, err := fmt.Fprintf(writer, "Showing %d runs (%d with a distance matrix, threshold %s)\n", len(runs), withTopology, fmtFloat(cfg.Threshold)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Analysis completed in %v with %d workers. History backend: %s\n", duration, cfg.Workers, historyBackend(cfg)); err != nil {
		return err
	}
	return nil
}

// historyBackend names the configured history backend for summary lines.
func historyBackend(cfg *contract.Config) string {
	if cfg.AnalysisBackend == "" {
		return string(schema.NoneBackend)
	}
	return string(cfg.AnalysisBackend)
}

// runCSVHeader returns the CSV columns, with one column per configured metric.
func runCSVHeader(cfg *contract.Config) []string {
	header := []string{"index", "run"}
	for _, spec := range cfg.Metrics {
		header = append(header, spec.Name)
	}
	return append(header,
		"elapsed_seconds",
		"patterns",
		"gaps",
		"invariant",
		"rate_heterogeneity",
		"base_frequencies",
		"trees",
		"topologies",
		"mean_rf",
		"threshold",
		"clusters",
		"label",
		"analysis_time",
	)
}

// writeCSVResultsForRuns writes one CSV record per run. Absent values are empty cells.
func writeCSVResultsForRuns(w *csv.Writer, runs []schema.AnalysisResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	csvValue := func(v schema.ExtractedValue) string {
		if !v.Found {
			return ""
		}
		return fmtFloat(v.Value)
	}
	for i, r := range runs {
		rec := []string{strconv.Itoa(i + 1), r.Run}
		for _, spec := range cfg.Metrics {
			rec = append(rec, csvValue(r.Metric(spec.Name)))
		}
		rec = append(rec, csvValue(r.ElapsedSeconds()))
		if a := r.Alignment; a != nil {
			rec = append(rec, fmt.Sprintf(intFmt, a.Patterns), fmtFloat(a.Gaps), fmtFloat(a.Invariant))
		} else {
			rec = append(rec, "", "", "")
		}
		rec = append(rec, csvText(r.Model.RateHeterogeneity), csvText(r.Model.BaseFrequencies))
		if tp := r.Topology; tp != nil {
			rec = append(rec,
				fmt.Sprintf(intFmt, tp.Trees),
				fmt.Sprintf(intFmt, tp.Topologies),
				fmtFloat(tp.MeanDistance),
				fmtFloat(tp.Threshold),
				schema.FormatClusters(tp.Assignment),
				schema.GetPlainLabel(tp.Topologies, tp.Trees),
			)
		} else {
			rec = append(rec, "", "", "", "", "", "")
		}
		rec = append(rec, r.AnalysisTime.Format(contract.DateTimeFormat))
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func csvText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// writeJSONResultsForRuns writes the analysis results in JSON format.
func writeJSONResultsForRuns(w io.Writer, runs []schema.AnalysisResult) error {
	return writeJSON(w, schema.EnrichRuns(runs))
}
