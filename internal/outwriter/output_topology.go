package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/schema"
)

// WriteTopologyResults outputs the topology clusters of one distance matrix.
func WriteTopologyResults(report schema.TopologyReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		header := []string{"tree", "label", "cluster", "cluster_size"}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				return writeCSVResultsForTopology(cw, report, intFmt)
			})
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTopologyTable(report, cfg, fmtFloat, intFmt, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeTopologyTable writes one row per cluster, ordered by smallest member.
func writeTopologyTable(report schema.TopologyReport, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Cluster", "Size", "Indices", "Trees"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTableNameWidth(cfg)
	var data [][]string
	for k, c := range report.Assignment.Clusters {
		names := make([]string, 0, len(c))
		for _, idx := range c {
			if idx < len(report.Labels) {
				names = append(names, report.Labels[idx])
			}
		}
		data = append(data, []string{
			strconv.Itoa(k + 1),
			fmt.Sprintf(intFmt, len(c)),
			schema.FormatCluster(c),
			contract.TruncatePath(strings.Join(names, " "), nameWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	label := schema.GetPlainLabel(report.Topologies, report.Trees)
	if cfg.UseColors {
		label = contract.GetColorLabel(report.Topologies, report.Trees)
	}
	if _, err := fmt.Fprintf(writer, "%d trees, %d topologies at threshold %s (mean RF %s): %s\n",
		report.Trees, report.Topologies, fmtFloat(report.Threshold), fmtFloat(report.MeanDistance), label); err != nil {
		return err
	}
	for i, step := range report.Linkage {
		if _, err := fmt.Fprintf(writer, "merge %d: %d + %d at %s (size %d)\n", i+1, step.A, step.B, fmtFloat(step.Distance), step.Size); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(writer, "Clustering completed in %v\n", duration)
	return err
}

// writeCSVResultsForTopology writes one record per tree with its 1-based cluster label.
func writeCSVResultsForTopology(w *csv.Writer, report schema.TopologyReport, intFmt string) error {
	sizes := make(map[int]int, len(report.Assignment.Clusters))
	for k, c := range report.Assignment.Clusters {
		sizes[k+1] = len(c)
	}
	for tree, cluster := range report.Assignment.Labels {
		name := ""
		if tree < len(report.Labels) {
			name = report.Labels[tree]
		}
		rec := []string{
			strconv.Itoa(tree),
			name,
			fmt.Sprintf(intFmt, cluster),
			fmt.Sprintf(intFmt, sizes[cluster]),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
