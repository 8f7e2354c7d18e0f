package outwriter

import (
	"fmt"
	"os"

	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/schema"
)

// LogAnalysisHeader prints a concise, 2-line header before runs are analyzed.
// It writes to stderr so that JSON and CSV on stdout stay machine-readable.
func LogAnalysisHeader(cfg *contract.Config, runs []schema.RunFiles) {
	reports, matrices := 0, 0
	for _, r := range runs {
		if r.ReportPath != "" {
			reports++
		}
		if r.MatrixPath != "" {
			matrices++
		}
	}

	// Line 1: What is analyzed
	_, _ = fmt.Fprintf(os.Stderr, "Runs: %d (%d reports, %d distance matrices)\n", len(runs), reports, matrices)

	// Line 2: How it is analyzed
	_, _ = fmt.Fprintf(os.Stderr, "Metrics: %d, threshold: %g, workers: %d\n", len(cfg.Metrics), cfg.Threshold, cfg.Workers)
}
