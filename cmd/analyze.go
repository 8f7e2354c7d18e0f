package cmd

import (
	"github.com/spf13/cobra"
	"github.com/treebench/iqstat/core"
	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/internal/iocache"
)

// analyzeCmd extracts the preset and configured metrics of one or more runs.
var analyzeCmd = &cobra.Command{
	Use:   "analyze PREFIX...",
	Short: "Summarize likelihoods, runtime and topology agreement of IQ-TREE runs.",
	Long: `Read the log, report and RF distance matrix of each run and summarize them.

A run is named by its file prefix: "run1", "run1.log" and "run1.iqtree" all
refer to the same run. For each run iqstat reports:
- Optimal, starting and best log-likelihood
- Elapsed time of every search
- Model parameters and the alignment summary
- Number of distinct topologies among the trees of the RF matrix

Runs are analyzed concurrently (see --workers). When --analysis-backend is set,
every invocation is recorded for later export.

Examples:
  # Summarize three independent searches
  iqstat analyze run1 run2 run3

  # Treat trees closer than 0.2 RF as the same topology
  iqstat analyze run1 --threshold 0.2

  # Export the summary to CSV
  iqstat analyze run*.log --output csv --output-file runs.csv`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg, iocache.Manager, args); err != nil {
			contract.LogFatal("Cannot run analysis", err)
		}
	},
}
