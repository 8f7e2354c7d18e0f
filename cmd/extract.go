package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/treebench/iqstat/core"
	"github.com/treebench/iqstat/core/extract"
	"github.com/treebench/iqstat/internal/contract"
)

// extractCmd runs a single ad-hoc query against one file.
var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Extract the number that follows a marker in a log or report.",
	Long: `Find the lines of FILE containing --marker and parse the number after it.

Modes:
  single-required    the first match; missing marker is an error
  single-optional    the first match; missing marker prints nothing
  multiple-required  every match in file order; --best picks the maximum

Examples:
  # Final log-likelihood of a search
  iqstat extract run1.log --marker "Optimal log-likelihood:"

  # Tree score from the report
  iqstat extract run1.iqtree --marker "Log-likelihood of the tree:"

  # Best score over all restarts
  iqstat extract run1.log --marker "BEST SCORE FOUND :" --mode multiple-required --best`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		mode, err := extract.ParseCardinality(viper.GetString("mode"))
		if err != nil {
			contract.LogFatal("Invalid extract query", err)
		}
		q := extract.Query{Marker: viper.GetString("marker"), Mode: mode}
		if err := core.ExecuteExtract(rootCtx, cfg, args[0], q, viper.GetBool("best")); err != nil {
			contract.LogFatal("Cannot run extraction", err)
		}
	},
}
