package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/treebench/iqstat/core"
	"github.com/treebench/iqstat/internal/contract"
)

// topologyCmd clusters the trees of an RF distance matrix.
var topologyCmd = &cobra.Command{
	Use:   "topology FILE",
	Short: "Group the trees of an RF distance matrix into topologies.",
	Long: `Cluster the trees of an IQ-TREE .rfdist matrix with average linkage and
cut the dendrogram at --threshold.

Trees whose cophenetic distance is at most the threshold share a topology.
A threshold of 0 groups only identical trees.

Examples:
  # Count distinct topologies
  iqstat topology runs.rfdist

  # Loosen the cut and show the merge order
  iqstat topology runs.rfdist --threshold 0.3 --linkage --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteTopology(rootCtx, cfg, args[0], viper.GetBool("linkage")); err != nil {
			contract.LogFatal("Cannot run topology clustering", err)
		}
	},
}
