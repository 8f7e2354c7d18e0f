package cmd

import (
	"github.com/spf13/cobra"
	"github.com/treebench/iqstat/internal/iocache"
	"github.com/treebench/iqstat/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the iqstat MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents extract metrics,
analyze runs and cluster topologies via standard tools.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, iocache.Manager)
	},
}
