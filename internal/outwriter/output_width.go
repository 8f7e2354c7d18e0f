package outwriter

import (
	"os"

	"github.com/treebench/iqstat/internal/contract"
	"golang.org/x/term"
)

// Column budgets of the run table, including borders and padding.
const (
	fixedRunColumnsWidth = 70 // Index + Elapsed + Patterns + Gaps + Invariant + Topologies + Label
	metricColumnWidth    = 14
	minNameWidth         = 10
	maxNameWidth         = 50
)

// terminalWidth returns the configured width override, the detected terminal width,
// or a conservative default.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// GetMaxTableNameWidth calculates the maximum width for run names and file paths
// in table output, based on terminal width and the configured metric columns.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	baseWidth := fixedRunColumnsWidth + metricColumnWidth*len(cfg.Metrics)

	available := terminalWidth(cfg) - baseWidth
	if available < minNameWidth {
		return minNameWidth
	}
	if available > maxNameWidth {
		return maxNameWidth
	}
	return available
}
