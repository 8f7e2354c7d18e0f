// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRuns prints run analysis results using the configured output format.
func (ow *OutWriter) WriteRuns(results []schema.AnalysisResult, cfg *contract.Config, duration time.Duration) error {
	return WriteRunResults(results, cfg, duration)
}

// WriteExtraction prints an ad-hoc query result using the configured output format.
func (ow *OutWriter) WriteExtraction(result schema.ExtractionResult, cfg *contract.Config) error {
	return WriteExtractionResult(result, cfg)
}

// WriteTopology prints topology clusters using the configured output format.
func (ow *OutWriter) WriteTopology(report schema.TopologyReport, cfg *contract.Config, duration time.Duration) error {
	return WriteTopologyResults(report, cfg, duration)
}
