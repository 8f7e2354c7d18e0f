// Package contract provides interfaces and shared utilities for iqstat's internal architecture.
package contract

import (
	"time"

	"github.com/treebench/iqstat/schema"
)

// StoreManager defines the interface for managing persistent stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetAnalysisStore() AnalysisStore
}

// AnalysisStore defines the interface for tracking analysis invocations and their run results.
type AnalysisStore interface {
	// BeginAnalysis creates a new analysis record and returns its unique ID
	BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the analysis record with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalRuns int) error

	// RecordRunResult stores the extracted metrics and topology summary of one run
	RecordRunResult(analysisID int64, result schema.AnalysisResult) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every analysis record, oldest first
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllRunResults returns every stored run result, ordered by analysis and run name
	GetAllRunResults() ([]schema.RunResultRecord, error)

	// Close closes the underlying connection
	Close() error
}
