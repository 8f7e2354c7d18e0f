// Package parquet provides data structures and functions for exporting iqstat
// history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/treebench/iqstat/schema"
)

// AnalysisRun represents a single recorded invocation of the analyze command.
// This struct maps to the iqstat_analysis_runs database table.
type AnalysisRun struct {
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// StartTime is when the analysis began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the analysis completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalRuns is the number of inference runs analyzed in this invocation
	TotalRuns int32 `parquet:"total_runs,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RunResult holds the extracted values of one inference run within an analysis.
// This struct maps to the iqstat_run_results database table; absent values are null.
type RunResult struct {
	AnalysisID   int64     `parquet:"analysis_id,snappy"`
	RunName      string    `parquet:"run_name,snappy,dict"`
	AnalysisTime time.Time `parquet:"analysis_time,snappy"`

	OptimalLLH     *float64 `parquet:"optimal_llh,optional,snappy"`
	StartingLLH    *float64 `parquet:"starting_llh,optional,snappy"`
	BestLLH        *float64 `parquet:"best_llh,optional,snappy"`
	ElapsedSeconds *float64 `parquet:"elapsed_seconds,optional,snappy"`

	// Alignment summary
	Patterns  *int32   `parquet:"patterns,optional,snappy"`
	Gaps      *float64 `parquet:"gaps,optional,snappy"`
	Invariant *float64 `parquet:"invariant,optional,snappy"`

	// Topology summary from the RF distance matrix
	Topologies   *int32   `parquet:"topologies,optional,snappy"`
	MeanDistance *float64 `parquet:"mean_distance,optional,snappy"`
	Threshold    *float64 `parquet:"threshold,optional,snappy"`
	ClustersJSON *string  `parquet:"clusters_json,optional,snappy"`

	// MetricsJSON holds every configured metric, including custom ones
	MetricsJSON *string `parquet:"metrics_json,optional,snappy"`
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRunResultsParquet writes a slice of RunResult structs to a Parquet file.
func WriteRunResultsParquet(data []RunResult, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using the schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertAnalysisRunRecords converts store records to Parquet rows.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:    record.AnalysisID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalRuns:     record.TotalRuns,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertRunResultRecords converts store records to Parquet rows.
func ConvertRunResultRecords(records []schema.RunResultRecord) []RunResult {
	result := make([]RunResult, len(records))
	for i, record := range records {
		result[i] = RunResult{
			AnalysisID:     record.AnalysisID,
			RunName:        record.RunName,
			AnalysisTime:   record.AnalysisTime,
			OptimalLLH:     record.OptimalLLH,
			StartingLLH:    record.StartingLLH,
			BestLLH:        record.BestLLH,
			ElapsedSeconds: record.ElapsedSeconds,
			Patterns:       record.Patterns,
			Gaps:           record.Gaps,
			Invariant:      record.Invariant,
			Topologies:     record.Topologies,
			MeanDistance:   record.MeanDistance,
			Threshold:      record.Threshold,
			ClustersJSON:   record.ClustersJSON,
			MetricsJSON:    record.MetricsJSON,
		}
	}
	return result
}
