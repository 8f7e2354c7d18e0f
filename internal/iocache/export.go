package iocache

import (
	"errors"
	"fmt"

	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/internal/parquet"
)

// ExecuteAnalysisExport writes the global history store to Parquet files.
func ExecuteAnalysisExport(outputFile string) error {
	store := Manager.GetAnalysisStore()
	if store == nil {
		return errors.New("analysis tracking is not enabled. Use --analysis-backend to enable it")
	}
	return ExportAnalysis(store, outputFile)
}

// ExportAnalysis writes every analysis run and run result of the store to
// <outputFile>.analysis_runs.parquet and <outputFile>.run_results.parquet.
func ExportAnalysis(store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total analysis runs: %d\n", status.TotalRuns)
	fmt.Printf("Total run results: %d\n", status.TableSizes[runResultsTable])

	analysisRuns, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	runResults, err := store.GetAllRunResults()
	if err != nil {
		return fmt.Errorf("failed to retrieve run results: %w", err)
	}

	analysisRunsFile := outputFile + ".analysis_runs.parquet"
	if err := parquet.WriteAnalysisRunsParquet(parquet.ConvertAnalysisRunRecords(analysisRuns), analysisRunsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	fmt.Printf("Exported %d analysis runs to: %s\n", len(analysisRuns), analysisRunsFile)

	runResultsFile := outputFile + ".run_results.parquet"
	if err := parquet.WriteRunResultsParquet(parquet.ConvertRunResultRecords(runResults), runResultsFile); err != nil {
		return fmt.Errorf("failed to write run results: %w", err)
	}
	fmt.Printf("Exported %d run results to: %s\n", len(runResults), runResultsFile)

	return nil
}
