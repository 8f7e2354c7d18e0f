package schema

import "time"

// AnalysisStatus represents the status of the history store.
type AnalysisStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	TotalRuns        int              `json:"total_runs"`
	LastRunID        int64            `json:"last_run_id"`
	LastRunTime      time.Time        `json:"last_run_time"`
	OldestRunTime    time.Time        `json:"oldest_run_time"`
	TotalResultsSeen int              `json:"total_results_seen"`
	TableSizes       map[string]int64 `json:"table_sizes"`
}

// AnalysisRunRecord represents a row from the iqstat_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalRuns     int32
	ConfigParams  *string
}

// RunResultRecord represents a row from the iqstat_run_results table.
type RunResultRecord struct {
	AnalysisID     int64
	RunName        string
	AnalysisTime   time.Time
	OptimalLLH     *float64
	StartingLLH    *float64
	BestLLH        *float64
	ElapsedSeconds *float64
	Patterns       *int32
	Gaps           *float64
	Invariant      *float64
	Topologies     *int32
	MeanDistance   *float64
	Threshold      *float64
	ClustersJSON   *string
	MetricsJSON    *string
}
