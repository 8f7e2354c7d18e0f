// Package schema has configs, models and global variables for all parts of iqstat.
package schema

import (
	"encoding/json"
	"time"
)

// ExtractedValue is a number pulled out of a log line, or the absence of one.
// Absence is a valid outcome for optional lookups and is encoded as JSON null.
type ExtractedValue struct {
	Value float64
	Found bool
}

// Present wraps a found value.
func Present(v float64) ExtractedValue {
	return ExtractedValue{Value: v, Found: true}
}

// Absent is the value returned by an optional lookup with no matching line.
func Absent() ExtractedValue {
	return ExtractedValue{}
}

// Ptr returns a pointer to the value, or nil when absent.
func (v ExtractedValue) Ptr() *float64 {
	if !v.Found {
		return nil
	}
	x := v.Value
	return &x
}

// MarshalJSON encodes an absent value as null.
func (v ExtractedValue) MarshalJSON() ([]byte, error) {
	if !v.Found {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}

// UnmarshalJSON accepts a number or null.
func (v *ExtractedValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Absent()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Present(f)
	return nil
}

// ModelParameters holds the free-form substitution model summaries of a report.
// Different models produce structurally different strings, so they are kept verbatim.
type ModelParameters struct {
	RateHeterogeneity *string `json:"rate_heterogeneity"`
	BaseFrequencies   *string `json:"base_frequencies"`
}

// AlignmentSummary holds the composite alignment statistics of a log.
type AlignmentSummary struct {
	Patterns  int     `json:"patterns"`  // Number of distinct alignment patterns
	Gaps      float64 `json:"gaps"`      // Proportion of gaps/ambiguous characters (0-1)
	Invariant float64 `json:"invariant"` // Proportion of constant sites (0-1)
}

// TopologyCluster is a set of tree indices judged topologically equivalent, ascending.
type TopologyCluster []int

// ClusterAssignment partitions the tree indices {0..n-1} into topology clusters.
type ClusterAssignment struct {
	Clusters []TopologyCluster `json:"clusters"` // Ordered by smallest member
	Labels   []int             `json:"labels"`   // 1-based flat cluster label per tree
}

// Count returns the number of distinct topologies.
func (ca ClusterAssignment) Count() int {
	return len(ca.Clusters)
}

// TopologySummary is the matrix-derived part of an analysis.
type TopologySummary struct {
	Source       string            `json:"source,omitempty"`
	Trees        int               `json:"trees"`
	Topologies   int               `json:"topologies"`
	MeanDistance float64           `json:"mean_distance"`
	Threshold    float64           `json:"threshold"`
	Assignment   ClusterAssignment `json:"assignment"`
}

// AnalysisResult aggregates everything extracted for a single inference run.
type AnalysisResult struct {
	Run          string                    `json:"run"`
	Metrics      map[string]ExtractedValue `json:"metrics"`
	Series       map[string][]float64      `json:"series,omitempty"`
	ElapsedTimes []float64                 `json:"elapsed_times,omitempty"`
	Model        ModelParameters           `json:"model"`
	Alignment    *AlignmentSummary         `json:"alignment,omitempty"`
	Topology     *TopologySummary          `json:"topology,omitempty"`
	AnalysisTime time.Time                 `json:"analysis_time"`
}

// Metric returns the named metric, or an absent value.
func (r AnalysisResult) Metric(name string) ExtractedValue {
	return r.Metrics[name]
}

// ElapsedSeconds returns the first reported runtime, if any.
func (r AnalysisResult) ElapsedSeconds() ExtractedValue {
	if len(r.ElapsedTimes) == 0 {
		return Absent()
	}
	return Present(r.ElapsedTimes[0])
}

// RunFiles names the files that make up a single inference run.
type RunFiles struct {
	Name       string `json:"name"`
	LogPath    string `json:"log_path"`
	ReportPath string `json:"report_path,omitempty"` // Empty when the report is missing
	MatrixPath string `json:"matrix_path,omitempty"` // Empty when no distance matrix was produced
}

// MetricSpec is a named extraction query as it appears in configuration.
type MetricSpec struct {
	Name   string       `json:"name" mapstructure:"name"`
	Marker string       `json:"marker" mapstructure:"marker"`
	Mode   string       `json:"mode" mapstructure:"mode"`
	Source MetricSource `json:"source" mapstructure:"source"`
}
