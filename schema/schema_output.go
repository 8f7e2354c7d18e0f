package schema

// Convergence label constants.
const (
	ConvergedLabel = "Converged" // Every tree has the same topology
	StableLabel    = "Stable"    // One topology per four trees or fewer
	MixedLabel     = "Mixed"     // One topology per two trees or fewer
	DivergentLabel = "Divergent" // Most trees differ
)

// EnrichedRunResult adds presentation data to an AnalysisResult.
type EnrichedRunResult struct {
	Index int    `json:"index"`
	Label string `json:"label,omitempty"` // Empty when the run has no topology
	AnalysisResult
}

// ExtractionResult is the outcome of a single ad-hoc metric query.
type ExtractionResult struct {
	Source string         `json:"source"`
	Marker string         `json:"marker"`
	Mode   string         `json:"mode"`
	Value  ExtractedValue `json:"value"`            // First match, or the best one when requested
	Values []float64      `json:"values,omitempty"` // Every match for multiple-required queries
}

// LinkageStep is one merge of a hierarchical clustering.
// Clusters 0..n-1 are the trees; the k-th merge creates cluster n+k.
type LinkageStep struct {
	A        int     `json:"a"`
	B        int     `json:"b"`
	Distance float64 `json:"distance"`
	Size     int     `json:"size"`
}

// TopologyReport is a topology summary plus the tree labels and optional dendrogram.
type TopologyReport struct {
	TopologySummary
	Labels  []string      `json:"labels"`
	Linkage []LinkageStep `json:"linkage,omitempty"`
}

// GetPlainLabel returns a plain text label describing how well independent
// searches agree, based on the topology count relative to the tree count.
func GetPlainLabel(topologies, trees int) string {
	if trees <= 1 || topologies <= 1 {
		return ConvergedLabel
	}
	ratio := float64(topologies) / float64(trees)
	switch {
	case ratio <= 0.25:
		return StableLabel
	case ratio <= 0.5:
		return MixedLabel
	default:
		return DivergentLabel
	}
}

// EnrichRuns adds a 1-based index and a convergence label to a list of run results.
func EnrichRuns(runs []AnalysisResult) []EnrichedRunResult {
	output := make([]EnrichedRunResult, len(runs))
	for i, r := range runs {
		output[i] = EnrichedRunResult{
			Index:          i + 1,
			AnalysisResult: r,
		}
		if r.Topology != nil {
			output[i].Label = GetPlainLabel(r.Topology.Topologies, r.Topology.Trees)
		}
	}
	return output
}
