package rfdist

import (
	"fmt"
	"math"
	"slices"

	"github.com/treebench/iqstat/schema"
)

// DefaultThreshold is the cut height below which two trees count as the same topology.
const DefaultThreshold = 0.1

// Summary holds the tree count and the mean pairwise distance.
type Summary struct {
	N    int
	Mean float64
}

// Summarize averages the strictly upper triangle. A single tree yields {1, 0}.
func Summarize(m *Matrix) Summary {
	if m.N() < 2 {
		return Summary{N: 1, Mean: 0}
	}
	var total float64
	var count int
	for i := range m.N() {
		for j := i + 1; j < m.N(); j++ {
			total += m.At(i, j)
			count++
		}
	}
	return Summary{N: m.N(), Mean: total / float64(count)}
}

// ValidateThreshold rejects negative, infinite and NaN cut heights.
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// FlatClusters cuts the dendrogram at threshold: every maximal subtree whose merge
// height is <= threshold becomes one cluster. Clusters are ordered by smallest member.
func FlatClusters(link Linkage, n int, threshold float64) schema.ClusterAssignment {
	if n < 1 {
		return schema.ClusterAssignment{}
	}
	var clusters []schema.TopologyCluster
	if len(link) != n-1 {
		// Without a complete dendrogram every tree stands alone.
		for i := range n {
			clusters = append(clusters, schema.TopologyCluster{i})
		}
		return assignment(clusters, n)
	}
	if n == 1 {
		return assignment([]schema.TopologyCluster{{0}}, n)
	}

	stack := []int{2*n - 2}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node < n {
			clusters = append(clusters, schema.TopologyCluster{node})
			continue
		}
		merge := link[node-n]
		if merge.Distance <= threshold {
			clusters = append(clusters, leaves(link, n, node))
			continue
		}
		stack = append(stack, merge.A, merge.B)
	}
	return assignment(clusters, n)
}

// leaves lists the trees under a dendrogram node in ascending order.
func leaves(link Linkage, n, node int) schema.TopologyCluster {
	var out schema.TopologyCluster
	stack := []int{node}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur < n {
			out = append(out, cur)
			continue
		}
		stack = append(stack, link[cur-n].A, link[cur-n].B)
	}
	slices.Sort(out)
	return out
}

func assignment(clusters []schema.TopologyCluster, n int) schema.ClusterAssignment {
	slices.SortFunc(clusters, func(a, b schema.TopologyCluster) int { return a[0] - b[0] })
	labels := make([]int, n)
	for k, c := range clusters {
		for _, tree := range c {
			labels[tree] = k + 1
		}
	}
	return schema.ClusterAssignment{Clusters: clusters, Labels: labels}
}

// Cluster groups trees whose average-linkage cophenetic distance is within threshold.
func Cluster(m *Matrix, threshold float64) (schema.ClusterAssignment, Linkage, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return schema.ClusterAssignment{}, nil, err
	}
	link, err := AverageLinkage(Condensed(m), m.N())
	if err != nil {
		return schema.ClusterAssignment{}, nil, err
	}
	return FlatClusters(link, m.N(), threshold), link, nil
}

// Analyze combines Summarize and Cluster into the topology record of a run.
func Analyze(m *Matrix, threshold float64) (schema.TopologySummary, error) {
	assign, _, err := Cluster(m, threshold)
	if err != nil {
		return schema.TopologySummary{}, err
	}
	sum := Summarize(m)
	return schema.TopologySummary{
		Trees:        sum.N,
		Topologies:   assign.Count(),
		MeanDistance: sum.Mean,
		Threshold:    threshold,
		Assignment:   assign,
	}, nil
}
