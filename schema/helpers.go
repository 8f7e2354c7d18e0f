package schema

import (
	"strconv"
	"strings"
)

// FormatCluster renders the members of a cluster as a compact comma-separated list.
// Consecutive indices are collapsed into ranges, e.g. "0-3,7".
func FormatCluster(c TopologyCluster) string {
	if len(c) == 0 {
		return ""
	}
	var b strings.Builder
	start, prev := c[0], c[0]
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(start))
		if prev != start {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(prev))
		}
	}
	for _, idx := range c[1:] {
		if idx == prev+1 {
			prev = idx
			continue
		}
		flush()
		start, prev = idx, idx
	}
	flush()
	return b.String()
}

// FormatClusters renders every cluster of an assignment in braces, e.g. "{0-2} {3}".
func FormatClusters(ca ClusterAssignment) string {
	parts := make([]string, 0, len(ca.Clusters))
	for _, c := range ca.Clusters {
		parts = append(parts, "{"+FormatCluster(c)+"}")
	}
	return strings.Join(parts, " ")
}

// LargestCluster returns the size of the biggest cluster, or 0 when empty.
func LargestCluster(ca ClusterAssignment) int {
	largest := 0
	for _, c := range ca.Clusters {
		largest = max(largest, len(c))
	}
	return largest
}
