package rfdist

import (
	"fmt"
	"math"
)

// Merge is one agglomeration step. A and B are cluster ids: ids below n are single
// trees, id n+k is the cluster created by step k. A < B.
type Merge struct {
	A, B     int
	Distance float64
	Size     int
}

// Linkage is the ordered merge list of a hierarchical clustering, n-1 steps for n trees.
type Linkage []Merge

// AverageLinkage runs agglomerative clustering with the UPGMA rule
// d(k, i+j) = (|i| d(k,i) + |j| d(k,j)) / (|i| + |j|).
// The closest pair is taken in row-major scan order, so ties go to the lowest (i, j).
func AverageLinkage(condensed []float64, n int) (Linkage, error) {
	if n < 1 {
		return nil, fmt.Errorf("rfdist: linkage needs at least one observation, got %d", n)
	}
	if want := n * (n - 1) / 2; len(condensed) != want {
		return nil, fmt.Errorf("rfdist: condensed vector has %d entries, want %d for %d observations", len(condensed), want, n)
	}
	if n == 1 {
		return Linkage{}, nil
	}

	d := make([]float64, len(condensed))
	copy(d, condensed)
	dist := func(i, j int) float64 {
		if i > j {
			i, j = j, i
		}
		return d[CondensedIndex(n, i, j)]
	}

	active := make([]bool, n)
	id := make([]int, n)
	size := make([]int, n)
	for i := range n {
		active[i], id[i], size[i] = true, i, 1
	}

	// nn[i] is the closest active j > i, nnd[i] its distance; -1 when row i has none.
	nn := make([]int, n)
	nnd := make([]float64, n)
	scanRow := func(i int) {
		nn[i], nnd[i] = -1, math.Inf(1)
		for j := i + 1; j < n; j++ {
			if active[j] && (nn[i] < 0 || dist(i, j) < nnd[i]) {
				nn[i], nnd[i] = j, dist(i, j)
			}
		}
	}
	for i := range n {
		scanRow(i)
	}

	link := make(Linkage, 0, n-1)
	for step := range n - 1 {
		lo := -1
		for i := range n {
			if active[i] && nn[i] >= 0 && (lo < 0 || nnd[i] < nnd[lo]) {
				lo = i
			}
		}
		hi := nn[lo]
		height := nnd[lo]

		a, b := id[lo], id[hi]
		if a > b {
			a, b = b, a
		}
		merged := size[lo] + size[hi]
		link = append(link, Merge{A: a, B: b, Distance: height, Size: merged})

		for k := range n {
			if !active[k] || k == lo || k == hi {
				continue
			}
			v := (float64(size[lo])*dist(k, lo) + float64(size[hi])*dist(k, hi)) / float64(merged)
			if k < lo {
				d[CondensedIndex(n, k, lo)] = v
			} else {
				d[CondensedIndex(n, lo, k)] = v
			}
		}
		active[hi] = false
		id[lo], size[lo] = n+step, merged

		// Only rows before hi can have pointed at lo or hi.
		for k := range hi {
			if !active[k] {
				continue
			}
			switch {
			case k == lo || nn[k] == lo || nn[k] == hi:
				scanRow(k)
			case k < lo:
				if v := dist(k, lo); v < nnd[k] || (v == nnd[k] && lo < nn[k]) {
					nn[k], nnd[k] = lo, v
				}
			}
		}
	}
	return link, nil
}

// Heights returns the merge distances in step order.
func (l Linkage) Heights() []float64 {
	out := make([]float64, len(l))
	for i, m := range l {
		out[i] = m.Distance
	}
	return out
}
