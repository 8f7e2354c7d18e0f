// Package rfdist summarizes and clusters pairwise Robinson-Foulds distance matrices.
package rfdist

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Matrix is a square pairwise distance matrix in row-major order.
// It is conceptually symmetric with a zero diagonal; symmetry is not enforced.
type Matrix struct {
	n      int
	data   []float64
	labels []string
}

// NewMatrix builds a matrix from rows. Labels may be nil.
func NewMatrix(labels []string, rows [][]float64) (*Matrix, error) {
	n := len(rows)
	if n < 1 {
		return nil, malformed(0, "matrix must have at least one row")
	}
	if labels != nil && len(labels) != n {
		return nil, malformed(0, "got %d labels for %d rows", len(labels), n)
	}
	m := &Matrix{n: n, data: make([]float64, 0, n*n), labels: labels}
	for i, row := range rows {
		if len(row) != n {
			return nil, malformed(0, "row %d has %d values, want %d", i, len(row), n)
		}
		for j, v := range row {
			if !validDistance(v) {
				return nil, malformed(0, "entry (%d, %d) = %v is not a finite non-negative distance", i, j, v)
			}
		}
		m.data = append(m.data, row...)
	}
	if m.labels == nil {
		m.labels = make([]string, n)
		for i := range n {
			m.labels[i] = fmt.Sprintf("Tree%d", i)
		}
	}
	return m, nil
}

func validDistance(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// ParseMatrix reads the IQ-TREE .rfdist layout: the first line's leading token is the
// tree count n, followed by n rows of a label and n distances. Blank lines are skipped;
// content after the n-th row is ignored.
func ParseMatrix(r io.Reader) (*Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			lineNo++
			if fields := strings.Fields(sc.Text()); len(fields) > 0 {
				return fields, true
			}
		}
		return nil, false
	}

	header, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, malformed(0, "empty document")
	}
	n, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, malformed(lineNo, "tree count %q is not an integer", header[0])
	}
	if n < 1 {
		return nil, malformed(lineNo, "tree count %d is less than 1", n)
	}

	// The header count is untrusted.
	hint := min(n, 1024)
	m := &Matrix{n: n, data: make([]float64, 0, hint*hint), labels: make([]string, 0, hint)}
	for row := range n {
		fields, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, malformed(0, "found %d of %d rows", row, n)
		}
		if len(fields)-1 != n {
			return nil, malformed(lineNo, "row %q has %d values, want %d", fields[0], len(fields)-1, n)
		}
		m.labels = append(m.labels, fields[0])
		for _, tok := range fields[1:] {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil || !validDistance(v) {
				return nil, malformed(lineNo, "entry %q is not a finite non-negative distance", tok)
			}
			m.data = append(m.data, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadMatrix parses the matrix file at path. I/O errors are returned unchanged.
func ReadMatrix(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	m, err := ParseMatrix(f)
	if mm, ok := err.(*MalformedMatrixError); ok {
		mm.Source = path
	}
	return m, err
}

// N is the number of trees.
func (m *Matrix) N() int { return m.n }

// At returns the distance between trees i and j.
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.n+j] }

// Label returns the row label of tree i.
func (m *Matrix) Label(i int) string { return m.labels[i] }

// Asymmetry is the largest |a[i][j] - a[j][i]|.
func (m *Matrix) Asymmetry() float64 {
	var worst float64
	for i := range m.n {
		for j := i + 1; j < m.n; j++ {
			worst = max(worst, math.Abs(m.At(i, j)-m.At(j, i)))
		}
	}
	return worst
}

// Permute returns the matrix with rows and columns reordered so that new index k is old perm[k].
func (m *Matrix) Permute(perm []int) (*Matrix, error) {
	if len(perm) != m.n {
		return nil, fmt.Errorf("rfdist: permutation of length %d for %d trees", len(perm), m.n)
	}
	seen := make([]bool, m.n)
	for _, p := range perm {
		if p < 0 || p >= m.n || seen[p] {
			return nil, fmt.Errorf("rfdist: %v is not a permutation", perm)
		}
		seen[p] = true
	}
	out := &Matrix{n: m.n, data: make([]float64, m.n*m.n), labels: make([]string, m.n)}
	for a, pa := range perm {
		out.labels[a] = m.labels[pa]
		for b, pb := range perm {
			out.data[a*m.n+b] = m.At(pa, pb)
		}
	}
	return out, nil
}

// Condensed returns the strictly upper triangle in row-major order,
// n(n-1)/2 values with pair (i, j) at CondensedIndex(n, i, j).
func Condensed(m *Matrix) []float64 {
	out := make([]float64, 0, m.n*(m.n-1)/2)
	for i := range m.n {
		for j := i + 1; j < m.n; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

// CondensedIndex locates pair i < j in a condensed vector for n observations.
func CondensedIndex(n, i, j int) int {
	return n*i - i*(i+1)/2 + (j - i - 1)
}
