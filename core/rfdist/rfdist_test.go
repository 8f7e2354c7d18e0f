package rfdist

import (
	"errors"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treebench/iqstat/schema"
)

const threeTrees = "3\nT0 0.0 0.2 0.9\nT1 0.2 0.0 0.85\nT2 0.9 0.85 0.0\n"

func mustParse(t *testing.T, text string) *Matrix {
	t.Helper()
	m, err := ParseMatrix(strings.NewReader(text))
	require.NoError(t, err)
	return m
}

// randomMatrix builds a symmetric zero-diagonal matrix with values in [0, 1).
func randomMatrix(t *testing.T, r *rand.Rand, n int) *Matrix {
	t.Helper()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			v := r.Float64()
			rows[i][j], rows[j][i] = v, v
		}
	}
	m, err := NewMatrix(nil, rows)
	require.NoError(t, err)
	return m
}

func TestParseMatrix(t *testing.T) {
	m := mustParse(t, threeTrees)
	assert.Equal(t, 3, m.N())
	assert.Equal(t, "T1", m.Label(1))
	assert.InDelta(t, 0.85, m.At(1, 2), 1e-12)
	assert.InDelta(t, 0.85, m.At(2, 1), 1e-12)
	assert.Zero(t, m.Asymmetry())
	assert.Equal(t, []float64{0.2, 0.9, 0.85}, Condensed(m))
}

func TestParseMatrix_Tolerances(t *testing.T) {
	// Extra header tokens, blank lines and trailing content are accepted.
	m := mustParse(t, "2 trees\n\nA 0 0.5\r\n\nB 0.5 0\nsomething else\n")
	assert.Equal(t, 2, m.N())
	assert.InDelta(t, 0.5, m.At(0, 1), 1e-12)
}

func TestParseMatrix_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"blank only", "\n\n  \n"},
		{"non-integer count", "three\nT0 0.0\n"},
		{"zero count", "0\n"},
		{"negative count", "-2\n"},
		{"missing rows", "3\nT0 0.0 0.2 0.9\nT1 0.2 0.0 0.85\n"},
		{"short row", "2\nT0 0.0\nT1 0.2 0.0\n"},
		{"long row", "2\nT0 0.0 0.2 0.3\nT1 0.2 0.0\n"},
		{"non-numeric entry", "2\nT0 0.0 x\nT1 0.2 0.0\n"},
		{"nan entry", "2\nT0 0.0 NaN\nT1 0.2 0.0\n"},
		{"infinite entry", "2\nT0 0.0 +Inf\nT1 0.2 0.0\n"},
		{"negative entry", "2\nA 0.0 -0.5\nB -0.5 0.0\n"},
		{"single tree without row", "1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMatrix(strings.NewReader(tt.text))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedMatrix)
			var mm *MalformedMatrixError
			assert.True(t, errors.As(err, &mm))
		})
	}
}

func TestReadMatrix(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "run.rfdist")
	require.NoError(t, os.WriteFile(good, []byte(threeTrees), 0o644))
	m, err := ReadMatrix(good)
	require.NoError(t, err)
	assert.Equal(t, 3, m.N())

	bad := filepath.Join(dir, "bad.rfdist")
	require.NoError(t, os.WriteFile(bad, []byte("2\nT0 0.0 0.1\n"), 0o644))
	_, err = ReadMatrix(bad)
	var mm *MalformedMatrixError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, bad, mm.Source)
	assert.Contains(t, err.Error(), bad)

	_, err = ReadMatrix(filepath.Join(dir, "missing.rfdist"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrMalformedMatrix)
}

func TestThreeTreeScenario(t *testing.T) {
	m := mustParse(t, threeTrees)

	sum := Summarize(m)
	assert.Equal(t, 3, sum.N)
	assert.InDelta(t, 0.65, sum.Mean, 1e-12)

	tests := []struct {
		threshold float64
		expected  []schema.TopologyCluster
		labels    []int
	}{
		{0.1, []schema.TopologyCluster{{0}, {1}, {2}}, []int{1, 2, 3}},
		{0.2, []schema.TopologyCluster{{0, 1}, {2}}, []int{1, 1, 2}},
		{0.5, []schema.TopologyCluster{{0, 1}, {2}}, []int{1, 1, 2}},
		{0.95, []schema.TopologyCluster{{0, 1, 2}}, []int{1, 1, 1}},
	}
	for _, tt := range tests {
		assign, _, err := Cluster(m, tt.threshold)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, assign.Clusters, "threshold %v", tt.threshold)
		assert.Equal(t, tt.labels, assign.Labels, "threshold %v", tt.threshold)
	}

	summary, err := Analyze(m, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Trees)
	assert.Equal(t, 3, summary.Topologies)
	assert.InDelta(t, 0.65, summary.MeanDistance, 1e-12)
	assert.InDelta(t, DefaultThreshold, summary.Threshold, 0)
}

func TestAverageLinkage_ThreeTrees(t *testing.T) {
	m := mustParse(t, threeTrees)
	link, err := AverageLinkage(Condensed(m), 3)
	require.NoError(t, err)
	require.Len(t, link, 2)

	assert.Equal(t, 0, link[0].A)
	assert.Equal(t, 1, link[0].B)
	assert.InDelta(t, 0.2, link[0].Distance, 1e-12)
	assert.Equal(t, 2, link[0].Size)

	assert.Equal(t, 2, link[1].A)
	assert.Equal(t, 3, link[1].B)
	assert.InDelta(t, 0.875, link[1].Distance, 1e-12)
	assert.Equal(t, 3, link[1].Size)
}

func TestAverageLinkage_Errors(t *testing.T) {
	_, err := AverageLinkage(nil, 0)
	assert.Error(t, err)
	_, err = AverageLinkage([]float64{0.1, 0.2}, 3)
	assert.Error(t, err)

	link, err := AverageLinkage(nil, 1)
	require.NoError(t, err)
	assert.Empty(t, link)
}

func TestAverageLinkage_TiesGoToLowestPair(t *testing.T) {
	// Every pair is equidistant; merges must follow scan order.
	m, err := NewMatrix(nil, [][]float64{
		{0, 1, 1, 1},
		{1, 0, 1, 1},
		{1, 1, 0, 1},
		{1, 1, 1, 0},
	})
	require.NoError(t, err)
	link, err := AverageLinkage(Condensed(m), 4)
	require.NoError(t, err)
	require.Len(t, link, 3)
	assert.Equal(t, Merge{A: 0, B: 1, Distance: 1, Size: 2}, link[0])
	assert.Equal(t, Merge{A: 2, B: 4, Distance: 1, Size: 3}, link[1])
	assert.Equal(t, Merge{A: 3, B: 5, Distance: 1, Size: 4}, link[2])
}

// naiveAverageLinkage recomputes every cluster distance from the original matrix.
func naiveAverageLinkage(m *Matrix) []float64 {
	clusters := make([][]int, m.N())
	for i := range clusters {
		clusters[i] = []int{i}
	}
	var heights []float64
	for len(clusters) > 1 {
		bi, bj, best := 0, 1, math.Inf(1)
		for i := range clusters {
			for j := i + 1; j < len(clusters); j++ {
				var total float64
				for _, a := range clusters[i] {
					for _, b := range clusters[j] {
						total += m.At(a, b)
					}
				}
				if d := total / float64(len(clusters[i])*len(clusters[j])); d < best {
					bi, bj, best = i, j, d
				}
			}
		}
		heights = append(heights, best)
		clusters[bi] = append(clusters[bi], clusters[bj]...)
		clusters = append(clusters[:bj], clusters[bj+1:]...)
	}
	return heights
}

func TestAverageLinkage_MatchesNaive(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for _, n := range []int{2, 3, 5, 8, 13, 21} {
		m := randomMatrix(t, r, n)
		link, err := AverageLinkage(Condensed(m), n)
		require.NoError(t, err)
		require.Len(t, link, n-1)

		want := naiveAverageLinkage(m)
		got := link.Heights()
		require.Len(t, got, len(want))
		for k := range want {
			assert.InDelta(t, want[k], got[k], 1e-9, "n=%d step=%d", n, k)
		}
		assert.Equal(t, n, link[n-2].Size)
	}
}

func TestClusterPartitionsAllTrees(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for _, n := range []int{1, 2, 4, 9, 30} {
		m := randomMatrix(t, r, n)
		for _, threshold := range []float64{0, 0.1, 0.3, 0.5, 0.8, 1} {
			assign, _, err := Cluster(m, threshold)
			require.NoError(t, err)

			seen := make([]int, n)
			for k, c := range assign.Clusters {
				require.NotEmpty(t, c)
				assert.IsIncreasing(t, []int(c))
				if k > 0 {
					assert.Less(t, assign.Clusters[k-1][0], c[0])
				}
				for _, tree := range c {
					seen[tree]++
					assert.Equal(t, k+1, assign.Labels[tree])
				}
			}
			for tree, count := range seen {
				assert.Equal(t, 1, count, "tree %d at n=%d threshold=%v", tree, n, threshold)
			}
		}
	}
}

func TestClusterMonotoneInThreshold(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	m := randomMatrix(t, r, 25)
	prev := math.MaxInt
	for threshold := 0.0; threshold <= 1.0; threshold += 0.05 {
		assign, _, err := Cluster(m, threshold)
		require.NoError(t, err)
		assert.LessOrEqual(t, assign.Count(), prev, "threshold %v", threshold)
		prev = assign.Count()
	}
	assert.Equal(t, 1, prev)
}

func TestSummarizeAndCountArePermutationInvariant(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 9))
	m := randomMatrix(t, r, 12)
	base, err := Analyze(m, 0.4)
	require.NoError(t, err)

	for range 5 {
		perm := r.Perm(m.N())
		pm, err := m.Permute(perm)
		require.NoError(t, err)

		got, err := Analyze(pm, 0.4)
		require.NoError(t, err)
		assert.InDelta(t, base.MeanDistance, got.MeanDistance, 1e-12)
		assert.Equal(t, base.Topologies, got.Topologies)
		assert.Equal(t, schema.LargestCluster(base.Assignment), schema.LargestCluster(got.Assignment))
	}

	_, err = m.Permute([]int{0, 0})
	assert.Error(t, err)
}

func TestDegenerateMatrices(t *testing.T) {
	one := mustParse(t, "1\nT0 0.0\n")
	summary, err := Analyze(one, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Trees)
	assert.Equal(t, 1, summary.Topologies)
	assert.Zero(t, summary.MeanDistance)
	assert.Equal(t, []schema.TopologyCluster{{0}}, summary.Assignment.Clusters)
	assert.Equal(t, []int{1}, summary.Assignment.Labels)

	two := mustParse(t, "2\nA 0 0.05\nB 0.05 0\n")
	assign, link, err := Cluster(two, DefaultThreshold)
	require.NoError(t, err)
	require.Len(t, link, 1)
	assert.Equal(t, []schema.TopologyCluster{{0, 1}}, assign.Clusters)

	apart := mustParse(t, "2\nA 0 0.3\nB 0.3 0\n")
	assign, _, err = Cluster(apart, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, []schema.TopologyCluster{{0}, {1}}, assign.Clusters)

	// The cut is inclusive.
	assign, _, err = Cluster(apart, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 1, assign.Count())
}

func TestInvalidThreshold(t *testing.T) {
	m := mustParse(t, threeTrees)
	for _, threshold := range []float64{-0.1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, _, err := Cluster(m, threshold)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
		_, err = Analyze(m, threshold)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	}
	assert.NoError(t, ValidateThreshold(0))
	assert.NoError(t, ValidateThreshold(2.5))
}

func TestAsymmetry(t *testing.T) {
	m := mustParse(t, "2\nA 0 0.3\nB 0.1 0\n")
	assert.InDelta(t, 0.2, m.Asymmetry(), 1e-12)
	// Only the upper triangle feeds the mean.
	assert.InDelta(t, 0.3, Summarize(m).Mean, 1e-12)
}

func TestNewMatrixErrors(t *testing.T) {
	_, err := NewMatrix(nil, nil)
	assert.ErrorIs(t, err, ErrMalformedMatrix)
	_, err = NewMatrix(nil, [][]float64{{0, 1}, {1}})
	assert.ErrorIs(t, err, ErrMalformedMatrix)
	_, err = NewMatrix([]string{"a"}, [][]float64{{0, 1}, {1, 0}})
	assert.ErrorIs(t, err, ErrMalformedMatrix)
	_, err = NewMatrix(nil, [][]float64{{0, -0.5}, {-0.5, 0}})
	assert.ErrorIs(t, err, ErrMalformedMatrix)
	_, err = NewMatrix(nil, [][]float64{{0, math.NaN()}, {0, 0}})
	assert.ErrorIs(t, err, ErrMalformedMatrix)

	m, err := NewMatrix(nil, [][]float64{{0}})
	require.NoError(t, err)
	assert.Equal(t, "Tree0", m.Label(0))
}

func TestCondensedIndex(t *testing.T) {
	n := 5
	k := 0
	for i := range n {
		for j := i + 1; j < n; j++ {
			assert.Equal(t, k, CondensedIndex(n, i, j))
			k++
		}
	}
}
