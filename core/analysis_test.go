package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treebench/iqstat/core/extract"
	"github.com/treebench/iqstat/core/rfdist"
	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/schema"
)

const testReport = `IQ-TREE 2.2.0 built Jun  1 2022

Input file name: example.phy
Type of analysis: tree reconstruction
Random seed number: 573771

SUBSTITUTION PROCESS
--------------------

Model of substitution: GTR+F+G4

State frequencies: (empirical counts from alignment)

  pi(A) = 0.2500
  pi(C) = 0.2500
  pi(G) = 0.2500
  pi(T) = 0.2500

Model of rate heterogeneity: Gamma with 4 categories
Gamma shape alpha: 0.8453

MAXIMUM LIKELIHOOD TREE
-----------------------

Log-likelihood of the tree: -1230.0001 (s.e. 45.1234)
Unconstrained log-likelihood (without tree): -980.3360
Number of free parameters (#branches + #model parameters): 45
Akaike information criterion (AIC) score: 2550.0002
Bayesian information criterion (BIC) score: 2770.9000
`

const testLog = `Reading alignment file example.phy ...
Alignment has 20 sequences with 1000 columns, 512 distinct patterns
350 parsimony-informative, 150 singleton sites, 500 constant sites
                    Gap/Ambiguity  Composition  p-value
****  TOTAL                 3.42%  0 sequences failed composition chi2 test (p-value<5%; df=3)
Base frequencies:  A: 0.250 C: 0.250 G: 0.250 T: 0.250
Rate heterogeneity: Gamma with 4 categories
Initial log-likelihood: -1300.1234
Optimal log-likelihood: -1234.5678 (s.e. 45.1234)
Optimal log-likelihood: -1230.0001
Optimal log-likelihood: -1240.25
Total wall-clock time used: 0.124 sec (0h:0m:0s)
Elapsed time: 63514.086 seconds
`

const testMatrix = "3\nT0 0.0 0.2 0.9\nT1 0.2 0.0 0.85\nT2 0.9 0.85 0.0\n"

// testConfig returns a validated config with the preset metrics.
func testConfig(t *testing.T) *contract.Config {
	t.Helper()
	cfg := &contract.Config{}
	require.NoError(t, contract.ProcessAndValidate(cfg, &contract.ConfigRawInput{
		Threshold:    contract.DefaultThreshold,
		Workers:      2,
		Precision:    contract.DefaultPrecision,
		Output:       "json",
		Color:        "no",
		LogSuffix:    contract.DefaultLogSuffix,
		ReportSuffix: contract.DefaultReportSuffix,
		MatrixSuffix: contract.DefaultMatrixSuffix,
	}))
	return cfg
}

// writeRun writes the given run files under dir and returns the run prefix.
func writeRun(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()
	prefix := filepath.Join(dir, name)
	for suffix, content := range files {
		require.NoError(t, os.WriteFile(prefix+suffix, []byte(content), 0o644))
	}
	return prefix
}

func TestResolveRun(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	full := writeRun(t, dir, "full", map[string]string{".log": testLog, ".iqtree": testReport, ".rfdist": testMatrix})
	bare := writeRun(t, dir, "bare", map[string]string{".log": testLog})

	t.Run("prefix", func(t *testing.T) {
		run, err := ResolveRun(full, cfg)
		require.NoError(t, err)
		assert.Equal(t, "full", run.Name)
		assert.Equal(t, full+".log", run.LogPath)
		assert.Equal(t, full+".iqtree", run.ReportPath)
		assert.Equal(t, full+".rfdist", run.MatrixPath)
	})

	t.Run("file name", func(t *testing.T) {
		run, err := ResolveRun(full+".iqtree", cfg)
		require.NoError(t, err)
		assert.Equal(t, full+".log", run.LogPath)
	})

	t.Run("optional files missing", func(t *testing.T) {
		run, err := ResolveRun(bare, cfg)
		require.NoError(t, err)
		assert.Empty(t, run.ReportPath)
		assert.Empty(t, run.MatrixPath)
	})

	t.Run("matrix disabled", func(t *testing.T) {
		noMatrix := cfg.Clone()
		noMatrix.MatrixSuffix = ""
		run, err := ResolveRun(full, noMatrix)
		require.NoError(t, err)
		assert.Empty(t, run.MatrixPath)
	})

	t.Run("missing log", func(t *testing.T) {
		_, err := ResolveRun(filepath.Join(dir, "absent"), cfg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestResolveRuns_Deduplicates(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	a := writeRun(t, dir, "a", map[string]string{".log": testLog})
	b := writeRun(t, dir, "b", map[string]string{".log": testLog})

	runs, err := ResolveRuns([]string{b, a + ".log", b + ".log", a}, cfg)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].Name)
	assert.Equal(t, "a", runs[1].Name)
}

func TestAnalyzeRun_FullRun(t *testing.T) {
	cfg := testConfig(t)
	prefix := writeRun(t, t.TempDir(), "full", map[string]string{".log": testLog, ".iqtree": testReport, ".rfdist": testMatrix})
	run, err := ResolveRun(prefix, cfg)
	require.NoError(t, err)

	result, err := AnalyzeRun(run, cfg)
	require.NoError(t, err)

	assert.Equal(t, "full", result.Run)
	assert.Equal(t, schema.Present(-1234.5678), result.Metric(schema.MetricOptimalLLH))
	assert.Equal(t, schema.Present(-1300.1234), result.Metric(schema.MetricStartingLLH))
	assert.Equal(t, schema.Present(-1230.0001), result.Metric(schema.MetricBestLLH))
	assert.Equal(t, []float64{-1234.5678, -1230.0001, -1240.25}, result.Series[schema.MetricBestLLH])

	assert.Equal(t, []float64{0.124, 63514.086}, result.ElapsedTimes)

	require.NotNil(t, result.Model.RateHeterogeneity)
	assert.Equal(t, "Gamma with 4 categories", *result.Model.RateHeterogeneity)
	require.NotNil(t, result.Model.BaseFrequencies)
	assert.Equal(t, "A: 0.250 C: 0.250 G: 0.250 T: 0.250", *result.Model.BaseFrequencies)

	require.NotNil(t, result.Alignment)
	assert.Equal(t, 512, result.Alignment.Patterns)
	assert.InDelta(t, 0.0342, result.Alignment.Gaps, 1e-9)
	assert.InDelta(t, 0.5, result.Alignment.Invariant, 1e-9)

	require.NotNil(t, result.Topology)
	assert.Equal(t, 3, result.Topology.Trees)
	assert.Equal(t, 3, result.Topology.Topologies)
	assert.InDelta(t, 0.65, result.Topology.MeanDistance, 1e-9)
	assert.Equal(t, prefix+".rfdist", result.Topology.Source)
	assert.False(t, result.AnalysisTime.IsZero())
}

func TestAnalyzeRun_LogAndReport(t *testing.T) {
	cfg := testConfig(t)
	withBIC := cfg.Clone()
	withBIC.Metrics = append(withBIC.Metrics, schema.MetricSpec{
		Name: "bic", Marker: "Bayesian information criterion (BIC) score:", Mode: "single-optional", Source: schema.ReportSource,
	})

	t.Run("presets read the log of a standard output directory", func(t *testing.T) {
		prefix := writeRun(t, t.TempDir(), "run", map[string]string{
			".log":    "Optimal log-likelihood: -1234.5678\nRate heterogeneity: Uniform\n",
			".iqtree": testReport,
		})
		run, err := ResolveRun(prefix, withBIC)
		require.NoError(t, err)
		require.NotEmpty(t, run.ReportPath)

		result, err := AnalyzeRun(run, withBIC)
		require.NoError(t, err)
		assert.Equal(t, schema.Present(-1234.5678), result.Metric(schema.MetricOptimalLLH))
		assert.Equal(t, []float64{-1234.5678}, result.Series[schema.MetricBestLLH])
		assert.False(t, result.Metric(schema.MetricStartingLLH).Found)
		assert.Equal(t, schema.Present(2770.9), result.Metric("bic"))
		require.NotNil(t, result.Model.RateHeterogeneity)
		assert.Equal(t, "Uniform", *result.Model.RateHeterogeneity)
		assert.Nil(t, result.Model.BaseFrequencies)
	})

	t.Run("report metrics fall back to the log without a report", func(t *testing.T) {
		prefix := writeRun(t, t.TempDir(), "logonly", map[string]string{
			".log": testLog + "Bayesian information criterion (BIC) score: 2801.5\n",
		})
		run, err := ResolveRun(prefix, withBIC)
		require.NoError(t, err)

		result, err := AnalyzeRun(run, withBIC)
		require.NoError(t, err)
		assert.Equal(t, schema.Present(2801.5), result.Metric("bic"))
		assert.Equal(t, schema.Present(-1234.5678), result.Metric(schema.MetricOptimalLLH))
		assert.Nil(t, result.Topology)
	})

	t.Run("report alone does not satisfy the presets", func(t *testing.T) {
		prefix := writeRun(t, t.TempDir(), "reportonly", map[string]string{
			".log":    "nothing useful here\n",
			".iqtree": testReport,
		})
		run, err := ResolveRun(prefix, cfg)
		require.NoError(t, err)

		_, err = AnalyzeRun(run, cfg)
		assert.ErrorIs(t, err, extract.ErrMissingField)
	})
}

func TestAnalyzeRun_MissingPieces(t *testing.T) {
	cfg := testConfig(t)

	t.Run("required metric missing fails the run", func(t *testing.T) {
		prefix := writeRun(t, t.TempDir(), "broken", map[string]string{".log": "nothing useful here\n"})
		run, err := ResolveRun(prefix, cfg)
		require.NoError(t, err)

		_, err = AnalyzeRun(run, cfg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, extract.ErrMissingField))
		assert.Contains(t, err.Error(), schema.MetricOptimalLLH)
	})

	t.Run("runtime and alignment are optional", func(t *testing.T) {
		prefix := writeRun(t, t.TempDir(), "sparse", map[string]string{".log": "Optimal log-likelihood: -10.5\n"})
		run, err := ResolveRun(prefix, cfg)
		require.NoError(t, err)

		result, err := AnalyzeRun(run, cfg)
		require.NoError(t, err)
		assert.Empty(t, result.ElapsedTimes)
		assert.Nil(t, result.Alignment)
		assert.False(t, result.ElapsedSeconds().Found)
	})

	t.Run("malformed matrix fails the run", func(t *testing.T) {
		prefix := writeRun(t, t.TempDir(), "badmatrix", map[string]string{".log": testLog, ".rfdist": "3\nT0 0.0 0.1\n"})
		run, err := ResolveRun(prefix, cfg)
		require.NoError(t, err)

		_, err = AnalyzeRun(run, cfg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, rfdist.ErrMalformedMatrix))
	})

	t.Run("custom log metric", func(t *testing.T) {
		custom := cfg.Clone()
		custom.Metrics = append(custom.Metrics, schema.MetricSpec{
			Name: "modelfinder_time", Marker: "Total wall-clock time used:", Mode: "single-optional", Source: schema.LogSource,
		})
		prefix := writeRun(t, t.TempDir(), "custom", map[string]string{".log": testLog, ".iqtree": testReport})
		run, err := ResolveRun(prefix, custom)
		require.NoError(t, err)

		result, err := AnalyzeRun(run, custom)
		require.NoError(t, err)
		assert.Equal(t, schema.Present(0.124), result.Metric("modelfinder_time"))
	})
}

func TestAnalyzeRuns(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	var runs []schema.RunFiles
	for _, name := range []string{"r1", "r2", "r3", "r4", "r5"} {
		prefix := writeRun(t, dir, name, map[string]string{".log": testLog, ".iqtree": testReport})
		run, err := ResolveRun(prefix, cfg)
		require.NoError(t, err)
		runs = append(runs, run)
	}

	t.Run("keeps input order", func(t *testing.T) {
		results, err := AnalyzeRuns(context.Background(), cfg, runs)
		require.NoError(t, err)
		require.Len(t, results, len(runs))
		for i, r := range results {
			assert.Equal(t, runs[i].Name, r.Run)
		}
	})

	t.Run("single worker", func(t *testing.T) {
		serial := cfg.Clone()
		serial.Workers = 1
		results, err := AnalyzeRuns(context.Background(), serial, runs)
		require.NoError(t, err)
		assert.Len(t, results, len(runs))
	})

	t.Run("first failure is reported", func(t *testing.T) {
		broken := writeRun(t, dir, "broken", map[string]string{".log": "no values\n"})
		run, err := ResolveRun(broken, cfg)
		require.NoError(t, err)

		_, err = AnalyzeRuns(context.Background(), cfg, append(runs[:2:2], run))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "analyze run broken")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := AnalyzeRuns(ctx, cfg, runs)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAnalyzeTopology(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trees.rfdist")
	require.NoError(t, os.WriteFile(path, []byte(testMatrix), 0o644))

	t.Run("default threshold", func(t *testing.T) {
		report, err := AnalyzeTopology(path, 0.1, false)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Topologies)
		assert.Equal(t, []string{"T0", "T1", "T2"}, report.Labels)
		assert.Empty(t, report.Linkage)
	})

	t.Run("with linkage", func(t *testing.T) {
		report, err := AnalyzeTopology(path, 0.5, true)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Topologies)
		assert.Equal(t, []schema.TopologyCluster{{0, 1}, {2}}, report.Assignment.Clusters)
		require.Len(t, report.Linkage, 2)
		assert.Equal(t, schema.LinkageStep{A: 0, B: 1, Distance: 0.2, Size: 2}, report.Linkage[0])
		assert.Equal(t, 3, report.Linkage[1].Size)
		assert.InDelta(t, 0.875, report.Linkage[1].Distance, 1e-12)
	})

	t.Run("asymmetric matrix is accepted", func(t *testing.T) {
		asym := filepath.Join(t.TempDir(), "asym.rfdist")
		require.NoError(t, os.WriteFile(asym, []byte("2\nA 0.0 0.1\nB 0.3 0.0\n"), 0o644))
		report, err := AnalyzeTopology(asym, 0.1, false)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Topologies)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := AnalyzeTopology(path, -1, false)
		assert.ErrorIs(t, err, rfdist.ErrInvalidThreshold)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := AnalyzeTopology(filepath.Join(t.TempDir(), "absent.rfdist"), 0.1, false)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestExtractMetric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(path, []byte(testLog), 0o644))

	t.Run("single", func(t *testing.T) {
		res, err := ExtractMetric(path, extract.OptimalLogLikelihood, false)
		require.NoError(t, err)
		assert.Equal(t, schema.Present(-1234.5678), res.Value)
		assert.Empty(t, res.Values)
	})

	t.Run("multiple first", func(t *testing.T) {
		res, err := ExtractMetric(path, extract.AllLogLikelihoods, false)
		require.NoError(t, err)
		assert.Equal(t, schema.Present(-1234.5678), res.Value)
		assert.Len(t, res.Values, 3)
	})

	t.Run("multiple best", func(t *testing.T) {
		res, err := ExtractMetric(path, extract.AllLogLikelihoods, true)
		require.NoError(t, err)
		assert.Equal(t, schema.Present(-1230.0001), res.Value)
	})

	t.Run("optional absent", func(t *testing.T) {
		res, err := ExtractMetric(path, extract.Query{Marker: "BEST SCORE FOUND :", Mode: extract.SingleOptional}, false)
		require.NoError(t, err)
		assert.False(t, res.Value.Found)
	})

	t.Run("report line", func(t *testing.T) {
		report := filepath.Join(t.TempDir(), "run.iqtree")
		require.NoError(t, os.WriteFile(report, []byte(testReport), 0o644))
		res, err := ExtractMetric(report, extract.Query{Marker: "Log-likelihood of the tree:", Mode: extract.SingleRequired}, false)
		require.NoError(t, err)
		assert.Equal(t, schema.Present(-1230.0001), res.Value)
	})

	t.Run("invalid query", func(t *testing.T) {
		_, err := ExtractMetric(path, extract.Query{Marker: ""}, false)
		assert.ErrorIs(t, err, extract.ErrInvalidQuery)
	})
}
