package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/treebench/iqstat/core/extract"
	"github.com/treebench/iqstat/core/rfdist"
	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/schema"
	"golang.org/x/sync/errgroup"
)

// asymmetryTolerance is the largest |a_ij - a_ji| accepted without a warning.
const asymmetryTolerance = 1e-9

// ResolveRun maps a run prefix (or any of its file names) to the files of that run.
// The log is required; the report and the distance matrix are optional.
func ResolveRun(arg string, cfg *contract.Config) (schema.RunFiles, error) {
	prefix := contract.RunPrefix(arg, cfg.LogSuffix, cfg.ReportSuffix, cfg.MatrixSuffix)
	files := schema.RunFiles{
		Name:    filepath.Base(prefix),
		LogPath: prefix + cfg.LogSuffix,
	}
	if _, err := os.Stat(files.LogPath); err != nil {
		return files, fmt.Errorf("run %s has no log: %w", prefix, err)
	}
	if cfg.ReportSuffix != "" && isRegularFile(prefix+cfg.ReportSuffix) {
		files.ReportPath = prefix + cfg.ReportSuffix
	}
	if cfg.MatrixSuffix != "" && isRegularFile(prefix+cfg.MatrixSuffix) {
		files.MatrixPath = prefix + cfg.MatrixSuffix
	}
	return files, nil
}

// ResolveRuns resolves every argument, failing on the first run without a log.
// Arguments naming the same run are collapsed, keeping the first position.
func ResolveRuns(args []string, cfg *contract.Config) ([]schema.RunFiles, error) {
	runs := make([]schema.RunFiles, 0, len(args))
	for _, arg := range args {
		run, err := ResolveRun(arg, cfg)
		if err != nil {
			return nil, err
		}
		if slices.ContainsFunc(runs, func(r schema.RunFiles) bool { return r.LogPath == run.LogPath }) {
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// AnalyzeRun extracts every configured metric and the fixed summaries of a single run.
// Missing runtime, alignment or topology data is logged and left out of the result;
// a required metric that cannot be found fails the run.
func AnalyzeRun(files schema.RunFiles, cfg *contract.Config) (schema.AnalysisResult, error) {
	result := schema.AnalysisResult{
		Run:          files.Name,
		Metrics:      make(map[string]schema.ExtractedValue, len(cfg.Metrics)),
		AnalysisTime: time.Now(),
	}

	logDoc, err := extract.ReadDocument(files.LogPath)
	if err != nil {
		return result, err
	}
	reportDoc := logDoc
	if files.ReportPath != "" {
		if reportDoc, err = extract.ReadDocument(files.ReportPath); err != nil {
			return result, err
		}
	}
	docFor := func(source schema.MetricSource) *extract.Document {
		if source == schema.LogSource {
			return logDoc
		}
		return reportDoc
	}

	// --- 1. Configured metric queries ---
	for _, spec := range cfg.Metrics {
		q := extract.Query{Marker: spec.Marker, Mode: extract.Cardinality(spec.Mode)}
		doc := docFor(spec.Source)
		if q.Mode == extract.MultipleRequired {
			values, err := extract.AllMatches(doc, q)
			if err != nil {
				return result, fmt.Errorf("metric %s: %w", spec.Name, err)
			}
			if result.Series == nil {
				result.Series = make(map[string][]float64)
			}
			result.Series[spec.Name] = values
			result.Metrics[spec.Name] = schema.Present(slices.Max(values))
			continue
		}
		v, err := extract.FirstMatch(doc, q)
		if err != nil {
			return result, fmt.Errorf("metric %s: %w", spec.Name, err)
		}
		result.Metrics[spec.Name] = v
	}

	// --- 2. Runtime ---
	times, err := extract.AllElapsedTimes(logDoc)
	switch {
	case err == nil:
		result.ElapsedTimes = times
	case errors.Is(err, extract.ErrMissingField):
		log.Warn().Str("run", files.Name).Msg("no runtime line in log")
	default:
		return result, err
	}

	// --- 3. Model and alignment ---
	result.Model = extract.ModelParameters(logDoc)

	alignment, err := extract.PatternsGapsInvariant(logDoc)
	switch {
	case err == nil:
		result.Alignment = &alignment
	case errors.Is(err, extract.ErrMissingField):
		log.Warn().Str("run", files.Name).Err(err).Msg("incomplete alignment summary")
	default:
		return result, err
	}

	// --- 4. Topology ---
	if files.MatrixPath != "" {
		report, err := AnalyzeTopology(files.MatrixPath, cfg.Threshold, false)
		if err != nil {
			return result, err
		}
		result.Topology = &report.TopologySummary
	}

	return result, nil
}

// AnalyzeRuns analyzes independent runs concurrently, bounded by cfg.Workers.
// Results keep the order of runs; the first failure cancels the remaining work.
func AnalyzeRuns(ctx context.Context, cfg *contract.Config, runs []schema.RunFiles) ([]schema.AnalysisResult, error) {
	results := make([]schema.AnalysisResult, len(runs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, run := range runs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := AnalyzeRun(run, cfg)
			if err != nil {
				return fmt.Errorf("analyze run %s: %w", run.Name, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AnalyzeTopology reads a distance matrix and clusters its trees at threshold.
// The merge list is included when withLinkage is set.
func AnalyzeTopology(path string, threshold float64, withLinkage bool) (schema.TopologyReport, error) {
	m, err := rfdist.ReadMatrix(path)
	if err != nil {
		return schema.TopologyReport{}, err
	}
	if asym := m.Asymmetry(); asym > asymmetryTolerance {
		log.Warn().Str("matrix", path).Float64("asymmetry", asym).Msg("distance matrix is not symmetric; using the upper triangle")
	}

	assign, link, err := rfdist.Cluster(m, threshold)
	if err != nil {
		return schema.TopologyReport{}, err
	}
	sum := rfdist.Summarize(m)

	report := schema.TopologyReport{
		TopologySummary: schema.TopologySummary{
			Source:       path,
			Trees:        sum.N,
			Topologies:   assign.Count(),
			MeanDistance: sum.Mean,
			Threshold:    threshold,
			Assignment:   assign,
		},
		Labels: make([]string, m.N()),
	}
	for i := range m.N() {
		report.Labels[i] = m.Label(i)
	}
	if withLinkage {
		report.Linkage = make([]schema.LinkageStep, len(link))
		for i, step := range link {
			report.Linkage[i] = schema.LinkageStep{A: step.A, B: step.B, Distance: step.Distance, Size: step.Size}
		}
	}
	return report, nil
}

// ExtractMetric runs a single ad-hoc query against one file.
// With best set, a multiple-required query reports its maximum instead of its first value.
func ExtractMetric(path string, q extract.Query, best bool) (schema.ExtractionResult, error) {
	result := schema.ExtractionResult{Source: path, Marker: q.Marker, Mode: string(q.Mode)}
	if err := q.Validate(); err != nil {
		return result, err
	}
	doc, err := extract.ReadDocument(path)
	if err != nil {
		return result, err
	}

	if q.Mode != extract.MultipleRequired {
		result.Value, err = extract.FirstMatch(doc, q)
		return result, err
	}
	values, err := extract.AllMatches(doc, q)
	if err != nil {
		return result, err
	}
	result.Values = values
	if best {
		result.Value = schema.Present(slices.Max(values))
	} else {
		result.Value = schema.Present(values[0])
	}
	return result, nil
}

// beginTracking opens a history row for this invocation when a store is configured.
func beginTracking(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) context.Context {
	if mgr == nil {
		return ctx
	}
	analysisStore := mgr.GetAnalysisStore()
	if analysisStore == nil {
		return ctx
	}
	analysisID, err := analysisStore.BeginAnalysis(time.Now(), cfg.ConfigParams())
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return ctx
	}
	if analysisID > 0 {
		ctx = withAnalysisID(ctx, analysisID)
	}
	return ctx
}

// finishTracking records every run result and closes the history row.
func finishTracking(ctx context.Context, mgr contract.StoreManager, results []schema.AnalysisResult) {
	analysisID, ok := getAnalysisID(ctx)
	if !ok || mgr == nil {
		return
	}
	analysisStore := mgr.GetAnalysisStore()
	if analysisStore == nil {
		return
	}
	for _, r := range results {
		if err := analysisStore.RecordRunResult(analysisID, r); err != nil {
			logTrackingError("RecordRunResult", r.Run, err)
		}
	}
	if err := analysisStore.EndAnalysis(analysisID, time.Now(), len(results)); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// logTrackingError logs database tracking errors to stderr without disrupting analysis.
func logTrackingError(operation, run string, err error) {
	contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s on %s", operation, run), err)
}
