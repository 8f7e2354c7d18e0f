// Package core has core logic for analyzing IQ-TREE runs.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/treebench/iqstat/core/extract"
	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/internal/outwriter"
	"github.com/treebench/iqstat/schema"
)

// ExecuteAnalyze analyzes every run named in args and prints the results.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, args []string) error {
	results, duration, err := GetAnalyzeResults(ctx, cfg, mgr, args)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRuns(results, cfg, duration)
}

// GetAnalyzeResults resolves and analyzes runs, recording them when history is enabled.
func GetAnalyzeResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, args []string) ([]schema.AnalysisResult, time.Duration, error) {
	start := time.Now()
	if len(args) == 0 {
		return nil, 0, errors.New("no runs given")
	}
	runs, err := ResolveRuns(args, cfg)
	if err != nil {
		return nil, 0, err
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogAnalysisHeader(cfg, runs)
	}

	ctx = beginTracking(ctx, cfg, mgr)
	results, err := AnalyzeRuns(ctx, cfg, runs)
	if err != nil {
		return nil, 0, err
	}
	finishTracking(ctx, mgr, results)

	return results, time.Since(start), nil
}

// ExecuteExtract runs one ad-hoc query and prints the extracted value.
// It serves as the main entry point for the 'extract' command.
func ExecuteExtract(_ context.Context, cfg *contract.Config, path string, q extract.Query, best bool) error {
	result, err := ExtractMetric(path, q, best)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteExtraction(result, cfg)
}

// ExecuteTopology clusters the trees of a distance matrix and prints the clusters.
// It serves as the main entry point for the 'topology' command.
func ExecuteTopology(_ context.Context, cfg *contract.Config, path string, withLinkage bool) error {
	start := time.Now()
	report, err := AnalyzeTopology(path, cfg.Threshold, withLinkage)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteTopology(report, cfg, time.Since(start))
}
