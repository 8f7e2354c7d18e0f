package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/treebench/iqstat/core"
	"github.com/treebench/iqstat/core/extract"
	"github.com/treebench/iqstat/core/rfdist"
	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

func (h *toolHandler) handleExtractMetric(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := extract.ParseCardinality(request.GetString("mode", string(extract.SingleRequired)))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid query: %v", err)), nil
	}
	q := extract.Query{Marker: request.GetString("marker", ""), Mode: mode}

	result, err := core.ExtractMetric(path, q, request.GetBool("best", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extraction failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleAnalyzeRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := applyThreshold(cfg, request); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	runs := request.GetStringSlice("runs", nil)
	if len(runs) == 0 {
		return mcp.NewToolResultError("at least one run is required"), nil
	}

	results, _, err := core.GetAnalyzeResults(core.WithSuppressHeader(ctx), cfg, h.mgr, runs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(schema.EnrichRuns(results))
}

func (h *toolHandler) handleClusterTopologies(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := applyThreshold(cfg, request); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := core.AnalyzeTopology(path, cfg.Threshold, request.GetBool("linkage", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clustering failed: %v", err)), nil
	}
	return jsonResult(report)
}

// applyThreshold overrides the configured cut height when the request carries one.
func applyThreshold(cfg *contract.Config, request mcp.CallToolRequest) error {
	args := request.GetArguments()
	if _, ok := args["threshold"]; !ok {
		return nil
	}
	threshold := request.GetFloat("threshold", cfg.Threshold)
	if err := rfdist.ValidateThreshold(threshold); err != nil {
		return fmt.Errorf("invalid threshold: %w", err)
	}
	cfg.Threshold = threshold
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
