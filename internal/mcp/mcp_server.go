// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/treebench/iqstat/internal/contract"
)

// NewMCPServer initializes and configures the iqstat MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"IQ-TREE Statistics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: extract_metric ---
	s.AddTool(mcp.NewTool("extract_metric",
		mcp.WithDescription("Extract the number that follows a marker in an IQ-TREE log or report file."),
		mcp.WithString("path", mcp.Description("Path to the log or .iqtree report file."), mcp.Required()),
		mcp.WithString("marker", mcp.Description("Text that precedes the value on its line, e.g. 'Optimal log-likelihood:'."), mcp.Required()),
		mcp.WithString("mode", mcp.Description("How many matches are expected. Defaults to 'single-required'."),
			mcp.Enum("single-required", "single-optional", "multiple-required")),
		mcp.WithBoolean("best", mcp.Description("For multiple-required, report the largest match instead of the first.")),
	), h.handleExtractMetric)

	// --- 2. Tool: analyze_run ---
	s.AddTool(mcp.NewTool("analyze_run",
		mcp.WithDescription("Analyze one or more IQ-TREE runs: log-likelihoods, runtime, model, alignment and topology summary."),
		mcp.WithArray("runs", mcp.Description("Run prefixes or run file paths, e.g. 'results/run1' or 'results/run1.log'."),
			mcp.Required(), mcp.WithStringItems()),
		mcp.WithNumber("threshold", mcp.Description("Cut height for topology clustering (non-negative RF distance).")),
	), h.handleAnalyzeRun)

	// --- 3. Tool: cluster_topologies ---
	s.AddTool(mcp.NewTool("cluster_topologies",
		mcp.WithDescription("Cluster trees from an RF distance matrix into distinct topologies with average linkage."),
		mcp.WithString("path", mcp.Description("Path to the .rfdist distance matrix."), mcp.Required()),
		mcp.WithNumber("threshold", mcp.Description("Cut height for clustering (non-negative RF distance).")),
		mcp.WithBoolean("linkage", mcp.Description("Include the full merge list in the response.")),
	), h.handleClusterTopologies)

	return s
}

// StartMCPServer starts the iqstat MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
