// Package mcp provides the stevedore MCP server, registering all tools
// and publishing model instructions.
package mcp

import (
	_ "embed"

	"github.com/deixis/stevedore"
	"github.com/deixis/stevedore/internal/config"
	"github.com/deixis/stevedore/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	cfg   *config.Config
	store report.Store
}

// NewServer creates an MCP server with all stevedore tools registered.
func NewServer(cfg *config.Config, store report.Store) *mcp.Server {
	h := &handler{cfg: cfg, store: store}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "stevedore", Version: stevedore.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "stv_run",
		Description: `Run a named recipe or an explicit list of shell commands against a target.

Commands run in order, locally or over ssh depending on the target, and the
run stops at the first non-zero exit status. The full progress transcript is
returned and stored for drill-down via stv_results.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "stv_copy",
		Description: `Copy a file or directory tree from the local filesystem to a target via scp.

Use recursive=true for directory trees. The only observable outcomes are
success or the scp exit status.`,
	}, h.copyHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "stv_targets",
		Description: "List the configured targets, the default target, and the available recipes.",
	}, h.targetsHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "stv_results",
		Description: "Fetch the stored transcript and step outcomes of a previous run by run_id.",
	}, h.resultsHandler)

	return s
}

// textResult is a helper to build a plain text tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
