package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/deixis/stevedore/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type resultsParams struct {
	RunID string `json:"run_id" jsonschema:"Run identifier returned by stv_run or stv_copy."`
}

func (h *handler) resultsHandler(ctx context.Context, req *mcp.CallToolRequest, params resultsParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	rec, err := h.store.Load(params.RunID)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			return errorResult(fmt.Sprintf("no stored run %s (only recent runs are kept)", params.RunID))
		}
		return errorResult(fmt.Sprintf("loading run %s: %v", params.RunID, err))
	}

	return textResult(formatRun(rec))
}
