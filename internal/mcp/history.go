package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/rxlaunch/internal/report"
)

const defaultHistoryLimit = 20

type historyParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to list (default 20)"`
}

func (h *handler) historyHandler(ctx context.Context, req *mcp.CallToolRequest, params historyParams) (*mcp.CallToolResult, any, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	lister, ok := h.store.(report.Lister)
	if !ok {
		return errorResult("History is not available: start the server with a history database.")
	}
	execs, err := lister.List(limit)
	if errors.Is(err, report.ErrNoHistory) {
		return errorResult("History is not available: start the server with a history database.")
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to list runs: %v", err))
	}
	if len(execs) == 0 {
		return textResult("No runs recorded yet.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Runs (%d):\n", len(execs))
	for _, e := range execs {
		fmt.Fprintf(&b, "  %s  %s  %-13s %s (TS%d, TC%d)\n",
			e.ID, e.StartDate.Format("2006-01-02 15:04:05"), e.Status, e.RunnerTestName, e.TestSetID, e.TestCaseID)
	}
	return textResult(b.String())
}
