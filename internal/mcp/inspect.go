package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/rxlaunch/internal/report"
	"github.com/deixis/rxlaunch/internal/status"
)

type inspectParams struct {
	RunID      string `json:"run_id" jsonschema:"the run ID from an rx_run or rx_history result"`
	Status     string `json:"status,omitempty" jsonschema:"only show steps with this status (e.g. Failed)"`
	Transcript bool   `json:"transcript,omitempty" jsonschema:"include the runner transcript"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	var filter []status.Status
	if params.Status != "" {
		st, err := status.Parse(params.Status)
		if err != nil {
			return errorResult(err.Error())
		}
		filter = append(filter, st)
	}

	e, err := h.load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	steps := e.Steps
	if len(filter) > 0 {
		steps = report.StepsWithStatus(e, filter...)
	}
	return textResult(formatInspectOutput(e, steps, params.Transcript))
}

func formatInspectOutput(e *report.Execution, steps []report.Step, transcript bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (%s)\n", e.ID, e.Status)
	fmt.Fprintf(&b, "Test: %s by %s\n", e.RunnerTestName, e.RunnerName)
	if !e.StartDate.IsZero() {
		fmt.Fprintf(&b, "Started: %s\n", e.StartDate.Format("2006-01-02 15:04:05"))
	}
	if e.ArtifactPath != "" {
		fmt.Fprintf(&b, "Artifact: %s\n", e.ArtifactPath)
	}
	if e.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", e.Error)
	}
	fmt.Fprintln(&b)

	if e.Message != "" {
		fmt.Fprintln(&b, "Summary:")
		for _, line := range strings.Split(strings.TrimRight(e.Message, "\n"), "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		fmt.Fprintln(&b)
	}

	if len(steps) == 0 {
		fmt.Fprintln(&b, "No matching steps.")
	} else {
		fmt.Fprintln(&b, "Steps:")
		for _, s := range steps {
			fmt.Fprintf(&b, "  %d. [%s] %s", s.Position, s.Status, s.Description)
			if s.ActualResult != "" {
				fmt.Fprintf(&b, ": %s", s.ActualResult)
			}
			fmt.Fprintln(&b)
		}
	}

	if transcript && e.Transcript != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Transcript:")
		for _, line := range strings.Split(strings.TrimRight(e.Transcript, "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}

	return b.String()
}
