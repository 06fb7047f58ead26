package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/rxlaunch"
	"github.com/deixis/rxlaunch/internal/engine"
	"github.com/deixis/rxlaunch/internal/report"
	"github.com/deixis/rxlaunch/internal/runner"
	"github.com/deixis/rxlaunch/internal/status"
)

type runParams struct {
	Script     string         `json:"script" jsonschema:"path of the test executable, optionally followed by | and extra runner arguments"`
	Type       string         `json:"type,omitempty" jsonschema:"linked (default) or embedded"`
	Parameters []runner.Param `json:"parameters,omitempty" jsonschema:"test parameters passed as /param:name=value; the first of duplicate names wins"`
	TestSetID  int            `json:"test_set_id" jsonschema:"test set id, used to name the output directory"`
	TestCaseID int            `json:"test_case_id" jsonschema:"test case id, used to name the output directory"`
	RunnerName string         `json:"runner_name,omitempty" jsonschema:"display name of the runner; defaults to the engine name"`
	ProjectID  int            `json:"project_id,omitempty" jsonschema:"project the run belongs to"`
}

func (p runParams) request() (engine.Request, error) {
	req := engine.Request{
		Type:       engine.Linked,
		Script:     p.Script,
		Parameters: p.Parameters,
		TestSetID:  p.TestSetID,
		TestCaseID: p.TestCaseID,
		RunnerName: p.RunnerName,
		ProjectID:  p.ProjectID,
	}
	switch strings.ToLower(p.Type) {
	case "", string(engine.Linked):
	case string(engine.Embedded):
		req.Type = engine.Embedded
	default:
		return req, fmt.Errorf("unknown script type %q", p.Type)
	}
	return req, nil
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	if params.Script == "" {
		return errorResult("script is required")
	}
	r, err := params.request()
	if err != nil {
		return errorResult(err.Error())
	}

	h.mu.Lock()
	exec, err := h.exec.Execute(ctx, r)
	h.mu.Unlock()

	if err != nil {
		return errorResult(formatRunError(exec, err))
	}
	return textResult(formatRun(exec))
}

func formatRun(e *report.Execution) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Status: %s\n", e.Status)
	fmt.Fprintf(&b, "Run: %s\n", e.ID)
	fmt.Fprintf(&b, "Test: %s (TS%d, TC%d)\n", e.RunnerTestName, e.TestSetID, e.TestCaseID)
	fmt.Fprintf(&b, "Duration: %s\n", e.Duration())
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, "Exit code: %d\n", e.ExitCode)
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Summary:")
	for _, line := range strings.Split(strings.TrimRight(e.Message, "\n"), "\n") {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "Steps: %d", len(e.Steps))
	if summary := report.Summary(e); summary != "" {
		fmt.Fprintf(&b, " (%s)", summary)
	}
	fmt.Fprintln(&b)

	problems := report.StepsWithStatus(e, status.Failed, status.Caution)
	if len(problems) > 0 {
		fmt.Fprintln(&b)
		for _, s := range problems {
			fmt.Fprintf(&b, "  %d. [%s] %s: %s\n", s.Position, s.Status, s.Description, s.ActualResult)
		}
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "Inspect with rx_inspect(run_id=%q).\n", e.ID)
	}

	return b.String()
}

func formatRunError(e *report.Execution, err error) string {
	var b strings.Builder

	fmt.Fprintln(&b, "Status: Blocked")
	if e != nil {
		fmt.Fprintf(&b, "Run: %s\n", e.ID)
	}
	if kind := rxlaunch.KindOf(err); kind != "" {
		fmt.Fprintf(&b, "Error (%s): %v\n", kind, err)
	} else {
		fmt.Fprintf(&b, "Error: %v\n", err)
	}
	if e != nil && e.Transcript != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Transcript:")
		for _, line := range strings.Split(strings.TrimRight(e.Transcript, "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String()
}
