// Package mcp provides the rxlaunch MCP server, registering the run,
// inspect and history tools and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/rxlaunch"
	"github.com/deixis/rxlaunch/internal/config"
	"github.com/deixis/rxlaunch/internal/engine"
	"github.com/deixis/rxlaunch/internal/report"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	// mu serializes executions so that one engine never drives more than
	// one runner process at a time.
	mu    sync.Mutex
	exec  engine.Executor
	store report.Store
}

// NewServer creates an MCP server with all rxlaunch tools registered.
// store may be nil, in which case rx_inspect and rx_history report that
// no executions are kept.
func NewServer(e engine.Executor, store report.Store) *mcp.Server {
	h := &handler{exec: e, store: store}

	id := rxlaunch.Identity()
	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateConfigFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: id.Token, Version: id.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "rx_run",
		Description: `Run a Ranorex test executable and report its outcome.

The script is the path of the compiled test, optionally followed by "|" and extra runner
arguments. Paths may use [MyDocuments], [CommonDocuments], [DesktopDirectory], [ProgramFiles]
and [ProgramFilesX86]. Results are stored for drill-down via rx_inspect.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "rx_inspect",
		Description: `Show the steps, summary and transcript of a stored rx_run execution.

Use the run_id from rx_run or rx_history. Optionally filter steps by status
(Passed, Failed, Caution, NotRun, NotApplicable).`,
	}, h.inspectHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "rx_history",
		Description: "List recent executions, most recent first. Requires a history database.",
	}, h.historyHandler)

	return s
}

// updateConfigFromRoots queries the client for MCP roots and, when the
// first root holds a .rxlaunch file, takes the engine settings from it.
// This is called during session initialization, before any tool calls.
func (h *handler) updateConfigFromRoots(ctx context.Context, session *mcp.ServerSession) {
	e, ok := h.exec.(*engine.Engine)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil || len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}

	loaded, err := config.Load(u.Path)
	if err != nil || loaded.Path == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	e.Config = engine.Config{
		OutputRoot:   loaded.Config.OutputRoot(),
		TraceLogging: loaded.Config.TraceLogging,
	}
}

func (h *handler) load(runID string) (*report.Execution, error) {
	if h.store == nil {
		return nil, fmt.Errorf("executions are not kept by this server")
	}
	return h.store.Load(runID)
}

// textResult is a helper to build a text-only tool result.
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
