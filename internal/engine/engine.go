// Package engine runs one test script through the external runner and
// turns its result artifact into a report.Execution. It is consumed by
// the MCP server, the HTTP API and the CLI.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/google/uuid"

	"github.com/deixis/rxlaunch"
	"github.com/deixis/rxlaunch/internal/logging"
	"github.com/deixis/rxlaunch/internal/paths"
	"github.com/deixis/rxlaunch/internal/report"
	"github.com/deixis/rxlaunch/internal/runner"
	"github.com/deixis/rxlaunch/internal/rxlog"
	"github.com/deixis/rxlaunch/internal/status"
)

// timestampLayout names run directories, e.g. 20261017_142501.
const timestampLayout = "20060102_150405"

// resultExt is the extension of the result file passed to the runner.
const resultExt = ".rxlog"

// Executor is the capability a host calls to run one test.
type Executor interface {
	Execute(ctx context.Context, req Request) (*report.Execution, error)
}

var _ Executor = (*Engine)(nil)

// Launcher starts runner processes. Implemented by runner.Runner.
type Launcher interface {
	Start(ctx context.Context, exe, dir, args string) (Process, error)
}

// Process is a started runner process.
type Process interface {
	Wait() (*runner.Result, error)
}

// Recorder receives execution metrics. Implemented by metrics.Recorder.
type Recorder interface {
	Started()
	RecordExecution(status string, d time.Duration, steps map[string]int)
	RecordError(kind string)
}

// Config is the snapshot of settings the engine reads.
type Config struct {
	OutputRoot   string // parent of the per-run directories
	TraceLogging bool   // log each milestone, not only failures
}

// Engine holds shared dependencies for all executions.
type Engine struct {
	Config   Config
	Launcher Launcher        // defaults to a runner.Runner without limits
	Resolver *paths.Resolver // defaults to paths.Default()
	Log      *slog.Logger    // defaults to a discarding logger
	Store    report.Store    // optional
	Metrics  Recorder        // optional
	Now      func() time.Time

	state  atomic.Int32
	status atomic.Int32
}

// RunnerLauncher adapts runner.Runner to Launcher.
type RunnerLauncher struct {
	Runner *runner.Runner
}

func (l RunnerLauncher) Start(ctx context.Context, exe, dir, args string) (Process, error) {
	p, err := l.Runner.Start(ctx, exe, dir, args)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// State returns the last pipeline stage reached.
func (e *Engine) State() State { return State(e.state.Load()) }

// Status returns the engine status after the last execution.
func (e *Engine) Status() Status { return Status(e.status.Load()) }

// Execute runs req to completion. On failure it returns the partially
// populated execution, with status Blocked, together with the error.
// The returned execution is owned by the caller.
func (e *Engine) Execute(ctx context.Context, req Request) (*report.Execution, error) {
	e.setState(Preparing)
	e.status.Store(int32(StatusOK))
	if e.Metrics != nil {
		e.Metrics.Started()
	}

	exec := &report.Execution{
		ID:             uuid.New().String(),
		RunnerName:     req.RunnerName,
		RunnerTestName: "Unknown",
		TestSetID:      req.TestSetID,
		TestCaseID:     req.TestCaseID,
		ProjectID:      req.ProjectID,
		StartDate:      e.now(),
		Status:         status.Blocked,
		Format:         report.FormatPlainText,
	}
	if exec.RunnerName == "" {
		exec.RunnerName = rxlaunch.Identity().Name
	}
	log := e.logger().With("run_id", exec.ID)

	if err := e.execute(ctx, log, req, exec); err != nil {
		return e.fail(log, exec, err)
	}

	e.setState(Completed)
	e.status.Store(int32(StatusOK))
	e.trace(log, "test execution completed", "status", exec.Status, "steps", len(exec.Steps))
	e.save(log, exec)
	if e.Metrics != nil {
		e.Metrics.RecordExecution(exec.Status.String(), exec.Duration(), stepCounts(exec))
	}
	return exec, nil
}

func (e *Engine) execute(ctx context.Context, log *slog.Logger, req Request, exec *report.Execution) error {
	e.trace(log, "starting test execution")

	params := runner.Dedupe(req.Parameters)
	if len(params) == 0 {
		e.trace(log, "test run has no parameters")
	}
	for _, p := range params {
		e.trace(log, "adding test run parameter", "name", p.Name, "value", p.Value)
	}

	if req.Type == Embedded {
		return rxlaunch.Errorf(rxlaunch.UnsupportedOperation, "prepare",
			"The %s automation engine only supports linked test scripts", rxlaunch.ExternalSystem)
	}

	ref, extra := runner.SplitScript(req.Script)
	exec.RunnerTestName = testName(ref)
	exe := e.resolver().Expand(ref)

	if info, err := os.Stat(exe); err != nil || info.IsDir() {
		return rxlaunch.Errorf(rxlaunch.ResourceNotFound, "prepare",
			"Unable to find a %s test at %s", rxlaunch.ExternalSystem, exe)
	}
	e.trace(log, "executing test", "system", rxlaunch.ExternalSystem, "path", exe)

	dir, err := e.createOutputDir(req, exec.ID)
	if err != nil {
		return err
	}
	resultFile := filepath.Join(dir, req.resultName()+resultExt)
	exec.ArtifactPath = rxlog.DataPath(resultFile)

	workDir := filepath.Dir(exe)
	args := runner.BuildArgs(resultFile, params, extra)

	e.setState(Launching)
	proc, err := e.launcher().Start(ctx, exe, workDir, args)
	if err != nil {
		return err
	}
	e.setState(AwaitingExit)
	res, err := proc.Wait()
	if err != nil {
		return err
	}

	exec.StartDate = res.Start
	exec.EndDate = res.End
	exec.ExitCode = res.ExitCode
	exec.Transcript = fmt.Sprintf("Executing: %s in '%s' with arguments '%s'\n", exe, workDir, args) +
		stripansi.Strip(string(res.Stdout))
	if stderr := strings.TrimSpace(stripansi.Strip(string(res.Stderr))); stderr != "" {
		if !strings.HasSuffix(exec.Transcript, "\n") {
			exec.Transcript += "\n"
		}
		exec.Transcript += "stderr:\n" + stderr + "\n"
		log.Warn("runner wrote to stderr", "path", exe, "stderr", stderr)
	}
	if res.ExitCode != 0 {
		// The result artifact decides the outcome, not the exit code.
		log.Warn("runner exited with non-zero status", "exit_code", res.ExitCode, "path", exe)
	}
	if res.Truncated {
		log.Warn("runner output truncated", "path", exe)
	}
	if res.StderrTruncated {
		log.Warn("runner stderr truncated", "path", exe)
	}

	e.setState(ParsingResult)
	rep, err := rxlog.ParseFile(exec.ArtifactPath)
	if err != nil {
		return err
	}

	exec.Status = status.FromResult(rep.Result)
	exec.Message = rep.Summary
	for _, item := range rep.Items {
		exec.AppendStep(item.Category, item.Message, status.FromLevel(item.Level))
	}
	return nil
}

// createOutputDir creates <root>/<timestamp>_TS<set>_TC<case>, adding a
// suffix when a run in the same second already claimed the name.
func (e *Engine) createOutputDir(req Request, runID string) (string, error) {
	name := e.now().Format(timestampLayout) + "_" + req.resultName()
	dir := filepath.Join(e.Config.OutputRoot, name)
	if _, err := os.Stat(dir); err == nil {
		dir += "_" + strings.SplitN(runID, "-", 2)[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", rxlaunch.Wrap(rxlaunch.ProcessFailure, "prepare", err, "creating output directory "+dir)
	}
	return dir, nil
}

func (e *Engine) fail(log *slog.Logger, exec *report.Execution, err error) (*report.Execution, error) {
	e.setState(Error)
	e.status.Store(int32(StatusError))

	exec.Status = status.Blocked
	exec.Error = err.Error()
	if exec.EndDate.IsZero() {
		exec.EndDate = e.now()
	}

	kind := rxlaunch.KindOf(err)
	log.Error(err.Error(), "kind", kind, "stack", rxlaunch.StackTrace(err))

	e.save(log, exec)
	if e.Metrics != nil {
		e.Metrics.RecordError(string(kind))
	}
	return exec, err
}

func (e *Engine) save(log *slog.Logger, exec *report.Execution) {
	if e.Store == nil {
		return
	}
	if err := e.Store.Save(exec); err != nil {
		log.Warn("saving execution", "error", err)
	}
}

func (e *Engine) trace(log *slog.Logger, msg string, args ...any) {
	if e.Config.TraceLogging {
		log.Info(msg, args...)
	}
}

func (e *Engine) setState(s State) { e.state.Store(int32(s)) }

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logging.Discard()
}

func (e *Engine) launcher() Launcher {
	if e.Launcher != nil {
		return e.Launcher
	}
	return RunnerLauncher{Runner: &runner.Runner{}}
}

func (e *Engine) resolver() *paths.Resolver {
	if e.Resolver != nil {
		return e.Resolver
	}
	return paths.Default()
}

// testName returns the file name of ref without directory or extension.
// Both slash styles separate directories since references are often
// written on Windows hosts.
func testName(ref string) string {
	name := ref
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

func stepCounts(exec *report.Execution) map[string]int {
	counts := report.Counts(exec)
	out := make(map[string]int, len(counts))
	for st, n := range counts {
		out[st.String()] = n
	}
	return out
}
