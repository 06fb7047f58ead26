package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deixis/rxlaunch"
	"github.com/deixis/rxlaunch/internal/logging"
	"github.com/deixis/rxlaunch/internal/paths"
	"github.com/deixis/rxlaunch/internal/report"
	"github.com/deixis/rxlaunch/internal/runner"
	"github.com/deixis/rxlaunch/internal/status"
)

const passedWithWarning = `<report>
  <activity type="root" result="Success">
    <activity type="test-case" result="Success">
      <item level="Info" category="Module"><message>Started.</message></item>
      <item level="Warn" category="Validation"><message>Slow response.</message></item>
      <item level="Success" category="Mouse"/>
    </activity>
  </activity>
</report>`

const failedWithErrors = `<report>
  <activity type="root" result="Failed">
    <activity type="test-case" result="Failed">
      <item level="Success" category="Mouse"><message>Click.</message></item>
      <item level="Failure" category="Validation"><message>Text mismatch.</message><errmsg>Expected 'Welcome'</errmsg></item>
    </activity>
    <errmsg>Login failed</errmsg>
  </activity>
</report>`

// fakeLauncher records the last launch and writes data next to the
// result file named in the /rf argument.
type fakeLauncher struct {
	data     string // written to <result file>.data when not empty
	stdout   string
	stderr   string
	exitCode int
	startErr error
	waitErr  error

	calls int
	exe   string
	dir   string
	args  string
}

func (f *fakeLauncher) Start(_ context.Context, exe, dir, args string) (Process, error) {
	f.calls++
	f.exe, f.dir, f.args = exe, dir, args
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f, nil
}

func (f *fakeLauncher) Wait() (*runner.Result, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	if f.data != "" {
		resultFile := strings.TrimPrefix(runner.SplitCommandLine(f.args)[0], "/rf:")
		if err := os.WriteFile(resultFile+".data", []byte(f.data), 0o644); err != nil {
			return nil, err
		}
	}
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	return &runner.Result{
		RunID:    "launch-1",
		ExitCode: f.exitCode,
		Stdout:   []byte(f.stdout),
		Stderr:   []byte(f.stderr),
		Start:    start,
		End:      start.Add(90 * time.Second),
	}, nil
}

type memStore struct {
	saved map[string]*report.Execution
	err   error
}

func (m *memStore) Save(e *report.Execution) error {
	if m.err != nil {
		return m.err
	}
	m.saved[e.ID] = e
	return nil
}

func (m *memStore) Load(id string) (*report.Execution, error) {
	e, ok := m.saved[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return e, nil
}

type recordedMetrics struct {
	started  int
	statuses []string
	steps    map[string]int
	kinds    []string
}

func (r *recordedMetrics) Started() { r.started++ }

func (r *recordedMetrics) RecordExecution(st string, _ time.Duration, steps map[string]int) {
	r.statuses = append(r.statuses, st)
	r.steps = steps
}

func (r *recordedMetrics) RecordError(kind string) { r.kinds = append(r.kinds, kind) }

type fixture struct {
	engine   *Engine
	launcher *fakeLauncher
	store    *memStore
	metrics  *recordedMetrics
	logs     *bytes.Buffer
	root     string // output root
	scripts  string // folder holding Login.exe
}

func newFixture(t *testing.T, l *fakeLauncher) *fixture {
	t.Helper()
	scripts := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "Login.exe"), []byte("MZ"), 0o755))

	logs := &bytes.Buffer{}
	log, err := logging.New(logs, "text", "debug")
	require.NoError(t, err)

	f := &fixture{
		launcher: l,
		store:    &memStore{saved: make(map[string]*report.Execution)},
		metrics:  &recordedMetrics{},
		logs:     logs,
		root:     filepath.Join(t.TempDir(), "results"),
		scripts:  scripts,
	}
	f.engine = &Engine{
		Config:   Config{OutputRoot: f.root},
		Launcher: l,
		Resolver: paths.NewResolver(paths.Folders{paths.MyDocuments: scripts}),
		Log:      log,
		Store:    f.store,
		Metrics:  f.metrics,
		Now:      func() time.Time { return time.Date(2026, 10, 17, 8, 59, 58, 0, time.Local) },
	}
	return f
}

func (f *fixture) request() Request {
	return Request{
		Type:       Linked,
		Script:     filepath.Join(f.scripts, "Login.exe"),
		TestSetID:  12,
		TestCaseID: 34,
	}
}

func TestExecute_Success(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning, stdout: "\x1b[32mPASS\x1b[0m\n"})

	exec, err := f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, status.Caution, exec.Status)
	assert.Equal(t, "Success", exec.Message, "no error messages: summary is the result code")
	assert.Equal(t, "Ranorex Automation Engine", exec.RunnerName)
	assert.Equal(t, "Login", exec.RunnerTestName)
	assert.Equal(t, report.FormatPlainText, exec.Format)
	assert.Equal(t, 90*time.Second, exec.Duration())
	assert.Empty(t, exec.Error)

	require.Len(t, exec.Steps, 3)
	for i, s := range exec.Steps {
		assert.Equal(t, i+1, s.Position)
		assert.Empty(t, s.ExpectedResult)
		assert.Empty(t, s.SampleData)
	}
	assert.Equal(t, "Module", exec.Steps[0].Description)
	assert.Equal(t, status.NotApplicable, exec.Steps[0].Status)
	assert.Equal(t, status.Caution, exec.Steps[1].Status)
	assert.Equal(t, "", exec.Steps[2].ActualResult)
	assert.Equal(t, status.Passed, exec.Steps[2].Status)

	assert.Equal(t, Completed, f.engine.State())
	assert.Equal(t, StatusOK, f.engine.Status())
	assert.Same(t, exec, f.store.saved[exec.ID])
	assert.Equal(t, []string{"Caution"}, f.metrics.statuses)
	assert.Equal(t, 1, f.metrics.steps["Passed"])
}

func TestExecute_OutputLayout(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning})

	exec, err := f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)

	dir := filepath.Join(f.root, "20261017_085958_TS12_TC34")
	resultFile := filepath.Join(dir, "TS12_TC34.rxlog")
	assert.DirExists(t, dir)
	assert.Equal(t, resultFile+".data", exec.ArtifactPath)
	assert.Equal(t, filepath.Join(f.scripts, "Login.exe"), f.launcher.exe)
	assert.Equal(t, f.scripts, f.launcher.dir)
	assert.Equal(t, `/rf:"`+resultFile+`"`, f.launcher.args)
}

func TestExecute_Transcript(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning, stdout: "\x1b[32mPASS\x1b[0m\n"})

	exec, err := f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)

	want := "Executing: " + f.launcher.exe + " in '" + f.launcher.dir + "' with arguments '" + f.launcher.args + "'\nPASS\n"
	assert.Equal(t, want, exec.Transcript)
}

func TestExecute_FailedSummary(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: failedWithErrors})

	exec, err := f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, status.Failed, exec.Status)
	assert.Equal(t, "Expected 'Welcome'\nLogin failed\n", exec.Message)
	require.Len(t, exec.Steps, 2)
	assert.Equal(t, status.Failed, exec.Steps[1].Status)
	assert.Equal(t, StatusOK, f.engine.Status(), "a failed test is not an engine error")
}

func TestExecute_ParametersAndExtraArgs(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning})
	req := f.request()
	req.Script = filepath.Join("[MyDocuments]", "Login.exe") + "|/zr /zrf:out.zip"
	req.Parameters = []runner.Param{
		{Name: " user ", Value: "Jo Smith"},
		{Name: "user", Value: "ignored"},
		{Name: "env", Value: "QA"},
	}

	_, err := f.engine.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.scripts, "Login.exe"), f.launcher.exe)
	assert.True(t, strings.HasSuffix(f.launcher.args, ` /param:user="Jo Smith" /param:env="QA" /zr /zrf:out.zip`), f.launcher.args)
	assert.NotContains(t, f.launcher.args, "ignored")
}

func TestExecute_RunnerNameKept(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning})
	req := f.request()
	req.RunnerName = "nightly"

	exec, err := f.engine.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "nightly", exec.RunnerName)
}

func TestExecute_Embedded(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning})
	req := f.request()
	req.Type = Embedded

	exec, err := f.engine.Execute(context.Background(), req)
	require.Error(t, err)
	assert.True(t, rxlaunch.IsKind(err, rxlaunch.UnsupportedOperation))
	assert.Contains(t, err.Error(), "only supports linked test scripts")
	assert.Zero(t, f.launcher.calls, "no process is launched")
	assert.NoDirExists(t, f.root)

	require.NotNil(t, exec)
	assert.Equal(t, status.Blocked, exec.Status)
	assert.Equal(t, err.Error(), exec.Error)
	assert.Equal(t, Error, f.engine.State())
	assert.Equal(t, StatusError, f.engine.Status())
	assert.Equal(t, []string{"unsupported_operation"}, f.metrics.kinds)
}

func TestExecute_ScriptNotFound(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning})
	req := f.request()
	req.Script = filepath.Join(f.scripts, "Missing.exe")

	exec, err := f.engine.Execute(context.Background(), req)
	require.Error(t, err)
	assert.True(t, rxlaunch.IsKind(err, rxlaunch.ResourceNotFound))
	assert.Contains(t, err.Error(), "Unable to find a Ranorex test at "+req.Script)
	assert.Zero(t, f.launcher.calls)
	assert.NoDirExists(t, f.root, "no output directory for a missing script")
	assert.Equal(t, "Missing", exec.RunnerTestName)
	assert.Equal(t, StatusError, f.engine.Status())
}

func TestExecute_DirectoryIsNotAScript(t *testing.T) {
	f := newFixture(t, &fakeLauncher{})
	req := f.request()
	req.Script = f.scripts

	_, err := f.engine.Execute(context.Background(), req)
	assert.True(t, rxlaunch.IsKind(err, rxlaunch.ResourceNotFound))
}

func TestExecute_MissingArtifact(t *testing.T) {
	f := newFixture(t, &fakeLauncher{stdout: "crashed\n", exitCode: 1})

	exec, err := f.engine.Execute(context.Background(), f.request())
	require.Error(t, err)
	assert.True(t, rxlaunch.IsKind(err, rxlaunch.ParseFailure))
	assert.Equal(t, status.Blocked, exec.Status)
	assert.Contains(t, exec.Transcript, "crashed")
	assert.Equal(t, 1, exec.ExitCode)
	assert.DirExists(t, filepath.Dir(exec.ArtifactPath), "partial output is left for inspection")
	assert.Same(t, exec, f.store.saved[exec.ID], "failed executions are saved too")
}

func TestExecute_StderrKeptWhenRunnerCrashes(t *testing.T) {
	f := newFixture(t, &fakeLauncher{stderr: "FATAL: license server unreachable\n", exitCode: 3})

	exec, err := f.engine.Execute(context.Background(), f.request())
	require.Error(t, err)
	assert.True(t, rxlaunch.IsKind(err, rxlaunch.ParseFailure))
	assert.Contains(t, exec.Transcript, "stderr:\nFATAL: license server unreachable\n")
	assert.Contains(t, f.logs.String(), "runner wrote to stderr")
	assert.Contains(t, f.logs.String(), "license server unreachable")
}

func TestExecute_StderrAfterStdout(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning, stdout: "PASS", stderr: "\x1b[33mslow disk\x1b[0m"})

	exec, err := f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(exec.Transcript, "PASS\nstderr:\nslow disk\n"), exec.Transcript)
	assert.NotContains(t, f.logs.String(), "output truncated")
}

func TestExecute_OutputDirectoryFailure(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning})
	blocker := filepath.Join(t.TempDir(), "results")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	f.engine.Config.OutputRoot = blocker

	exec, err := f.engine.Execute(context.Background(), f.request())
	require.Error(t, err)
	assert.True(t, rxlaunch.IsKind(err, rxlaunch.ProcessFailure))
	assert.Contains(t, err.Error(), "creating output directory")
	assert.Equal(t, status.Blocked, exec.Status)
	assert.Zero(t, f.launcher.calls)
	assert.Equal(t, []string{string(rxlaunch.ProcessFailure)}, f.metrics.kinds)
}

func TestExecute_MalformedArtifact(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: "<report><activity result=\"Success\"></report>"})

	_, err := f.engine.Execute(context.Background(), f.request())
	assert.True(t, rxlaunch.IsKind(err, rxlaunch.ParseFailure))
}

func TestExecute_StartFailure(t *testing.T) {
	startErr := rxlaunch.Errorf(rxlaunch.ProcessFailure, "run", "permission denied")
	f := newFixture(t, &fakeLauncher{startErr: startErr})

	exec, err := f.engine.Execute(context.Background(), f.request())
	require.Error(t, err)
	assert.True(t, rxlaunch.IsKind(err, rxlaunch.ProcessFailure))
	assert.Equal(t, status.Blocked, exec.Status)
	assert.Equal(t, Error, f.engine.State())
}

func TestExecute_NonZeroExitIsAdvisory(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: failedWithErrors, exitCode: 3})
	f.engine.Config.TraceLogging = false

	exec, err := f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)
	assert.Equal(t, 3, exec.ExitCode)
	assert.Equal(t, status.Failed, exec.Status)
	assert.Contains(t, f.logs.String(), "non-zero status")
}

func TestExecute_DirectoryCollision(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning})

	first, err := f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)
	second, err := f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)

	assert.NotEqual(t, filepath.Dir(first.ArtifactPath), filepath.Dir(second.ArtifactPath))
	assert.Regexp(t, regexp.MustCompile(`20261017_085958_TS12_TC34_[0-9a-f]{8}$`), filepath.Dir(second.ArtifactPath))
}

func TestExecute_StatusResetOnNextRun(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning})
	req := f.request()
	req.Type = Embedded
	_, err := f.engine.Execute(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, StatusError, f.engine.Status())

	_, err = f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, f.engine.Status())
}

func TestExecute_TraceLogging(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning})

	_, err := f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)
	assert.Empty(t, f.logs.String(), "quiet unless trace logging is on")

	f.engine.Config.TraceLogging = true
	_, err = f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)
	assert.Contains(t, f.logs.String(), "starting test execution")
	assert.Contains(t, f.logs.String(), "test run has no parameters")
	assert.Contains(t, f.logs.String(), "test execution completed")
}

func TestExecute_ErrorLoggedWithoutTrace(t *testing.T) {
	f := newFixture(t, &fakeLauncher{})
	req := f.request()
	req.Type = Embedded

	_, err := f.engine.Execute(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, f.logs.String(), "level=ERROR")
	assert.Contains(t, f.logs.String(), "TestExecute_ErrorLoggedWithoutTrace", "stack trace is logged")
}

func TestExecute_StoreFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, &fakeLauncher{data: passedWithWarning})
	f.store.err = errors.New("disk full")

	exec, err := f.engine.Execute(context.Background(), f.request())
	require.NoError(t, err)
	assert.Equal(t, status.Caution, exec.Status)
	assert.Contains(t, f.logs.String(), "disk full")
}

func TestTestName(t *testing.T) {
	tests := map[string]string{
		`C:\Tests\Login.exe`:            "Login",
		"[MyDocuments]/Suite/Smoke.exe": "Smoke",
		"Plain":                         "Plain",
		"dir/archive.tar.gz":            "archive.tar",
		"":                              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, testName(in), in)
	}
}

func TestScriptTypeJSON(t *testing.T) {
	var r Request
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Embedded","script":"x"}`), &r))
	assert.Equal(t, Embedded, r.Type)
	require.NoError(t, json.Unmarshal([]byte(`{"type":"","script":"x"}`), &r))
	assert.Equal(t, Linked, r.Type)
	assert.Error(t, json.Unmarshal([]byte(`{"type":"inline"}`), &r))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "AwaitingExit", AwaitingExit.String())
	assert.Equal(t, "Unknown", State(42).String())
	assert.True(t, Error.Terminal())
	assert.False(t, ParsingResult.Terminal())
	assert.Equal(t, "Error", StatusError.String())
}
