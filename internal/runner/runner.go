// Package runner launches the external test runner as a child process,
// builds its command line and captures what it prints.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/deixis/rxlaunch"
	"github.com/google/uuid"
)

// Runner starts runner executables and waits for them.
type Runner struct {
	// Timeout bounds a single run. Zero means no limit: a hung runner
	// blocks until ctx is cancelled.
	Timeout time.Duration
	// MaxOutput caps captured stdout and stderr in bytes. Zero means no cap.
	MaxOutput int
}

// Run starts exe in dir with the composed argument string, reads its
// entire stdout and waits for it to exit. A non-zero exit status is not
// an error; the caller decides what the exit code means. Failures to
// start or wait for the process are ProcessFailure errors.
func (r *Runner) Run(ctx context.Context, exe, dir, args string) (*Result, error) {
	p, err := r.Start(ctx, exe, dir, args)
	if err != nil {
		return nil, err
	}
	return p.Wait()
}

// Process is a started runner process. Wait must be called exactly once.
type Process struct {
	cmd    *exec.Cmd
	ctx    context.Context
	cancel context.CancelFunc
	exe    string
	runID  string
	start  time.Time
	stdout bytes.Buffer
	stderr bytes.Buffer
	limit  int
}

// Start launches exe without waiting for it.
func (r *Runner) Start(ctx context.Context, exe, dir, args string) (*Process, error) {
	if exe == "" {
		return nil, rxlaunch.Errorf(rxlaunch.ProcessFailure, "run", "empty executable path")
	}

	cancel := context.CancelFunc(func() {})
	if r.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
	}

	p := &Process{
		ctx:    ctx,
		cancel: cancel,
		exe:    exe,
		runID:  uuid.New().String(),
		limit:  r.MaxOutput,
	}

	p.cmd = exec.CommandContext(ctx, exe, SplitCommandLine(args)...)
	p.cmd.Dir = dir
	setCommandLine(p.cmd, exe, args)
	p.cmd.Stdout = &limitWriter{buf: &p.stdout, limit: r.MaxOutput}
	p.cmd.Stderr = &limitWriter{buf: &p.stderr, limit: r.MaxOutput}

	p.start = time.Now()
	if err := p.cmd.Start(); err != nil {
		cancel()
		return nil, rxlaunch.Wrap(rxlaunch.ProcessFailure, "run", err, fmt.Sprintf("starting %s", exe))
	}
	return p, nil
}

// RunID identifies this launch in logs.
func (p *Process) RunID() string { return p.runID }

// Pid returns the operating system process id.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Wait blocks until the process exits and its output is drained.
func (p *Process) Wait() (*Result, error) {
	defer p.cancel()

	// Wait drains stdout before it returns and releases the process handle.
	waitErr := p.cmd.Wait()
	end := time.Now()

	exitCode := 0
	if waitErr != nil {
		if ctxErr := p.ctx.Err(); ctxErr != nil {
			return nil, rxlaunch.Wrap(rxlaunch.ProcessFailure, "run", ctxErr, fmt.Sprintf("waiting for %s", p.exe))
		}
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, rxlaunch.Wrap(rxlaunch.ProcessFailure, "run", waitErr, fmt.Sprintf("waiting for %s", p.exe))
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{
		RunID:           p.runID,
		ExitCode:        exitCode,
		Stdout:          p.stdout.Bytes(),
		Stderr:          p.stderr.Bytes(),
		Truncated:       p.limit > 0 && p.stdout.Len() >= p.limit,
		StderrTruncated: p.limit > 0 && p.stderr.Len() >= p.limit,
		Start:           p.start,
		End:             end,
	}, nil
}

// limitWriter writes up to limit bytes to buf, then silently discards the
// rest. A limit of zero disables the cap.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if w.limit <= 0 {
		return w.buf.Write(p)
	}
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Report all bytes as consumed so the copy goroutine keeps draining
		// the pipe and the child never blocks on a full buffer.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
