package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/deixis/rxlaunch/internal/engine"
	"github.com/deixis/rxlaunch/internal/report"
	"github.com/deixis/rxlaunch/internal/runner"
	"github.com/deixis/rxlaunch/internal/status"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a test executable and print its steps",
		ArgsUsage: "<script>[|extra runner arguments]",
		Flags: []cli.Flag{
			TestSetFlag,
			TestCaseFlag,
			ParamFlag,
			RunnerNameFlag,
			ProjectFlag,
			EmbeddedFlag,
			JSONFlag,
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("run: expected one script argument, got %d", c.NArg())
	}
	params, err := parseParams(c.StringSlice(ParamFlag.Name))
	if err != nil {
		return err
	}

	env, err := newEnvironment(c)
	if err != nil {
		return err
	}
	defer env.close()

	req := engine.Request{
		Type:       engine.Linked,
		Script:     c.Args().First(),
		Parameters: params,
		TestSetID:  c.Int(TestSetFlag.Name),
		TestCaseID: c.Int(TestCaseFlag.Name),
		RunnerName: c.String(RunnerNameFlag.Name),
		ProjectID:  c.Int(ProjectFlag.Name),
	}
	if c.Bool(EmbeddedFlag.Name) {
		req.Type = engine.Embedded
	}

	exec, runErr := env.engine.Execute(c.Context, req)

	w := c.App.Writer
	if c.Bool(JSONFlag.Name) {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(exec); err != nil {
			return err
		}
	} else {
		renderExecution(w, exec, true)
	}

	if runErr != nil {
		return cli.Exit(runErr.Error(), ExitTestFailure)
	}
	if code := exitCode(exec.Status); code != ExitPassed {
		return cli.Exit("", code)
	}
	return nil
}

// parseParams parses name=value pairs. The value may contain '='.
func parseParams(raw []string) ([]runner.Param, error) {
	params := make([]runner.Param, 0, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected name=value", kv)
		}
		params = append(params, runner.Param{Name: name, Value: value})
	}
	return params, nil
}

// exitCode maps an overall status to the process exit code.
func exitCode(st status.Status) int {
	if st.Succeeded() {
		return ExitPassed
	}
	return ExitTestFailure
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print a stored execution",
		ArgsUsage: "<run-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "Only show steps with this status (e.g. Failed)"},
			&cli.BoolFlag{Name: "transcript", Usage: "Include the runner transcript"},
			JSONFlag,
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("inspect: expected one run id, got %d", c.NArg())
			}
			env, err := newEnvironment(c)
			if err != nil {
				return err
			}
			defer env.close()

			exec, err := env.store.Load(c.Args().First())
			if err != nil {
				return err
			}
			if name := c.String("status"); name != "" {
				st, err := status.Parse(name)
				if err != nil {
					return err
				}
				filtered := *exec
				filtered.Steps = report.StepsWithStatus(exec, st)
				exec = &filtered
			}

			if c.Bool(JSONFlag.Name) {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(exec)
			}
			renderExecution(c.App.Writer, exec, c.Bool("transcript"))
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent executions (requires --database)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum number of executions to list"},
		},
		Action: func(c *cli.Context) error {
			env, err := newEnvironment(c)
			if err != nil {
				return err
			}
			defer env.close()

			lister, ok := env.store.(report.Lister)
			if !ok {
				return report.ErrNoHistory
			}
			execs, err := lister.List(c.Int("limit"))
			if err != nil {
				return err
			}
			renderHistory(c.App.Writer, execs)
			return nil
		},
	}
}
