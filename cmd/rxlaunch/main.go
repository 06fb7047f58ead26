// Command rxlaunch runs Ranorex test executables and reports their
// outcome as test steps, from the command line or as an MCP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/deixis/rxlaunch"
)

// Exit codes.
const (
	ExitPassed       = 0 // Passed, Caution or NotApplicable
	ExitTestFailure  = 1 // Failed or Blocked
	ExitRuntimeError = 2 // configuration, flags, store
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	app := newApp(os.Stdout)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			cli.HandleExitCoder(cli.Exit(err.Error(), ExitRuntimeError))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		os.Exit(ExitRuntimeError)
	}
}

func newApp(out io.Writer) *cli.App {
	id := rxlaunch.Identity()

	app := cli.NewApp()
	app.Name = "rxlaunch"
	app.Usage = "Run Ranorex tests and report their steps"
	app.Description = fmt.Sprintf("%s %s by %s", id.Name, id.Version, id.Author)
	app.Version = id.Version
	app.Writer = out
	app.Flags = globalFlags
	app.Commands = []*cli.Command{
		runCommand(),
		inspectCommand(),
		historyCommand(),
		mcpCommand(),
		versionCommand(),
	}
	return app
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the engine identity",
		Action: func(c *cli.Context) error {
			id := rxlaunch.Identity()
			w := c.App.Writer
			fmt.Fprintf(w, "%s %s\n", id.Name, id.Version)
			fmt.Fprintf(w, "Token:  %s\n", id.Token)
			fmt.Fprintf(w, "ID:     %s\n", id.ID)
			fmt.Fprintf(w, "Author: %s\n", id.Author)
			return nil
		},
	}
}
