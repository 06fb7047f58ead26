package main

import (
	"github.com/urfave/cli/v2"
)

// EnvVarPrefix prefixes the environment variable of every flag.
const EnvVarPrefix = "RXLAUNCH"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

// Global flags override the values read from the .rxlaunch file.
var (
	WorkDirFlag = &cli.StringFlag{
		Name:    "workdir",
		Usage:   "Directory the .rxlaunch file is searched from",
		Value:   ".",
		EnvVars: prefixEnvVar("WORKDIR"),
	}
	ResultPathFlag = &cli.StringFlag{
		Name:    "result-path",
		Usage:   "Root directory of the per-run output directories",
		EnvVars: prefixEnvVar("RESULT_PATH"),
	}
	TraceLoggingFlag = &cli.BoolFlag{
		Name:    "trace-logging",
		Usage:   "Log every pipeline milestone",
		EnvVars: prefixEnvVar("TRACE_LOGGING"),
	}
	TimeoutFlag = &cli.DurationFlag{
		Name:    "timeout",
		Usage:   "Abort a run after this long (e.g. '30m'); 0 waits forever",
		EnvVars: prefixEnvVar("TIMEOUT"),
	}
	MaxOutputFlag = &cli.IntFlag{
		Name:    "max-output",
		Usage:   "Bytes of runner output kept in the transcript; 0 keeps all",
		EnvVars: prefixEnvVar("MAX_OUTPUT"),
	}
	DatabaseFlag = &cli.StringFlag{
		Name:    "database",
		Usage:   "SQLite history database; enables the history command",
		EnvVars: prefixEnvVar("DATABASE"),
	}
	StoreDirFlag = &cli.StringFlag{
		Name:    "store-dir",
		Usage:   "Directory executions are saved to as JSON when no database is set",
		EnvVars: prefixEnvVar("STORE_DIR"),
	}
	LogFormatFlag = &cli.StringFlag{
		Name:    "log-format",
		Usage:   "Log format: text or json",
		EnvVars: prefixEnvVar("LOG_FORMAT"),
	}
	LogLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level: debug, info, warn or error",
		EnvVars: prefixEnvVar("LOG_LEVEL"),
	}
)

var globalFlags = []cli.Flag{
	WorkDirFlag,
	ResultPathFlag,
	TraceLoggingFlag,
	TimeoutFlag,
	MaxOutputFlag,
	DatabaseFlag,
	StoreDirFlag,
	LogFormatFlag,
	LogLevelFlag,
}

// Run command flags.
var (
	TestSetFlag = &cli.IntFlag{
		Name:     "test-set",
		Usage:    "Test set id, used to name the output directory",
		Required: true,
	}
	TestCaseFlag = &cli.IntFlag{
		Name:     "test-case",
		Usage:    "Test case id, used to name the output directory",
		Required: true,
	}
	ParamFlag = &cli.StringSliceFlag{
		Name:    "param",
		Aliases: []string{"p"},
		Usage:   "Test parameter as name=value; repeatable, the first of duplicate names wins",
	}
	RunnerNameFlag = &cli.StringFlag{
		Name:  "runner-name",
		Usage: "Display name of the runner",
	}
	ProjectFlag = &cli.IntFlag{
		Name:  "project",
		Usage: "Project the run belongs to",
	}
	EmbeddedFlag = &cli.BoolFlag{
		Name:  "embedded",
		Usage: "Treat the script as embedded content (not supported by the runner)",
	}
	JSONFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the execution as JSON",
	}
)
