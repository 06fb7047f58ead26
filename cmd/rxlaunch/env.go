package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/deixis/rxlaunch/internal/config"
	"github.com/deixis/rxlaunch/internal/engine"
	"github.com/deixis/rxlaunch/internal/logging"
	"github.com/deixis/rxlaunch/internal/metrics"
	"github.com/deixis/rxlaunch/internal/paths"
	"github.com/deixis/rxlaunch/internal/report"
	"github.com/deixis/rxlaunch/internal/runner"
)

// environment holds what every command shares: the merged configuration
// and the engine built from it.
type environment struct {
	cfg      *config.Config
	log      *slog.Logger
	engine   *engine.Engine
	store    report.Store
	registry *prometheus.Registry
	close    func() error
}

// newEnvironment loads .rxlaunch and applies flag and environment
// overrides on top of it.
func newEnvironment(c *cli.Context) (*environment, error) {
	loaded, err := config.Load(c.String(WorkDirFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	log, err := logging.New(os.Stderr, cfg.LogFormat(), cfg.LogLevel())
	if err != nil {
		return nil, err
	}
	if loaded.Path != "" {
		log.Debug("loaded config", "path", loaded.Path)
	}

	env := &environment{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
		close:    func() error { return nil },
	}

	if cfg.Store.Database != "" {
		db, err := report.NewSQLiteStore(cfg.Store.Database)
		if err != nil {
			return nil, err
		}
		env.store = report.NewLRUStore(cfg.CacheSize(), db)
		env.close = db.Close
	} else {
		env.store = report.NewLRUStore(cfg.CacheSize(), report.NewDiskStore(cfg.StoreDir()))
	}

	folders := paths.SystemFolders()
	for token, dir := range cfg.FolderOverrides() {
		folders[token] = dir
	}

	env.engine = &engine.Engine{
		Config: engine.Config{
			OutputRoot:   cfg.OutputRoot(),
			TraceLogging: cfg.TraceLogging,
		},
		Launcher: engine.RunnerLauncher{Runner: &runner.Runner{
			Timeout:   cfg.Timeout(),
			MaxOutput: cfg.MaxOutputBytes(),
		}},
		Resolver: paths.NewResolver(folders),
		Log:      log,
		Store:    env.store,
		Metrics:  metrics.New(env.registry),
	}
	return env, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet(ResultPathFlag.Name) {
		cfg.ResultPath = c.String(ResultPathFlag.Name)
	}
	if c.IsSet(TraceLoggingFlag.Name) {
		cfg.TraceLogging = c.Bool(TraceLoggingFlag.Name)
	}
	if c.IsSet(TimeoutFlag.Name) {
		cfg.RawTimeout = c.Duration(TimeoutFlag.Name).String()
	}
	if c.IsSet(MaxOutputFlag.Name) {
		cfg.RawMaxOutput = c.Int(MaxOutputFlag.Name)
	}
	if c.IsSet(DatabaseFlag.Name) {
		cfg.Store.Database = c.String(DatabaseFlag.Name)
	}
	if c.IsSet(StoreDirFlag.Name) {
		cfg.Store.Dir = c.String(StoreDirFlag.Name)
	}
	if c.IsSet(LogFormatFlag.Name) {
		cfg.Log.Format = c.String(LogFormatFlag.Name)
	}
	if c.IsSet(LogLevelFlag.Name) {
		cfg.Log.Level = c.String(LogLevelFlag.Name)
	}
}
