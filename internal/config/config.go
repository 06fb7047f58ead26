// Package config loads and validates the optional .rxlaunch YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file.
const FileName = ".rxlaunch"

// Default values.
const (
	DefaultCacheSize = 16
	DefaultLogFormat = "text"
	DefaultLogLevel  = "info"
)

// Config holds the parsed .rxlaunch configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int               `yaml:"version"`
	ResultPath   string            `yaml:"result_path"`   // root of the per-run output directories
	TraceLogging bool              `yaml:"trace_logging"` // log every pipeline milestone
	RawTimeout   string            `yaml:"timeout"`       // e.g. "30m"; empty waits forever
	RawMaxOutput int               `yaml:"max_output"`    // bytes of runner stdout kept; 0 keeps all
	Folders      map[string]string `yaml:"folders"`       // placeholder overrides, e.g. MyDocuments: D:\Docs
	Store        StoreConfig       `yaml:"store"`
	Log          LogConfig         `yaml:"log"`
}

// StoreConfig controls where executions are kept for inspection.
type StoreConfig struct {
	Database string `yaml:"database"` // SQLite history database; enables the history command
	Dir      string `yaml:"dir"`      // JSON directory used when no database is set
	Cache    int    `yaml:"cache"`    // executions kept in memory
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Format string `yaml:"format"` // text or json
	Level  string `yaml:"level"`  // debug, info, warn, error
}

// Timeout returns the configured run timeout, or zero for none.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// MaxOutputBytes returns the configured stdout cap, or zero for none.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return 0
}

// OutputRoot returns the directory under which run directories are created.
func (c *Config) OutputRoot() string {
	if c.ResultPath != "" {
		return c.ResultPath
	}
	return filepath.Join(os.TempDir(), "rxlaunch-results")
}

// StoreDir returns the directory executions are saved to as JSON. It
// defaults to "executions" under the output root.
func (c *Config) StoreDir() string {
	if c.Store.Dir != "" {
		return c.Store.Dir
	}
	return filepath.Join(c.OutputRoot(), "executions")
}

// CacheSize returns the number of executions kept in memory.
func (c *Config) CacheSize() int {
	if c.Store.Cache > 0 {
		return c.Store.Cache
	}
	return DefaultCacheSize
}

// LogFormat returns the configured log format or the default.
func (c *Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	return DefaultLogFormat
}

// LogLevel returns the configured log level or the default.
func (c *Config) LogLevel() string {
	if c.Log.Level != "" {
		return c.Log.Level
	}
	return DefaultLogLevel
}

// FolderOverrides returns the placeholder overrides keyed by token,
// e.g. "[MyDocuments]".
func (c *Config) FolderOverrides() map[string]string {
	out := make(map[string]string, len(c.Folders))
	for k, v := range c.Folders {
		out["["+k+"]"] = v
	}
	return out
}

// Validate reports configuration values that cannot be used.
func (c *Config) Validate() error {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("timeout: must not be negative")
		}
	}
	switch c.LogFormat() {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	return nil
}

// LoadResult holds the parsed config and the directory it was found in.
type LoadResult struct {
	Config *Config
	Root   string // directory containing .rxlaunch; falls back to the start directory
	Path   string // path of the file read, empty when defaults are used
}

// Load looks for a .rxlaunch file in dir and its ancestors. If none exists,
// a default Config is returned. Relative paths in the file are resolved
// against the directory holding it.
func Load(dir string) (*LoadResult, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	path, ok := findConfig(dir)
	if !ok {
		return &LoadResult{Config: &Config{}, Root: dir}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	root := filepath.Dir(path)
	cfg.ResultPath = absFrom(root, cfg.ResultPath)
	cfg.Store.Database = absFrom(root, cfg.Store.Database)
	cfg.Store.Dir = absFrom(root, cfg.Store.Dir)

	return &LoadResult{Config: cfg, Root: root, Path: path}, nil
}

// findConfig walks upward from dir looking for a .rxlaunch file.
func findConfig(dir string) (string, bool) {
	for {
		path := filepath.Join(dir, FileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func absFrom(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
