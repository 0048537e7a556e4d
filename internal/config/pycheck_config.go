// Package config loads analyzer configuration from .pycheck.toml. All
// fields have working defaults so a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	pkgerrors "github.com/standardbeagle/pycheck/internal/errors"
	"github.com/standardbeagle/pycheck/internal/types"
)

// ConfigFileName is looked up in the project root when no explicit
// config path is given.
const ConfigFileName = ".pycheck.toml"

type Config struct {
	Version     int         `toml:"version"`
	Project     Project     `toml:"project"`
	Files       Files       `toml:"files"`
	Rules       Rules       `toml:"rules"`
	Performance Performance `toml:"performance"`
}

type Project struct {
	Root string `toml:"root"`
	Name string `toml:"name"`
}

type Files struct {
	Include []string `toml:"include"` // doublestar glob patterns
	Exclude []string `toml:"exclude"`
	// MaxFileSize caps the size of a single source file in bytes.
	// Larger files are skipped with a warning.
	MaxFileSize int64 `toml:"max_file_size"`
	// FollowSymlinks controls whether directory walking descends into
	// symlinked directories.
	FollowSymlinks bool `toml:"follow_symlinks"`
	// RespectGitignore additionally filters discovery through the
	// project root's .gitignore.
	RespectGitignore bool `toml:"respect_gitignore"`
}

type Rules struct {
	// Enabled lists rule ids to run. Empty means all rules.
	Enabled []string `toml:"enabled"`
}

type Performance struct {
	// ParallelFileWorkers bounds concurrent file analysis.
	// 0 = auto-detect (NumCPU).
	ParallelFileWorkers int `toml:"parallel_file_workers"`
	// WatchDebounceMs is the debounce window for file change events in
	// watch mode.
	WatchDebounceMs int `toml:"watch_debounce_ms"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Files: Files{
			Include:          []string{"**/*.py"},
			Exclude:          []string{"**/.git/**", "**/venv/**", "**/.venv/**", "**/__pycache__/**"},
			MaxFileSize:      2 * 1024 * 1024,
			RespectGitignore: true,
		},
		Performance: Performance{
			ParallelFileWorkers: 0,
			WatchDebounceMs:     250,
		},
	}
}

// Load reads configuration from the given path. An empty path means
// "use defaults, overlaid with ConfigFileName in root if it exists".
func Load(root, path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Project.Root = root

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, ConfigFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, pkgerrors.NewFileError("read", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, pkgerrors.NewConfigError("file", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and rule ids.
func (c *Config) Validate() error {
	if c.Files.MaxFileSize < 0 {
		return pkgerrors.NewConfigError("files.max_file_size",
			fmt.Sprint(c.Files.MaxFileSize), fmt.Errorf("must be non-negative"))
	}
	if c.Performance.ParallelFileWorkers < 0 {
		return pkgerrors.NewConfigError("performance.parallel_file_workers",
			fmt.Sprint(c.Performance.ParallelFileWorkers), fmt.Errorf("must be non-negative"))
	}
	for _, id := range c.Rules.Enabled {
		if !knownRule(types.RuleID(id)) {
			return pkgerrors.NewConfigError("rules.enabled", id, fmt.Errorf("unknown rule"))
		}
	}
	return nil
}

// EnabledRules resolves the configured rule set, defaulting to all.
func (c *Config) EnabledRules() []types.RuleID {
	if len(c.Rules.Enabled) == 0 {
		return types.AllRules
	}
	out := make([]types.RuleID, 0, len(c.Rules.Enabled))
	for _, id := range c.Rules.Enabled {
		out = append(out, types.RuleID(id))
	}
	return out
}

// Workers resolves the worker count, defaulting to NumCPU.
func (c *Config) Workers() int {
	if c.Performance.ParallelFileWorkers > 0 {
		return c.Performance.ParallelFileWorkers
	}
	return runtime.NumCPU()
}

func knownRule(id types.RuleID) bool {
	for _, r := range types.AllRules {
		if r == id {
			return true
		}
	}
	return false
}
