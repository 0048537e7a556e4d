package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/pycheck/internal/config"
	"github.com/standardbeagle/pycheck/internal/debug"
	"github.com/standardbeagle/pycheck/internal/runner"
	"github.com/standardbeagle/pycheck/internal/types"
	"github.com/standardbeagle/pycheck/internal/version"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot, c.String("config"))
	if err != nil {
		return nil, err
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Files.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Files.Exclude = append(cfg.Files.Exclude, excludeFlags...)
	}
	if ruleFlags := c.StringSlice("rule"); len(ruleFlags) > 0 {
		cfg.Rules.Enabled = ruleFlags
	}
	if workers := c.Int("workers"); workers > 0 {
		cfg.Performance.ParallelFileWorkers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:                   "pycheck",
		Usage:                  "Redundancy checks for Python source",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (defaults to .pycheck.toml in the project root)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to check",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Check files matching glob patterns (e.g., --include 'src/**/*.py')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Skip files matching glob patterns (e.g., --exclude '**/migrations/**')",
			},
			&cli.StringSliceFlag{
				Name:  "rule",
				Usage: "Run only the named rules (repeatable)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of parallel file workers (0 = auto)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text or json",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug logging to a temp file",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				os.Setenv("DEBUG", "1")
				logPath, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				logger.Info("debug logging enabled", "path", logPath)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Analyze the project once and report findings",
				Action: runCheck,
			},
			{
				Name:   "watch",
				Usage:  "Analyze continuously as files change",
				Action: runWatch,
			},
			{
				Name:   "rules",
				Usage:  "List the known rules",
				Action: runRules,
			},
		},
		// Bare invocation behaves like `pycheck check`.
		Action: runCheck,
	}

	if err := app.Run(os.Args); err != nil {
		if _, ok := err.(findingsError); ok {
			os.Exit(1)
		}
		logger.Error(err.Error())
		os.Exit(2)
	}
}

// findingsError signals a clean run that produced findings, so the
// process exits non-zero without logging an error.
type findingsError struct{}

func (findingsError) Error() string { return "findings reported" }

func runCheck(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	r := runner.New(cfg)
	results, err := r.Run(signalContext())
	if err != nil {
		return err
	}

	reporter, err := newReporter(c.String("format"), os.Stdout)
	if err != nil {
		return err
	}
	total, failed := reporter.Report(results)
	for _, res := range results {
		if res.Err != nil {
			logger.Warn("analysis failed", "file", res.Path, "err", res.Err)
		}
	}
	logger.Info("check complete", "files", len(results), "findings", total, "failed", failed)

	if total > 0 {
		return findingsError{}
	}
	return nil
}

func runWatch(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	reporter, err := newReporter(c.String("format"), os.Stdout)
	if err != nil {
		return err
	}

	r := runner.New(cfg)
	ctx := signalContext()

	// Full pass first, then incremental passes per change batch.
	results, err := r.Run(ctx)
	if err != nil {
		return err
	}
	total, _ := reporter.Report(results)
	logger.Info("watching for changes", "root", cfg.Project.Root, "findings", total)

	err = r.Watch(ctx, func(updated []runner.Result) {
		n, _ := reporter.Report(updated)
		logger.Info("re-checked", "files", len(updated), "findings", n)
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

func runRules(c *cli.Context) error {
	for _, id := range types.AllRules {
		fmt.Println(id)
	}
	return nil
}

func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx
}
