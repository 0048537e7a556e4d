// Package runner orchestrates analysis over a project tree: file
// discovery, parallel per-file analysis, change-hash memoization and
// watch mode. The analysis core itself performs no I/O; everything
// filesystem-shaped lives here.
package runner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/pycheck/internal/config"
	"github.com/standardbeagle/pycheck/internal/debug"
	pkgerrors "github.com/standardbeagle/pycheck/internal/errors"
	"github.com/standardbeagle/pycheck/internal/pyparse"
	"github.com/standardbeagle/pycheck/internal/rules"
	"github.com/standardbeagle/pycheck/internal/types"
)

// Result is the outcome of analyzing one file. Err is set when the
// file could not be read, parsed, or resolved; Findings is nil then.
type Result struct {
	Path     string
	FileID   types.FileID
	Findings []types.Finding
	Err      error
}

type memoEntry struct {
	hash     uint64
	findings []types.Finding
}

// Runner analyzes the files a config selects. It is safe for repeated
// Run calls; unchanged files are served from the hash memo.
type Runner struct {
	cfg       *config.Config
	analyzer  *rules.Analyzer
	gitignore *config.Gitignore

	mu     sync.Mutex
	memo   map[string]memoEntry
	nextID types.FileID
	ids    map[string]types.FileID
}

func New(cfg *config.Config) *Runner {
	r := &Runner{
		cfg:      cfg,
		analyzer: rules.NewAnalyzer(cfg.EnabledRules()...),
		memo:     make(map[string]memoEntry),
		ids:      make(map[string]types.FileID),
	}
	if cfg.Files.RespectGitignore {
		gi, err := config.LoadGitignore(cfg.Project.Root)
		if err != nil {
			debug.LogRunner("ignoring unreadable .gitignore: %v\n", err)
		} else {
			r.gitignore = gi
		}
	}
	return r
}

// Discover walks the project root and returns the relative paths the
// include/exclude patterns select, sorted.
func (r *Runner) Discover() ([]string, error) {
	root := r.cfg.Project.Root
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			debug.LogRunner("skipping %s: %v\n", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && (r.excluded(rel+"/") || r.gitignore.Ignored(rel, true)) {
				return filepath.SkipDir
			}
			if !r.cfg.Files.FollowSymlinks && d.Type()&fs.ModeSymlink != 0 {
				return filepath.SkipDir
			}
			return nil
		}
		if r.selected(rel) && !r.gitignore.Ignored(rel, false) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.NewFileError("walk", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func (r *Runner) selected(rel string) bool {
	if r.excluded(rel) {
		return false
	}
	for _, pattern := range r.cfg.Files.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (r *Runner) excluded(rel string) bool {
	for _, pattern := range r.cfg.Files.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Run discovers and analyzes every selected file, bounded by the
// configured worker count. Results come back in path order. Per-file
// failures are reported in their Result, not as the returned error.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	files, err := r.Discover()
	if err != nil {
		return nil, err
	}
	return r.RunFiles(ctx, files)
}

// RunFiles analyzes the given relative paths concurrently.
func (r *Runner) RunFiles(ctx context.Context, files []string) ([]Result, error) {
	results := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers())
	for i, rel := range files {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = r.analyzeFile(rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) analyzeFile(rel string) Result {
	path := filepath.Join(r.cfg.Project.Root, rel)
	res := Result{Path: rel, FileID: r.fileID(rel)}

	info, err := os.Stat(path)
	if err != nil {
		res.Err = pkgerrors.NewFileError("stat", path, err)
		return res
	}
	if max := r.cfg.Files.MaxFileSize; max > 0 && info.Size() > max {
		debug.LogRunner("skipping oversized file %s (%d bytes)\n", rel, info.Size())
		res.Err = &pkgerrors.FileError{
			Type: pkgerrors.ErrorTypeFileTooLarge, Path: path, Operation: "read",
		}
		return res
	}

	content, err := os.ReadFile(path)
	if err != nil {
		res.Err = pkgerrors.NewFileError("read", path, err)
		return res
	}

	hash := xxhash.Sum64(content)
	r.mu.Lock()
	if entry, ok := r.memo[rel]; ok && entry.hash == hash {
		r.mu.Unlock()
		res.Findings = entry.findings
		return res
	}
	r.mu.Unlock()

	mod, err := pyparse.Parse(content)
	if err != nil {
		res.Err = pkgerrors.NewParseError(res.FileID, path, 0, 0, err)
		return res
	}
	findings, err := r.analyzer.Analyze(mod)
	if err != nil {
		res.Err = pkgerrors.NewAnalysisError(err).WithFile(res.FileID, path).WithRecoverable(true)
		return res
	}

	r.mu.Lock()
	r.memo[rel] = memoEntry{hash: hash, findings: findings}
	r.mu.Unlock()
	res.Findings = findings
	return res
}

func (r *Runner) fileID(rel string) types.FileID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[rel]; ok {
		return id
	}
	r.nextID++
	r.ids[rel] = r.nextID
	return r.nextID
}

// Invalidate drops the memo entry for a path so the next Run
// re-analyzes it.
func (r *Runner) Invalidate(rel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.memo, rel)
}
