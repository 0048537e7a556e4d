package runner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/pycheck/internal/debug"
	pkgerrors "github.com/standardbeagle/pycheck/internal/errors"
)

// Watch re-analyzes files as they change until the context is
// canceled. Events are debounced by the configured window so editor
// save bursts trigger one pass. Each completed pass invokes onResults
// with the affected files' results.
func (r *Runner) Watch(ctx context.Context, onResults func([]Result)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return pkgerrors.NewFileError("watch", r.cfg.Project.Root, err)
	}
	defer watcher.Close()

	if err := r.addWatchDirs(watcher); err != nil {
		return err
	}

	debounce := time.Duration(r.cfg.Performance.WatchDebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	deb := newDebouncer(debounce)
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(r.cfg.Project.Root, event.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			// New directories need watching before events inside them
			// can be seen.
			if event.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if !r.excluded(rel+"/") && !r.gitignore.Ignored(rel, true) {
						_ = watcher.Add(event.Name)
					}
					continue
				}
			}

			if !r.selected(rel) || r.gitignore.Ignored(rel, false) {
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
				event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				pending[rel] = true
				r.Invalidate(rel)
				deb.trigger()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			debug.LogRunner("watch error: %v\n", err)

		case <-deb.C:
			deb.fired()
			files := make([]string, 0, len(pending))
			for rel := range pending {
				files = append(files, rel)
			}
			pending = make(map[string]bool)

			results, err := r.RunFiles(ctx, files)
			if err != nil {
				return err
			}
			onResults(results)
		}
	}
}

// debouncer coalesces bursts of triggers into one tick after a quiet
// window. C is nil until the first trigger, which keeps it inert in a
// select.
type debouncer struct {
	window time.Duration
	timer  *time.Timer
	C      <-chan time.Time
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window}
}

// trigger starts or restarts the quiet window. A timer that already
// fired leaves its tick buffered in the channel; it must be drained
// before Reset or the stale tick would cut the new window short.
func (d *debouncer) trigger() {
	if d.timer == nil {
		d.timer = time.NewTimer(d.window)
		d.C = d.timer.C
		return
	}
	if !d.timer.Stop() {
		select {
		case <-d.C:
		default:
		}
	}
	d.timer.Reset(d.window)
}

// fired rearms the debouncer after its tick was consumed.
func (d *debouncer) fired() {
	d.timer = nil
	d.C = nil
}

func (r *Runner) addWatchDirs(watcher *fsnotify.Watcher) error {
	root := r.cfg.Project.Root
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && (r.excluded(rel+"/") || r.gitignore.Ignored(rel, true)) {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			debug.LogRunner("cannot watch %s: %v\n", path, addErr)
		}
		return nil
	})
}
