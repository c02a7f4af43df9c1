package reload

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/hookbus/internal/logging"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 200 * time.Millisecond

// ChangeFunc receives the pack-relative paths that changed during one
// debounce window, sorted.
type ChangeFunc func(paths []string)

// Watcher reports changes to the resource files of a pack directory on the
// OS filesystem.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	onChange ChangeFunc
	logger   *logging.Logger
}

// NewWatcher watches root and its subdirectories. onChange runs on the
// goroutine that calls Run.
func NewWatcher(root string, debounce time.Duration, onChange ChangeFunc, logger *logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	w := &Watcher{
		watcher:  fw,
		root:     root,
		debounce: debounce,
		onChange: onChange,
		logger:   logger.With("watch", root),
	}
	if err := w.watchDirRecursive(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// watchDirRecursive adds dir and every non-hidden subdirectory.
func (w *Watcher) watchDirRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // Skip errors, continue walking
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run delivers debounced changes until ctx is cancelled or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	// Editors emit several events per save; collect them until things go quiet.
	debounceTimer := time.NewTimer(w.debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			rel, interesting := w.classify(ev)
			if !interesting {
				continue
			}
			pending[rel] = struct{}{}
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]struct{})

			w.logger.Debug("pack changed", "paths", paths)
			if w.onChange != nil {
				w.onChange(paths)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err.Error())
		}
	}
}

// classify decides whether ev concerns a resource file and returns its
// pack-relative path. New directories are added to the watch set.
func (w *Watcher) classify(ev fsnotify.Event) (string, bool) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.watchDirRecursive(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "dir", ev.Name, "error", err.Error())
			}
			return "", false
		}
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return "", false
	}
	if _, err := FormatOf(ev.Name); err != nil {
		return "", false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Close stops the watcher. Run returns once it notices.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
