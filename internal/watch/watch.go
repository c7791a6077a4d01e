// Package watch reports debounced changes to frame files.
//
// A Watcher observes files or directory trees with fsnotify and batches
// bursts of events (editors often write, rename and chmod in quick
// succession) into one callback per quiet period. Files are filtered by
// base name with glob include and exclude patterns.
package watch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Include patterns match file base names; empty matches everything.
	Include []string
	// Exclude patterns match file and directory base names.
	Exclude []string
	Logger  *log.Logger
}

// Watcher batches file system events into change callbacks.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	include  []glob.Glob
	exclude  []glob.Glob
	logger   *log.Logger
	onChange func([]string)

	// files restricts events to explicitly watched files, keyed by
	// cleaned path. Directory watches leave it untouched.
	files map[string]bool

	callbackMu sync.Mutex
	mu         sync.Mutex
	pending    map[string]struct{}
	timer      *time.Timer
	closed     bool
}

// New returns a watcher that calls onChange with the sorted paths that
// changed during each debounce window. Callbacks never overlap.
func New(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	include, err := compile(opts.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compile(opts.Exclude)
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:      fsw,
		debounce: opts.Debounce,
		include:  include,
		exclude:  exclude,
		logger:   logger,
		onChange: onChange,
		files:    make(map[string]bool),
		pending:  make(map[string]struct{}),
	}, nil
}

func compile(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Add watches path. A file is watched through its directory so atomic
// saves (write to temp, rename over) are still seen; a directory is
// watched recursively.
func (w *Watcher) Add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		w.mu.Lock()
		w.files[filepath.Clean(path)] = true
		w.mu.Unlock()
		return w.fsw.Add(filepath.Dir(path))
	}
	return w.addRecursive(path)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.excluded(filepath.Base(path)) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run dispatches events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.excluded(filepath.Base(event.Name)) && !w.fileMode() {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory", "path", event.Name, "err", err)
				}
			}
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if !w.Matches(event.Name) {
		return
	}
	w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())
	w.schedule(event.Name)
}

func (w *Watcher) fileMode() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.files) > 0
}

// Matches reports whether a change to path would be reported.
func (w *Watcher) Matches(path string) bool {
	w.mu.Lock()
	explicit := w.files[filepath.Clean(path)]
	fileMode := len(w.files) > 0
	w.mu.Unlock()
	if explicit {
		return true
	}
	if fileMode {
		return false
	}

	base := filepath.Base(path)
	if w.excluded(base) {
		return false
	}
	if len(w.include) == 0 {
		return true
	}
	return slices.ContainsFunc(w.include, func(g glob.Glob) bool { return g.Match(base) })
}

func (w *Watcher) excluded(base string) bool {
	return slices.ContainsFunc(w.exclude, func(g glob.Glob) bool { return g.Match(base) })
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	slices.Sort(paths)

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

// Close stops the watcher. Pending changes are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}
