// Package watcher imports files dropped into a directory tree.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"gnotes/internal/importer"
)

// BatchFunc receives the settled paths, relative to the watched root with slash separators.
type BatchFunc func(ctx context.Context, rels []string) error

type Config struct {
	Root          string
	DebounceDelay time.Duration // Default: 500ms
	OnBatch       BatchFunc
}

// Watcher collects create and write events and hands them over once a path has been
// quiet for the debounce delay.
type Watcher struct {
	root     string
	debounce time.Duration
	onBatch  BatchFunc

	fsWatcher *fsnotify.Watcher
	mu        sync.Mutex
	pending   map[string]time.Time
}

func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, errors.New("watch root is required")
	}
	if cfg.OnBatch == nil {
		return nil, errors.New("batch callback is required")
	}
	debounce := cfg.DebounceDelay
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		root:     filepath.Clean(cfg.Root),
		debounce: debounce,
		onBatch:  cfg.OnBatch,
		pending:  make(map[string]time.Time),
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	slog.Info("watching", "root", w.root, "debounce", w.debounce)

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "err", err)
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) tick() time.Duration {
	if t := w.debounce / 4; t > 10*time.Millisecond {
		return t
	}
	return 10 * time.Millisecond
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if ignored(filepath.Base(event.Name)) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if err := w.addRecursive(event.Name); err != nil {
			slog.Warn("watch new directory", "path", event.Name, "err", err)
		}
		// Files copied in together with the directory raise no events of their own.
		_ = filepath.WalkDir(event.Name, func(p string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				w.schedule(p)
			}
			return nil
		})
		return
	}
	w.schedule(event.Name)
}

func (w *Watcher) schedule(path string) {
	if !importer.Importable(path) || ignored(filepath.Base(path)) {
		return
	}
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// flush passes every path that has settled to the callback in one batch.
func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()
	w.mu.Lock()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()
	if len(ready) == 0 {
		return
	}

	rels := make([]string, 0, len(ready))
	for _, p := range ready {
		rel, err := filepath.Rel(w.root, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rels = append(rels, filepath.ToSlash(rel))
	}
	sort.Strings(rels)
	if err := w.onBatch(ctx, rels); err != nil {
		slog.Error("import batch failed", "files", len(rels), "err", err)
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			slog.Debug("watch directory", "path", path, "err", err)
		}
		return nil
	})
}

func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || name == "node_modules"
}
