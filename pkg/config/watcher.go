package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period before a changed file is
// reloaded.
const DefaultDebounceInterval = 250 * time.Millisecond

// Watcher reloads the global configuration when its file changes. It
// watches the file's directory so editors that replace the file by rename
// are handled.
type Watcher struct {
	path     string
	interval time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu       sync.Mutex
	timer    *time.Timer
	handlers []func(*Config)
	running  bool
}

// NewWatcher creates a watcher for the configuration file at path. A zero
// interval uses DefaultDebounceInterval.
func NewWatcher(path string, interval time.Duration) (*Watcher, error) {
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configuration path %q: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:     abs,
		interval: interval,
		watcher:  fw,
		logger:   slog.Default().With("component", "config.watcher"),
	}, nil
}

// OnChange registers fn to receive each successfully reloaded snapshot.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, fn)
}

// Watch blocks until ctx is cancelled, reloading the configuration after
// each burst of changes. Invalid files are logged and the previous
// snapshot is kept.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer w.close()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(w.path), err)
	}

	w.logger.Info("configuration watcher started",
		"path", w.path,
		"debounce_ms", w.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("configuration watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("configuration file event", "op", event.Op.String())
			w.trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("configuration watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}

// trigger schedules a reload after the debounce interval, restarting the
// interval on every call.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.interval, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := ReloadConfig(w.path)
	if err != nil {
		w.logger.Error("configuration reload failed, keeping previous configuration", "error", err)
		return
	}

	w.logger.Info("configuration reloaded", "path", w.path)

	w.mu.Lock()
	handlers := append(([]func(*Config))(nil), w.handlers...)
	w.mu.Unlock()

	for _, fn := range handlers {
		fn(cfg)
	}
}

func (w *Watcher) close() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.running = false
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("failed to close configuration watcher", "error", err)
	}
}
