package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/burrow/internal/logging"
)

// DefaultDebounce coalesces the burst of events an editor's save makes.
const DefaultDebounce = 200 * time.Millisecond

// Handler receives the new configuration after a reload.
type Handler func(cfg *Config)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the file must be quiet before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(l *logging.Logger) WatcherOption {
	return func(w *Watcher) { w.log = l }
}

// Watcher holds the current configuration and reloads it when the file
// changes. The file's directory is watched, so editors that save by
// renaming are seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	log      *logging.Logger

	mu       sync.RWMutex
	cur      *Config
	handlers []Handler
	onError  []func(error)
}

// NewWatcher creates a watcher for path starting from initial.
func NewWatcher(path string, initial *Config, opts ...WatcherOption) *Watcher {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	w := &Watcher{
		path:     path,
		debounce: DefaultDebounce,
		log:      logging.Discard,
		cur:      initial,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithComponent("config")
	return w
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Current returns the configuration in effect. Callers must not modify it.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cur
}

// OnChange registers a handler called after every successful reload.
func (w *Watcher) OnChange(h Handler) {
	w.mu.Lock()
	w.handlers = append(w.handlers, h)
	w.mu.Unlock()
}

// OnError registers a handler called when a reload fails. The previous
// configuration stays in effect.
func (w *Watcher) OnError(fn func(error)) {
	w.mu.Lock()
	w.onError = append(w.onError, fn)
	w.mu.Unlock()
}

// Reload reads the file again and notifies the handlers.
func (w *Watcher) Reload() error {
	cfg, err := Load(w.path)
	w.mu.Lock()
	if err == nil {
		w.cur = cfg
	}
	handlers := append([]Handler(nil), w.handlers...)
	onError := append(([]func(error))(nil), w.onError...)
	w.mu.Unlock()

	if err != nil {
		w.log.Warn("reload failed: %v", err)
		for _, fn := range onError {
			fn(err)
		}
		return err
	}
	w.log.Info("reloaded %s", w.path)
	for _, h := range handlers {
		h(cfg)
	}
	return nil
}

// Run watches the file until ctx is done. A missing directory is not an
// error; there is simply nothing to watch.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.log.Info("not watching %s: directory missing", dir)
			<-ctx.Done()
			return nil
		}
		return fmt.Errorf("config watcher: %w", err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.log.Debug("%s: %s", ev.Op, ev.Name)
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error: %v", err)
		case <-timer.C:
			_ = w.Reload()
		}
	}
}
