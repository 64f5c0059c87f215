package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"fee-engine-go/logs"
)

// Watcher reloads the config file on change. Files that fail to load or
// validate are skipped, never applied; a cooldown absorbs editor save storms.
type Watcher struct {
	Path     string
	Cooldown time.Duration
	Logger   logs.Logger

	watcher    *fsnotify.Watcher
	lastReload time.Time
}

// NewWatcher creates a watcher for the config at path.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		Path:     path,
		Cooldown: 2 * time.Second,
		Logger:   logs.DefaultLogger,
		watcher:  fw,
	}, nil
}

// Start watches until ctx is done; onUpdate receives every valid new config.
func (w *Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	if err := w.watcher.Add(w.Path); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}
	go w.run(ctx, onUpdate)
	return nil
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context, onUpdate func(AppConfig)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if time.Since(w.lastReload) < w.Cooldown {
				continue
			}
			cfg, err := LoadWithEnvOverrides(w.Path)
			if err != nil {
				w.Logger.Warn("config reload skipped", "path", w.Path, "err", err)
				continue
			}
			w.lastReload = time.Now()
			w.Logger.Info("config reloaded", "path", w.Path)
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.Logger.Warn("config watcher error", "err", err)
		}
	}
}
