package lang

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads catalog files when they change on disk, so translations
// can be edited without restarting the bot.
type Watcher struct {
	resolver *Resolver
	fsw      *fsnotify.Watcher
}

// NewWatcher creates a watcher over the resolver's catalog directory.
// Returns an error when the directory cannot be watched (e.g. missing).
func NewWatcher(resolver *Resolver) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(resolver.dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{resolver: resolver, fsw: fsw}, nil
}

// Start begins watching until ctx is done.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.resolver.LoadFile(event.Name); err != nil {
				slog.Warn("catalog reload failed", "file", event.Name, "error", err)
				continue
			}
			slog.Info("language catalog reloaded", "file", filepath.Base(event.Name))
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("catalog watcher error", "error", err)
		}
	}
}
