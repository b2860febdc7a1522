package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
)

// Watcher reloads the config file on write and hands the new Config to
// onLoad, so the alternate-source list can change without a restart.
type Watcher struct {
	path   string
	fsw    *fsnotify.Watcher
	onLoad func(*Config)
	log    logr.Logger
}

// NewWatcher builds a Watcher for the config file at path. It watches the
// file's parent directory rather than the file itself, since editors
// commonly replace a file via rename rather than in-place write.
func NewWatcher(path string, onLoad func(*Config), log logr.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{path: path, fsw: fsw, onLoad: onLoad, log: log}, nil
}

// Run blocks, reloading and invoking onLoad on every relevant filesystem
// event, until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.log.Error(err, "failed to reload config", "path", w.path)
				continue
			}
			w.onLoad(cfg)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error(err, "config watcher error")
		}
	}
}
