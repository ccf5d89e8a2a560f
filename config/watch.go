package config

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/llmtoolhub/toolhub-mcp-go/logger"
)

// Watcher reloads the config file on change and applies the logging
// level live. Other settings require a restart and are left untouched.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching the config file at path. The parent directory
// is watched rather than the file itself so editors that replace the
// file on save keep triggering events.
func Watch(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolve config path")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create config watcher")
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, errors.Wrap(err, "watch config directory")
	}

	w := &Watcher{path: abs, watcher: fsw, done: make(chan struct{})}
	go w.loop()

	logger.Debug("Config watcher started", "path", abs)
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		logger.Warn("Ignoring config change: reload failed", "path", w.path, "error", err)
		return
	}

	level := logger.GetLevelFromString(cfg.Logging.Level)
	if level == logger.Level() {
		return
	}
	logger.SetLevel(level)
	logger.Info("Log level updated from config change", "level", cfg.Logging.Level)
}
