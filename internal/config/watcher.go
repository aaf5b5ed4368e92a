package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/prosecheck/internal/logging"
)

// ReloadHandler receives the re-loaded configuration, or the load error,
// whenever the watched file changes.
type ReloadHandler func(cfg Config, err error)

// Watcher reloads the configuration file when it changes on disk, so
// throttle bounds and category selections can be adjusted mid-session.
type Watcher struct {
	fsw  *fsnotify.Watcher
	path string
	log  *logging.Logger
	done chan struct{}
}

// Watch starts watching path and calls handler on every change. The
// watch attaches to the parent directory because editors typically
// replace config files by rename.
func Watch(path string, log *logging.Logger, handler ReloadHandler) (*Watcher, error) {
	if log == nil {
		log = logging.Discard()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}

	w := &Watcher{
		fsw:  fsw,
		path: abs,
		log:  log.WithComponent("config-watcher"),
		done: make(chan struct{}),
	}
	go w.loop(handler)
	return w, nil
}

func (w *Watcher) loop(handler ReloadHandler) {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.matches(ev) {
				continue
			}
			w.log.Debug("config file changed (%s), reloading", ev.Op)
			handler(Load(w.path))
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watch error: %v", err)
		}
	}
}

func (w *Watcher) matches(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return name == w.path
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
