package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	u "lautenbacher.net/statusled/util"
)

// DefaultDebounce is how long the watcher waits after the last change
// before it reloads the file.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the configuration file whenever it changes and hands the
// latest valid configuration to the consumer of Updates. Invalid files are
// logged and otherwise ignored, the previous configuration stays active.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	updates  *u.AtomicEvent[*Config]
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// Watch starts watching path. The parent directory is watched so editors
// that replace the file on save are picked up as well.
func Watch(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     abs,
		debounce: debounce,
		watcher:  fw,
		updates:  u.NewAtomicEvent[*Config](),
		logger:   logger.With("module", "config"),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	w.logger.Info("Config watcher started", "path", abs, "debounce", debounce)
	go w.watch(ctx)
	return w, nil
}

// Updates delivers reloaded configurations. Only the latest one is kept.
func (w *Watcher) Updates() *u.AtomicEvent[*Config] {
	return w.updates
}

// Reload reads the file right away, independent of file system events.
func (w *Watcher) Reload() error {
	conf, err := ReadConfig(w.path)
	if err != nil {
		w.logger.Warn("Failed to reload config", "error", err)
		return err
	}
	w.updates.Send(conf)
	return nil
}

// Stop ends watching and waits for the watch loop to exit.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.done)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Debug("Config watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("Config file change detected", "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if w.Reload() == nil {
				w.logger.Info("Config file reloaded", "path", w.path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", "error", err)
		}
	}
}
