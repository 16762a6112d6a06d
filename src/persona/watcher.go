package persona

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// Watcher reloads a persona file when it changes on disk.
type Watcher struct {
	fs      afero.Fs
	path    string
	persona *Persona
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// Watch starts watching path. The parent directory is watched so editors
// that replace the file by rename are noticed.
func Watch(fs afero.Fs, path string, p *Persona, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve persona path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		fs:      fs,
		path:    abs,
		persona: p,
		watcher: fw,
		logger:  logger.With("component", "persona_watcher", "path", abs),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.fs, w.path)
	if err != nil {
		// Partial writes are common mid-save; keep the last good persona.
		w.logger.Debug("persona reload skipped", "error", err)
		return
	}
	w.persona.SetConfig(cfg)
}

// Close stops watching and waits for the watch goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
		<-w.done
	})
	return err
}
