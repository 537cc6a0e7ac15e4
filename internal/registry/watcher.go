package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultSettle = 100 * time.Millisecond

// Watcher reloads a Directory when the types directory or the registry file changes.
type Watcher struct {
	dir     *Directory
	watcher *fsnotify.Watcher
	settle  time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewWatcher(dir *Directory) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify.NewWatcher() > %w", err)
	}
	w := &Watcher{dir: dir, watcher: watcher, settle: defaultSettle}
	if err := w.addPaths(); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return w, nil
}

// addPaths watches the types directory, each tool directory in it and the registry's directory.
// fsnotify is not recursive, so version directories are covered by their parent.
func (w *Watcher) addPaths() error {
	paths := map[string]bool{}
	if w.dir.typesDir != "" {
		if info, err := os.Stat(w.dir.typesDir); err == nil && info.IsDir() {
			paths[w.dir.typesDir] = true
			children, err := os.ReadDir(w.dir.typesDir)
			if err != nil {
				return fmt.Errorf("os.ReadDir(%s) > %w", w.dir.typesDir, err)
			}
			for _, child := range children {
				if child.IsDir() {
					paths[filepath.Join(w.dir.typesDir, child.Name())] = true
				}
			}
		}
	}
	if w.dir.registryFile != "" {
		paths[filepath.Dir(w.dir.registryFile)] = true
	}

	for p := range paths {
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watcher.Add(%s) > %w", p, err)
		}
	}
	return nil
}

// Run processes events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.dir.logger.Error("registry watcher", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	// New tool directories need their own watch.
	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == filepath.Clean(w.dir.typesDir) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.dir.logger.Warn("failed to watch tool directory", "path", event.Name, "error", err)
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.settle, func() {
		if err := w.dir.Reload(); err != nil {
			w.dir.logger.Error("failed to reload tool directory", "error", err)
		}
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	_ = w.watcher.Close()
}
