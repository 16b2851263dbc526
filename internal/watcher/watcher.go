// Package watcher refreshes tracked calls when Python files are saved.
package watcher

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RefreshFunc is called once per debounced save with the saved file path
type RefreshFunc func(ctx context.Context, path string)

// Watcher watches a directory tree for saved .py files
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	delay     time.Duration
	refresh   RefreshFunc

	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
	stopped    bool // guarded by debounceMu

	done     chan struct{}
	stopOnce sync.Once
	// wg covers the event loop and every refresh callback in flight
	wg sync.WaitGroup
}

// New creates a watcher that calls refresh delay after the last save of a file
func New(delay time.Duration, refresh RefreshFunc) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		delay:     delay,
		refresh:   refresh,
		debounce:  make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}, nil
}

// Add watches root and every directory beneath it
func (w *Watcher) Add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return err
		}
		return nil
	})
}

// Start processes events until ctx is done or Stop is called
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.processEvents(ctx)
	}()
}

// Stop ends event processing, cancels pending refreshes and waits for a
// refresh that is already running.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		w.stopped = true
		for path, timer := range w.debounce {
			timer.Stop()
			delete(w.debounce, path)
		}
		w.debounceMu.Unlock()

		w.wg.Wait()
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Watcher] error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// Editors often save via write-tmp-then-rename, so Rename counts as a save
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
			if err := w.Add(event.Name); err != nil {
				log.Printf("[Watcher] failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".py") {
		return
	}

	path := event.Name
	w.debounceEvent(path, func() {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		default:
		}
		log.Printf("[Watcher] %s saved, refreshing", path)
		w.refresh(ctx, path)
	})
}

func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.stopped {
		return
	}
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(w.delay, func() {
		w.debounceMu.Lock()
		if w.debounce[path] == timer {
			delete(w.debounce, path)
		}
		if w.stopped {
			w.debounceMu.Unlock()
			return
		}
		w.wg.Add(1)
		w.debounceMu.Unlock()

		defer w.wg.Done()
		fn()
	})
	w.debounce[path] = timer
}

func skipDir(name string) bool {
	switch name {
	case "__pycache__", "node_modules", "venv":
		return true
	}
	return strings.HasPrefix(name, ".")
}
