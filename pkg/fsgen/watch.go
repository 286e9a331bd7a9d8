package fsgen

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kestrelui/canopy/pkg/watcher"
)

// Watcher turns filesystem notifications into debounced change
// callbacks. Watch the directories behind the currently-expanded
// branches; when anything inside one of them changes, the callback fires
// once per quiet period with the affected directory, and the caller
// re-reconciles that branch.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce *watcher.Debouncer
	done     chan struct{}
}

// NewWatcher creates a watcher with the given debounce window (zero for
// the default). onChange is invoked from a background goroutine with the
// directory that changed; onErr, if non-nil, receives watch errors.
func NewWatcher(window time.Duration, onChange func(dir string), onErr func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start filesystem watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: watcher.New(window),
		done:     make(chan struct{}),
	}
	go w.loop(onChange, onErr)
	return w, nil
}

func (w *Watcher) loop(onChange func(dir string), onErr func(error)) {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			dir := filepath.Dir(ev.Name)
			w.debounce.Trigger(func() { onChange(dir) })
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if onErr != nil {
				onErr(err)
			}
		}
	}
}

// Add starts watching a directory. Watching is not recursive; add each
// expanded branch's directory.
func (w *Watcher) Add(dir string) error {
	return w.fsw.Add(dir)
}

// Remove stops watching a directory, typically when its branch is
// collapsed.
func (w *Watcher) Remove(dir string) error {
	return w.fsw.Remove(dir)
}

// Close stops the watcher and drops any pending callback.
func (w *Watcher) Close() error {
	close(w.done)
	w.debounce.Cancel()
	return w.fsw.Close()
}
