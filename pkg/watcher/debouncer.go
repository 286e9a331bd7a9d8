// Package watcher coalesces bursts of change notifications into single
// refresh triggers, so a flurry of filesystem events costs one
// reconciliation instead of one per event.
package watcher

import (
	"sync"
	"time"
)

// DefaultDebounce is the window used when no duration is given.
const DefaultDebounce = 250 * time.Millisecond

// Debouncer runs a callback once after a quiet period. Triggering again
// inside the window restarts it and replaces the callback.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// New returns a debouncer with the given quiet window; zero means
// DefaultDebounce.
func New(window time.Duration) *Debouncer {
	if window == 0 {
		window = DefaultDebounce
	}
	return &Debouncer{window: window}
}

// Trigger schedules fn to run once the window elapses without another
// Trigger or Cancel.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		// A timer can fire while a newer Trigger holds the lock; the
		// generation check keeps only the latest schedule alive.
		stale := gen != d.gen
		if !stale {
			d.timer = nil
		}
		d.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Window returns the quiet window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}
