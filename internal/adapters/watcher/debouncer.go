// Package watcher re-renders geometry files when they are edited.
package watcher

import (
	"slices"
	"sync"
	"time"
)

// Debouncer coalesces bursts of edits into one batch per quiet window.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	emit    func(files []string)
}

// NewDebouncer returns a debouncer that calls emit once edits stop for window.
func NewDebouncer(window time.Duration, emit func(files []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		emit:    emit,
	}
}

// Add records an edit to file and restarts the quiet window.
func (d *Debouncer) Add(file string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[file] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// Stop discards pending edits.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	clear(d.pending)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	files := make([]string, 0, len(d.pending))
	for file := range d.pending {
		files = append(files, file)
	}
	clear(d.pending)
	d.mu.Unlock()

	slices.Sort(files)
	if d.emit != nil {
		d.emit(files)
	}
}
