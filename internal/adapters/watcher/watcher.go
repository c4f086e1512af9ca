package watcher

import (
	"context"
	"iter"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// DefaultWindow is the quiet period before an edit batch is reported.
const DefaultWindow = 100 * time.Millisecond

const changeBuffer = 16

// Watcher watches the parent directories of a set of files so that editors
// replacing a file by rename are still seen.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	debouncer *Debouncer
	changes   chan []string
	quit      chan struct{}
	quitOnce  sync.Once
	closeOnce sync.Once

	// files maps absolute paths to the name the caller used.
	files map[string]string
}

// New creates a watcher with the given debounce window.
func New(window time.Duration, logger ports.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(domain.ErrWatchFailed, err.Error())
	}
	w := &Watcher{
		fsWatcher: fsw,
		logger:    logger,
		changes:   make(chan []string, changeBuffer),
		quit:      make(chan struct{}),
		files:     make(map[string]string),
	}
	w.debouncer = NewDebouncer(window, w.publish)
	return w, nil
}

// Start begins watching files.
func (w *Watcher) Start(ctx context.Context, files []string) error {
	dirs := make(map[string]struct{})
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return zerr.With(zerr.Wrap(domain.ErrWatchFailed, err.Error()), "file", file)
		}
		w.files[abs] = file
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrWatchFailed, err.Error()), "dir", dir)
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop releases the watches and ends Changes.
func (w *Watcher) Stop() error {
	w.shutdown()
	var err error
	w.closeOnce.Do(func() {
		err = w.fsWatcher.Close()
	})
	return err
}

// Changes yields edit batches until the watcher stops or its context is done.
func (w *Watcher) Changes() iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for {
			select {
			case batch := <-w.changes:
				if !yield(batch) {
					return
				}
			case <-w.quit:
				return
			}
		}
	}
}

func (w *Watcher) shutdown() {
	w.quitOnce.Do(func() {
		close(w.quit)
		w.debouncer.Stop()
	})
}

func (w *Watcher) publish(files []string) {
	select {
	case w.changes <- files:
	case <-w.quit:
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.quit:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if file, ok := w.match(event); ok {
				w.debouncer.Add(file)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watch error", "error", err)
		}
	}
}

// match reports the caller's name for events that may have changed a watched file.
func (w *Watcher) match(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return "", false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return "", false
	}
	file, ok := w.files[abs]
	return file, ok
}
