package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

const defaultDebounce = 250 * time.Millisecond

// ReloadFunc receives a freshly loaded dataset.
type ReloadFunc func(ctx context.Context, ds model.Dataset) error

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits after the last event before
// reloading.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the watcher logger.
func WithWatchLogger(l logger.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher reloads a dataset file whenever it is written, created or
// renamed into place. It watches the parent directory so atomic replaces
// done by Save are seen.
type Watcher struct {
	path     string
	fn       ReloadFunc
	debounce time.Duration
	logger   logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWatcher creates a watcher for path. Start must be called to begin.
func NewWatcher(path string, fn ReloadFunc, opts ...WatchOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		fn:       fn,
		debounce: defaultDebounce,
		logger:   logger.Get().Named("dataset-watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns once the watch is registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return ErrWatchActive
	}
	if w.path == "." || w.path == "" {
		return ErrEmptyPath
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.running = true
	go w.run(ctx, fsw)
	w.logger.Info(ctx, "watching dataset", logger.String("path", w.path))
	return nil
}

// Stop ends the watch and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	defer fsw.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "watch error", logger.Error(err))
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	start := time.Now()
	ds, err := Load(ctx, w.path)
	if err == nil {
		err = w.fn(ctx, ds)
	}
	if err != nil {
		metrics.RecordDatasetReload("error")
		w.logger.Error(ctx, "dataset reload failed", logger.String("path", w.path), logger.Error(err))
		return
	}
	metrics.RecordDatasetReload("ok")
	w.logger.Info(ctx, "dataset reloaded",
		logger.String("path", w.path),
		logger.Int("contributors", len(ds.Contributors)),
		logger.Int("projects", len(ds.Projects)),
		logger.Duration("took", time.Since(start)))
}
