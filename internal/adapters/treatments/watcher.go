package treatments

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

// DefaultDebounce is how long the watcher waits after the last dataset
// change before invalidating.
const DefaultDebounce = 250 * time.Millisecond

// Invalidator drops cached datasets.
type Invalidator interface {
	Invalidate()
}

// Watcher invalidates cached datasets after JSON files in the dataset
// directory change. A burst of events yields a single invalidation once
// the directory has been quiet for the debounce interval.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	target   Invalidator
	dir      string
	debounce time.Duration
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher watches dir on behalf of target.
func NewWatcher(dir string, target Invalidator) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	return &Watcher{
		watcher: watcher,
		target:   target,
		dir:      dir,
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet interval. Call it before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d > 0 {
		w.debounce = d
	}
}

// Start begins the event loop in a goroutine. It returns immediately.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	go w.run(ctx)
}

// Stop ends the event loop and releases the watcher. Safe to call without
// Start and more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		select {
		case <-w.stopCh:
		default:
			close(w.stopCh)
		}
		<-w.doneCh
	}
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	logger := observability.LoggerFromContext(ctx)
	logger.Info().Str("dir", w.dir).Dur("debounce", w.debounce).Msg("watching treatment datasets")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("treatment dataset changed")
			pending++
			timer.Reset(w.debounce)
		case <-timer.C:
			w.target.Invalidate()
			logger.Info().Int("events", pending).Msg("treatment datasets changed, cache invalidated")
			pending = 0
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("treatment dataset watcher error")
		}
	}
}
