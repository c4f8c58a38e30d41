package live

import (
	"context"
	"os"
	"sync"
	"time"
)

// DefaultPollInterval is how often a Watcher checks its files.
const DefaultPollInterval = 100 * time.Millisecond

// Watcher polls a set of files and reports modified or removed ones.
type Watcher struct {
	paths    []string
	interval time.Duration

	mu         sync.Mutex
	onChange   func(path string)
	running    bool
	stopCh     chan struct{}
	timestamps map[string]time.Time
}

// NewWatcher creates a watcher for paths. A zero interval uses
// DefaultPollInterval.
func NewWatcher(interval time.Duration, paths ...string) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		paths:      paths,
		interval:   interval,
		timestamps: make(map[string]time.Time),
	}
}

// OnChange sets the callback for file changes.
func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start polls until ctx is done or Stop is called. Calling Start on a
// running watcher returns immediately.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	stopCh := make(chan struct{})
	w.stopCh = stopCh
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.scanInitial()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) scanInitial() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.paths {
		if info, err := os.Stat(p); err == nil {
			w.timestamps[p] = info.ModTime()
		}
	}
}

func (w *Watcher) checkForChanges() {
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()
	if callback == nil {
		return
	}

	var changed []string
	w.mu.Lock()
	for _, p := range w.paths {
		last, seen := w.timestamps[p]
		info, err := os.Stat(p)
		switch {
		case err != nil:
			if seen {
				delete(w.timestamps, p)
				changed = append(changed, p)
			}
		case !seen || !info.ModTime().Equal(last):
			w.timestamps[p] = info.ModTime()
			changed = append(changed, p)
		}
	}
	w.mu.Unlock()

	for _, p := range changed {
		callback(p)
	}
}
