package live

import (
	"log/slog"
	"os"
	"sync"

	"github.com/vango-dev/loom/pkg/element"
)

// Document is an element file shared by every session. Reload decodes the
// file again and notifies subscribers; a failed reload keeps the previous
// tree.
type Document struct {
	path       string
	components map[string]element.Type
	logger     *slog.Logger

	mu      sync.RWMutex
	el      *element.Element
	version uint64
	err     error
	subs    map[chan struct{}]struct{}
}

// OpenDocument loads the element file at path. components resolves
// component names used in the file and may be nil.
func OpenDocument(path string, components map[string]element.Type, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Document{
		path:       path,
		components: components,
		logger:     logger.With("document", path),
		subs:       make(map[chan struct{}]struct{}),
	}
	el, err := d.decode()
	if err != nil {
		return nil, err
	}
	d.el = el
	d.version = 1
	return d, nil
}

// Path returns the file the document is loaded from.
func (d *Document) Path() string { return d.path }

// Current returns the latest successfully decoded tree and its version.
func (d *Document) Current() (*element.Element, uint64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.el, d.version
}

// Err returns the error of the last reload, or nil if it succeeded.
func (d *Document) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.err
}

// Reload decodes the file again. On success the version advances and
// subscribers are notified.
func (d *Document) Reload() error {
	el, err := d.decode()

	d.mu.Lock()
	d.err = err
	if err != nil {
		d.mu.Unlock()
		d.logger.Warn("reload failed", "error", err)
		return err
	}
	d.el = el
	d.version++
	version := d.version
	subs := make([]chan struct{}, 0, len(d.subs))
	for ch := range d.subs {
		subs = append(subs, ch)
	}
	d.mu.Unlock()

	d.logger.Info("document reloaded", "version", version, "subscribers", len(subs))
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel signalled after each successful reload and
// a function that cancels the subscription. Signals coalesce: a slow
// reader sees one signal for several reloads and reads Current.
func (d *Document) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	d.mu.Lock()
	d.subs[ch] = struct{}{}
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, ch)
			d.mu.Unlock()
		})
	}
}

func (d *Document) decode() (*element.Element, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return element.Decode(f, d.components)
}
