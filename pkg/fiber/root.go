package fiber

import (
	"log/slog"
	"time"

	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/host"
	"github.com/vango-dev/loom/pkg/scheduler"
)

// DefaultYieldThreshold is the remaining slice time below which WorkLoop
// yields.
const DefaultYieldThreshold = time.Millisecond

// rootType marks the fiber bound to the container node.
var rootType = element.Host("#container")

// Status is the outcome of one WorkLoop call.
type Status uint8

const (
	StatusIdle      Status = iota // No generation in flight
	StatusYielded                 // Slice ran low; more work remains
	StatusCommitted               // Generation committed
	StatusAborted                 // Generation failed and was discarded
)

// String returns the string representation of the Status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusYielded:
		return "yielded"
	case StatusCommitted:
		return "committed"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Option configures a Root.
type Option func(*Root)

// WithLogger sets the Root's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Root) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver sets the Root's lifecycle observer.
func WithObserver(o Observer) Option {
	return func(r *Root) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithYieldThreshold sets the remaining-time threshold for yielding.
func WithYieldThreshold(d time.Duration) Option {
	return func(r *Root) {
		if d >= 0 {
			r.threshold = d
		}
	}
}

// WithName labels the Root in logs, errors and observer events.
func WithName(name string) Option {
	return func(r *Root) {
		if name != "" {
			r.name = name
		}
	}
}

// Root is the render target bound to one container node. It holds the
// committed tree and at most one work-in-progress generation.
type Root struct {
	name      string
	adapter   host.Adapter
	container host.Node
	logger    *slog.Logger
	observer  Observer
	threshold time.Duration

	current   *Fiber
	wip       *Fiber
	next      *Fiber
	deletions []*Fiber

	// After a failed commit the surface no longer matches current. The
	// next generation is built from scratch and stale top-level nodes are
	// removed before it is attached.
	remount bool
	stale   []host.Node

	gen Generation
	ids uint64
}

// NewRoot creates a Root rendering into container through adapter.
func NewRoot(adapter host.Adapter, container host.Node, opts ...Option) *Root {
	r := &Root{
		name:      "root",
		adapter:   adapter,
		container: container,
		logger:    slog.Default(),
		observer:  NopObserver{},
		threshold: DefaultYieldThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("root", r.name)
	return r
}

// Name returns the Root's label.
func (r *Root) Name() string { return r.name }

// Container returns the node the Root renders into.
func (r *Root) Container() host.Node { return r.container }

// Current returns the committed root fiber, or nil before the first commit.
func (r *Root) Current() *Fiber { return r.current }

// Building reports whether a generation is in flight.
func (r *Root) Building() bool { return r.wip != nil }

// Generation returns the ID of the most recently started generation.
func (r *Root) Generation() uint64 { return r.ids }

// Render starts a new generation rendering el into the container and
// returns its ID. An in-flight generation is discarded first. No work is
// performed until WorkLoop is called.
func (r *Root) Render(el *element.Element) uint64 {
	if r.wip != nil {
		r.abort(ErrSuperseded)
	}

	r.ids++
	alternate := r.current
	if r.remount {
		alternate = nil
	}
	r.wip = &Fiber{
		Type:      rootType,
		Node:      r.container,
		Props:     element.Props{element.ChildrenKey: []*element.Element{el}},
		Alternate: alternate,
	}
	if r.current != nil {
		r.current.Alternate = nil
	}
	r.deletions = nil
	r.next = r.wip
	r.gen = Generation{Root: r.name, ID: r.ids, Started: time.Now()}

	r.logger.Debug("generation started", "gen", r.ids)
	r.observer.GenerationStarted(r.gen)
	return r.ids
}

// Cancel discards the in-flight generation, if any. It reports whether a
// generation was discarded.
func (r *Root) Cancel() bool {
	if r.wip == nil {
		return false
	}
	r.abort(ErrSuperseded)
	return true
}

// Flush runs the in-flight generation to completion without yielding.
func (r *Root) Flush() error {
	for {
		st, err := r.WorkLoop(scheduler.Unbounded)
		if err != nil {
			return err
		}
		if st == StatusIdle || st == StatusCommitted {
			return nil
		}
	}
}

// RenderSync renders el and commits it before returning.
func (r *Root) RenderSync(el *element.Element) error {
	r.Render(el)
	return r.Flush()
}
