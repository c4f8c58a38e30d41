package loom

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/fiber"
	"github.com/vango-dev/loom/pkg/host"
	"github.com/vango-dev/loom/pkg/scheduler"
)

var (
	// ErrSuperseded resolves a render replaced by a newer request for the
	// same container.
	ErrSuperseded = fiber.ErrSuperseded

	// ErrNoAdapter is returned by New when Config.Adapter is nil.
	ErrNoAdapter = errors.New("loom: no adapter configured")

	// ErrStopped resolves requests made after Run returned or left
	// unfinished when it did.
	ErrStopped = errors.New("loom: runtime stopped")

	// ErrRunning is returned by Run when the runtime is already running.
	ErrRunning = errors.New("loom: runtime already running")

	// ErrDoPanicked resolves a Do request whose function panicked.
	ErrDoPanicked = errors.New("loom: do function panicked")
)

// request is a queued Render or Do call.
type request struct {
	el        *element.Element
	container host.Node
	fn        func()
	pending   *Pending
}

// target is the root rendering into one container.
type target struct {
	root    *fiber.Root
	pending *Pending
}

// Runtime schedules renders for any number of containers on one surface.
// A single loop goroutine owns every fiber tree.
type Runtime struct {
	config Config
	loop   *scheduler.Loop
	owned  *scheduler.FrameSource

	mu      sync.Mutex
	queue   []request
	stopped bool

	running atomic.Bool

	// Loop-owned.
	targets map[host.Node]*target
	order   []*target
	cursor  int
}

// New creates a Runtime. Call Run to start processing requests.
func New(config Config) (*Runtime, error) {
	if config.Adapter == nil {
		return nil, ErrNoAdapter
	}
	config.applyDefaults()

	rt := &Runtime{
		config:  config,
		targets: make(map[host.Node]*target),
	}
	if config.Source == nil {
		rt.owned = scheduler.NewFrameSource(DefaultFrameInterval, DefaultSliceBudget)
		rt.config.Source = rt.owned
	}
	rt.loop = scheduler.NewLoop(rt.config.Source, rt, config.Logger)
	return rt, nil
}

// Render requests that el be rendered into container. It returns
// immediately; the returned Pending resolves when the tree is committed,
// replaced or fails. A nil el clears the container.
func (rt *Runtime) Render(el *element.Element, container host.Node) *Pending {
	return rt.enqueue(request{el: el, container: container, pending: newPending()})
}

// Do runs fn on the loop goroutine before the next unit of work. fn may
// inspect roots through Root.
func (rt *Runtime) Do(fn func()) *Pending {
	return rt.enqueue(request{fn: fn, pending: newPending()})
}

func (rt *Runtime) enqueue(req request) *Pending {
	rt.mu.Lock()
	if rt.stopped {
		rt.mu.Unlock()
		req.pending.resolve(ErrStopped)
		return req.pending
	}
	rt.queue = append(rt.queue, req)
	rt.mu.Unlock()

	rt.loop.Wake()
	return req.pending
}

// Root returns the root rendering into container, or nil. It must only be
// called from the loop goroutine, for example inside Do.
func (rt *Runtime) Root(container host.Node) *fiber.Root {
	if t := rt.targets[container]; t != nil {
		return t.root
	}
	return nil
}

// Run processes requests until ctx is done. Requests still in flight when
// Run returns resolve with ErrStopped.
func (rt *Runtime) Run(ctx context.Context) error {
	if !rt.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	rt.config.Logger.Info("runtime started")

	// Requests queued before Run need a slice.
	rt.loop.Wake()
	err := rt.loop.Run(ctx)
	rt.stop()

	if rt.owned != nil {
		rt.owned.Stop()
	}
	if ctx.Err() != nil {
		rt.config.Logger.Info("runtime stopped")
	} else {
		rt.config.Logger.Error("runtime stopped", "error", err)
	}
	return err
}

// stop rejects further requests and resolves everything outstanding.
func (rt *Runtime) stop() {
	rt.mu.Lock()
	rt.stopped = true
	queue := rt.queue
	rt.queue = nil
	rt.mu.Unlock()

	for _, req := range queue {
		req.pending.resolve(ErrStopped)
	}
	for _, t := range rt.order {
		if t.root.Cancel() {
			rt.settle(t, ErrStopped)
		}
	}
}

// Step performs one slice: pending requests are applied, then each
// building root works until the slice runs low. It reports whether work
// remains. Run calls Step for every slice; embedders driving their own
// schedule may call it directly from a single goroutine.
func (rt *Runtime) Step(d scheduler.Deadline) bool {
	rt.drain()

	// Roots take turns starting the slice. The first building root always
	// makes progress.
	n := len(rt.order)
	worked := false
	for i := 0; i < n; i++ {
		t := rt.order[(rt.cursor+i)%n]
		if !t.root.Building() {
			continue
		}
		if worked && d.TimeRemaining() < rt.config.YieldThreshold {
			break
		}
		worked = true
		st, err := t.root.WorkLoop(d)
		switch st {
		case fiber.StatusCommitted:
			rt.settle(t, nil)
		case fiber.StatusAborted:
			rt.settle(t, err)
		}
	}
	if n > 0 {
		rt.cursor = (rt.cursor + 1) % n
	}

	rt.mu.Lock()
	more := len(rt.queue) > 0
	rt.mu.Unlock()
	for _, t := range rt.order {
		if t.root.Building() {
			more = true
		}
	}
	return more
}

// drain applies queued requests in arrival order.
func (rt *Runtime) drain() {
	rt.mu.Lock()
	queue := rt.queue
	rt.queue = nil
	rt.mu.Unlock()

	for _, req := range queue {
		if req.fn != nil {
			req.pending.resolve(rt.call(req.fn))
			continue
		}

		t := rt.target(req.container)
		if t.pending != nil {
			rt.settle(t, ErrSuperseded)
		}
		t.pending = req.pending
		t.root.Render(req.el)
	}
}

// call runs fn, converting a panic into an error so the loop and the
// rest of the queue survive it.
func (rt *Runtime) call(fn func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrDoPanicked, p)
			rt.config.Logger.Error("do function panicked", "panic", p, "stack", string(debug.Stack()))
		}
	}()
	fn()
	return nil
}

func (rt *Runtime) target(container host.Node) *target {
	if t, ok := rt.targets[container]; ok {
		return t
	}
	name := rt.config.Name(container, len(rt.order)+1)
	t := &target{
		root: fiber.NewRoot(rt.config.Adapter, container,
			fiber.WithName(name),
			fiber.WithLogger(rt.config.Logger),
			fiber.WithObserver(rt.config.Observer),
			fiber.WithYieldThreshold(rt.config.YieldThreshold),
		),
	}
	rt.targets[container] = t
	rt.order = append(rt.order, t)
	rt.config.Logger.Debug("root created", "root", name)
	return t
}

func (rt *Runtime) settle(t *target, err error) {
	if t.pending != nil {
		t.pending.resolve(err)
		t.pending = nil
	}
}
