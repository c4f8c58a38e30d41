package scheduler

import (
	"context"
	"log/slog"
)

// Worker performs work within one slice and reports whether more remains.
type Worker interface {
	Step(d Deadline) (more bool)
}

// WorkerFunc adapts a function to Worker.
type WorkerFunc func(d Deadline) bool

// Step calls f(d).
func (f WorkerFunc) Step(d Deadline) bool { return f(d) }

// Loop runs a Worker on slices from an IdleSource. It sleeps while the
// worker is idle and requests slices back-to-back while it reports more
// work.
type Loop struct {
	source IdleSource
	worker Worker
	logger *slog.Logger
	wake   chan struct{}
}

// NewLoop creates a Loop. A nil logger uses slog.Default().
func NewLoop(source IdleSource, worker Worker, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		source: source,
		worker: worker,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Wake schedules a slice. It never blocks; wakes coalesce.
func (l *Loop) Wake() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run processes slices until ctx is done or the source fails.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}

		slices := 0
		for {
			d, err := l.source.RequestSlice(ctx)
			if err != nil {
				return err
			}
			slices++
			if !l.worker.Step(d) {
				break
			}
		}
		l.logger.Debug("loop idle", "slices", slices)
	}
}
