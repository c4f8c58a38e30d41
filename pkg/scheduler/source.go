package scheduler

import (
	"context"
	"errors"
	"time"
)

// ErrSourceClosed is returned by RequestSlice after the source is closed.
var ErrSourceClosed = errors.New("scheduler: source closed")

// IdleSource grants time slices. RequestSlice blocks until a slice is
// available or ctx is done.
type IdleSource interface {
	RequestSlice(ctx context.Context) (Deadline, error)
}

// FrameSource grants one slice per frame interval.
type FrameSource struct {
	ticker *time.Ticker
	budget time.Duration
}

// NewFrameSource returns a source ticking every interval with slices of the
// given budget. Budgets larger than the interval are clamped to it.
func NewFrameSource(interval, budget time.Duration) *FrameSource {
	if budget > interval {
		budget = interval
	}
	return &FrameSource{ticker: time.NewTicker(interval), budget: budget}
}

// RequestSlice waits for the next frame.
func (s *FrameSource) RequestSlice(ctx context.Context) (Deadline, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ticker.C:
		return NewDeadline(s.budget), nil
	}
}

// Stop stops the frame ticker.
func (s *FrameSource) Stop() {
	s.ticker.Stop()
}

// ImmediateSource grants a slice of Budget on every request without
// waiting. A zero Budget grants Unbounded slices.
type ImmediateSource struct {
	Budget time.Duration
}

// RequestSlice returns a fresh slice unless ctx is done.
func (s ImmediateSource) RequestSlice(ctx context.Context) (Deadline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Budget <= 0 {
		return Unbounded, nil
	}
	return NewDeadline(s.Budget), nil
}

// ManualSource grants exactly the slices passed to Grant.
type ManualSource struct {
	slices chan Deadline
	done   chan struct{}
}

// NewManualSource creates a ManualSource.
func NewManualSource() *ManualSource {
	return &ManualSource{
		slices: make(chan Deadline),
		done:   make(chan struct{}),
	}
}

// Grant hands d to the next RequestSlice call, blocking until it is taken.
func (s *ManualSource) Grant(ctx context.Context, d Deadline) error {
	select {
	case s.slices <- d:
		return nil
	case <-s.done:
		return ErrSourceClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestSlice waits for a Grant.
func (s *ManualSource) RequestSlice(ctx context.Context) (Deadline, error) {
	select {
	case d := <-s.slices:
		return d, nil
	case <-s.done:
		return nil, ErrSourceClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close unblocks pending calls. It must be called at most once.
func (s *ManualSource) Close() {
	close(s.done)
}
