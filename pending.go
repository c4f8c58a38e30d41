package loom

import (
	"context"
	"sync"
)

// Pending is the outcome of a Render or Do request.
type Pending struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// resolve records the outcome. Only the first call has an effect.
func (p *Pending) resolve(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done is closed when the request is resolved.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Err returns the outcome once Done is closed, and nil before.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the request resolves or ctx is done. It returns nil
// when the tree was committed, ErrSuperseded when a newer request for the
// same container replaced it, and the render failure otherwise.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
