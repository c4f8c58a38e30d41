package fiber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/host"
	"github.com/vango-dev/loom/pkg/scheduler"
)

// WorkLoop performs units of work until the generation is complete or the
// deadline's remaining time drops below the yield threshold. The budget is
// checked after each unit, so every call with pending work makes progress.
// A completed generation is committed before WorkLoop returns.
//
// On failure the generation is discarded, the committed tree is kept and
// the error is returned as a *RenderError with StatusAborted.
func (r *Root) WorkLoop(d scheduler.Deadline) (Status, error) {
	if r.wip == nil {
		return StatusIdle, nil
	}

	r.gen.Slices++
	yield := false
	for r.next != nil && !yield {
		f := r.next
		if err := r.performUnitOfWork(f); err != nil {
			return StatusAborted, r.fail(PhaseBuild, f.Type, err)
		}
		r.next = next(f)
		r.gen.Units++
		yield = d.TimeRemaining() < r.threshold
	}

	if r.next != nil {
		r.observer.SliceYielded(r.gen)
		return StatusYielded, nil
	}

	if err := r.commitRoot(); err != nil {
		return StatusAborted, err
	}
	return StatusCommitted, nil
}

// performUnitOfWork expands f: it renders a component or creates a host
// node, then reconciles f's children.
func (r *Root) performUnitOfWork(f *Fiber) error {
	if f.IsComponent() {
		child, err := renderComponent(f)
		if err != nil {
			return err
		}
		r.reconcileChildren(f, []*element.Element{child})
		return nil
	}

	if f.Node == nil {
		node, err := r.adapter.CreateNode(f.Type, f.Props)
		if err != nil {
			return err
		}
		f.Node = node
	}
	r.reconcileChildren(f, f.Props.Children())
	return nil
}

// renderComponent calls f's render function, converting panics to errors.
func renderComponent(f *Fiber) (child *element.Element, err error) {
	def := f.Type.Def()
	if def == nil || def.Render == nil {
		return nil, fmt.Errorf("%w: %s has no render function", ErrInvalidElementType, f.Type)
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrComponentPanic, p, debug.Stack())
		}
	}()

	child = def.Render(f.Props)
	if child == nil {
		return nil, fmt.Errorf("%w: %s rendered nil", ErrInvalidElementType, f.Type)
	}
	return child, nil
}

// fail aborts the generation and wraps err with render context.
func (r *Root) fail(phase Phase, t element.Type, err error) error {
	rerr := &RenderError{
		Root:       r.name,
		Generation: r.gen.ID,
		Phase:      phase,
		Type:       t,
		Err:        err,
	}
	r.abort(rerr)
	return rerr
}

// abort discards the work-in-progress tree. Nodes created for Placement
// fibers were never attached and are released back to the surface.
func (r *Root) abort(reason error) {
	if r.wip == nil {
		return
	}

	released := 0
	if rel, ok := r.adapter.(host.Releaser); ok {
		r.wip.Walk(func(f *Fiber) bool {
			if f.Effect == Placement && f.Node != nil {
				rel.Release(f.Node)
				released++
			}
			return true
		})
	}

	g := r.gen
	r.wip = nil
	r.next = nil
	r.deletions = nil

	level := slog.LevelWarn
	if errors.Is(reason, ErrSuperseded) {
		level = slog.LevelDebug
	}
	r.logger.Log(context.Background(), level, "generation aborted",
		"gen", g.ID,
		"units", g.Units,
		"released", released,
		"elapsed", time.Since(g.Started),
		"error", reason,
	)
	r.observer.GenerationAborted(g, reason)
}
