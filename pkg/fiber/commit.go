package fiber

import (
	"fmt"
	"time"

	"github.com/vango-dev/loom/pkg/host"
)

// detachment is a resolved deletion: node leaves parent.
type detachment struct {
	parent host.Node
	node   host.Node
}

// commitRoot applies the generation's effects to the surface and promotes
// the work-in-progress tree to current. Deletions are resolved before any
// mutation so an inconsistent tree leaves the surface untouched.
func (r *Root) commitRoot() error {
	start := time.Now()

	var detach []detachment
	for _, f := range r.deletions {
		d, err := resolveDeletion(f)
		if err != nil {
			return r.fail(PhaseCommit, f.Type, err)
		}
		detach = append(detach, d...)
	}

	report := CommitReport{Generation: r.gen, Deletions: len(r.deletions)}

	if r.remount {
		r.removeStale()
	}

	for _, d := range detach {
		if err := r.adapter.Detach(d.parent, d.node); err != nil {
			return r.commitFailed(nil, err)
		}
	}

	for f := r.wip.Child; f != nil; f = next(f) {
		if err := r.commitWork(f, &report); err != nil {
			return r.commitFailed(f, err)
		}
	}

	if fl, ok := r.adapter.(host.Flusher); ok {
		if err := fl.Flush(); err != nil {
			return r.commitFailed(nil, err)
		}
	}

	r.current = r.wip
	r.wip = nil
	r.next = nil
	r.deletions = nil
	r.remount = false

	report.BuildDuration = start.Sub(r.gen.Started)
	report.CommitDuration = time.Since(start)
	r.logger.Debug("generation committed",
		"gen", report.ID,
		"units", report.Units,
		"slices", report.Slices,
		"placements", report.Placements,
		"updates", report.Updates,
		"deletions", report.Deletions,
		"duration", report.CommitDuration,
	)
	r.observer.GenerationCommitted(report)
	return nil
}

// commitWork applies one fiber's effect.
func (r *Root) commitWork(f *Fiber, report *CommitReport) error {
	if f.Node == nil {
		return nil
	}
	parent := hostParent(f)
	if parent == nil {
		return fmt.Errorf("%w: %s has no host parent", ErrInconsistentTree, f.Type)
	}

	switch f.Effect {
	case Placement:
		report.Placements++
		return r.adapter.Attach(parent.Node, f.Node, hostSibling(f))
	case Update:
		report.Updates++
		if f.Alternate == nil {
			return fmt.Errorf("%w: update of %s without alternate", ErrInconsistentTree, f.Type)
		}
		return r.adapter.ApplyPropertyDiff(f.Node, f.Alternate.Props, f.Props)
	}
	return nil
}

// commitFailed discards the generation after the surface rejected a
// mutation. Some effects may already be applied; current is kept.
func (r *Root) commitFailed(f *Fiber, err error) error {
	rerr := &RenderError{
		Root:       r.name,
		Generation: r.gen.ID,
		Phase:      PhaseCommit,
		Err:        fmt.Errorf("%w: %w", ErrCommitFailed, err),
	}
	if f != nil {
		rerr.Type = f.Type
	}
	r.logger.Error("commit failed", "gen", r.gen.ID, "error", err)

	// Nodes may be attached by now, so nothing is released. Detachments
	// already applied can leave current pointing at removed nodes, so the
	// next generation remounts the whole tree.
	r.remount = true
	r.stale = appendTopLevel(r.stale, r.current)
	r.stale = appendTopLevel(r.stale, r.wip)

	g := r.gen
	r.wip = nil
	r.next = nil
	r.deletions = nil
	r.observer.GenerationAborted(g, rerr)
	return rerr
}

// removeStale detaches the top-level nodes left by a failed commit. Nodes
// that are no longer attached fail to detach and are skipped.
func (r *Root) removeStale() {
	removed := 0
	for _, n := range r.stale {
		if err := r.adapter.Detach(r.container, n); err != nil {
			r.logger.Debug("stale node not detached", "error", err)
			continue
		}
		removed++
	}
	r.logger.Warn("remounting after failed commit", "gen", r.gen.ID, "removed", removed)
	r.stale = nil
}

// appendTopLevel appends the nodes root's children own in the container,
// looking through component fibers, skipping nodes already in nodes.
func appendTopLevel(nodes []host.Node, root *Fiber) []host.Node {
	if root == nil {
		return nodes
	}
	var collect func(*Fiber)
	collect = func(f *Fiber) {
		if f.Node != nil {
			for _, n := range nodes {
				if n == f.Node {
					return
				}
			}
			nodes = append(nodes, f.Node)
			return
		}
		for c := f.Child; c != nil; c = c.Sibling {
			collect(c)
		}
	}
	for c := root.Child; c != nil; c = c.Sibling {
		collect(c)
	}
	return nodes
}

// resolveDeletion finds the surface nodes removed by deleting f and the
// node each is detached from. Component fibers own no node, so their
// nearest host descendants are removed instead.
func resolveDeletion(f *Fiber) ([]detachment, error) {
	parent := hostParent(f)
	if parent == nil {
		return nil, fmt.Errorf("%w: deleted %s has no host parent", ErrInconsistentTree, f.Type)
	}

	var out []detachment
	var collect func(*Fiber)
	collect = func(n *Fiber) {
		if n.Node != nil {
			out = append(out, detachment{parent: parent.Node, node: n.Node})
			return
		}
		for c := n.Child; c != nil; c = c.Sibling {
			collect(c)
		}
	}
	collect(f)

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: deleted %s owns no surface node", ErrInconsistentTree, f.Type)
	}
	return out, nil
}

// hostSibling returns the surface node f's node must be inserted before:
// the node of the next mounted host fiber in the same host parent. Other
// placements are skipped since they are not on the surface yet. A nil
// result means append.
func hostSibling(f *Fiber) host.Node {
	n := f
siblings:
	for {
		for n.Sibling == nil {
			if n.Parent == nil || n.Parent.Node != nil {
				return nil
			}
			n = n.Parent
		}
		n = n.Sibling

		for n.Node == nil {
			if n.Effect == Placement || n.Child == nil {
				continue siblings
			}
			n = n.Child
		}
		if n.Effect != Placement {
			return n.Node
		}
	}
}
