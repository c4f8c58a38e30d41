package fiber

import "github.com/vango-dev/loom/pkg/element"

// reconcileChildren rebuilds wip's child chain from elements, matching them
// by position against the children of wip's alternate.
//
// A position whose element and old fiber share a Type reuses the old node
// and is tagged Update. A new element at any other position is tagged
// Placement. An old fiber that was not reused is tagged Deletion and queued
// on the Root. Nil elements occupy no position.
func (r *Root) reconcileChildren(wip *Fiber, elements []*element.Element) {
	var old *Fiber
	if wip.Alternate != nil {
		old = wip.Alternate.Child
	}

	wip.Child = nil
	var prev *Fiber
	i := 0
	for i < len(elements) || old != nil {
		var el *element.Element
		for el == nil && i < len(elements) {
			el = elements[i]
			i++
		}
		if el == nil && old == nil {
			break
		}

		var f *Fiber
		same := el != nil && old != nil && el.Type == old.Type
		switch {
		case same:
			f = &Fiber{
				Type:      old.Type,
				Props:     el.Props,
				Node:      old.Node,
				Parent:    wip,
				Alternate: old,
				Effect:    Update,
			}
			// Keep only two generations reachable.
			old.Alternate = nil
		case el != nil:
			f = &Fiber{
				Type:   el.Type,
				Props:  el.Props,
				Parent: wip,
				Effect: Placement,
			}
		}

		if old != nil && !same {
			old.Effect = Deletion
			r.deletions = append(r.deletions, old)
		}

		if f != nil {
			if prev == nil {
				wip.Child = f
			} else {
				prev.Sibling = f
			}
			prev = f
		}

		if old != nil {
			old = old.Sibling
		}
	}
}
