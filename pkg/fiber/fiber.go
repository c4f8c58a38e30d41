package fiber

import (
	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/host"
)

// Effect is the pending mutation recorded on a fiber during reconciliation.
type Effect uint8

const (
	EffectNone Effect = iota
	Placement         // Create and attach the node
	Update            // Patch the reused node's props
	Deletion          // Detach the node
)

// String returns the string representation of the Effect.
func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "NONE"
	case Placement:
		return "PLACEMENT"
	case Update:
		return "UPDATE"
	case Deletion:
		return "DELETION"
	default:
		return "UNKNOWN"
	}
}

// Fiber is one element's materialized state in one render generation.
type Fiber struct {
	Type  element.Type
	Props element.Props

	// Node is the surface node this fiber owns. Component fibers own none.
	Node host.Node

	Parent  *Fiber
	Child   *Fiber
	Sibling *Fiber

	// Alternate is the fiber at the same position in the previously
	// committed generation, or nil for new fibers.
	Alternate *Fiber

	Effect Effect
}

// IsComponent reports whether f is a component fiber.
func (f *Fiber) IsComponent() bool {
	return f.Type.Kind() == element.KindComponent
}

// Children returns f's child fibers in order.
func (f *Fiber) Children() []*Fiber {
	var out []*Fiber
	for c := f.Child; c != nil; c = c.Sibling {
		out = append(out, c)
	}
	return out
}

// Walk visits f and its descendants depth-first, pre-order. Returning false
// from visit skips the fiber's children.
func (f *Fiber) Walk(visit func(*Fiber) bool) {
	if f == nil {
		return
	}
	if visit(f) {
		for c := f.Child; c != nil; c = c.Sibling {
			c.Walk(visit)
		}
	}
}

// next returns the fiber after f in depth-first order: its child, else the
// first sibling found walking up through the parents.
func next(f *Fiber) *Fiber {
	if f.Child != nil {
		return f.Child
	}
	for n := f; n != nil; n = n.Parent {
		if n.Sibling != nil {
			return n.Sibling
		}
	}
	return nil
}

// hostParent returns the nearest ancestor that owns a surface node.
func hostParent(f *Fiber) *Fiber {
	for p := f.Parent; p != nil; p = p.Parent {
		if p.Node != nil {
			return p
		}
	}
	return nil
}
