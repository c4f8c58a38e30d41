package host

import (
	"errors"

	"github.com/vango-dev/loom/pkg/element"
)

// Node is an opaque surface node handle. Implementations must use
// comparable handle types (pointers or integer ids).
type Node any

// ErrInvalidElementType is returned when a surface node is requested for a
// Type that cannot own one.
var ErrInvalidElementType = errors.New("host: invalid element type")

// Adapter is the surface contract consumed by the engine.
type Adapter interface {
	// CreateNode returns a new, unattached node for a host or text Type.
	CreateNode(t element.Type, props element.Props) (Node, error)

	// ApplyPropertyDiff brings node from prev to next props.
	ApplyPropertyDiff(node Node, prev, next element.Props) error

	// Attach inserts child into parent before the given node, or appends it
	// when before is nil.
	Attach(parent, child, before Node) error

	// Detach removes child from parent.
	Detach(parent, child Node) error
}

// Surface is the set of primitive operations a render surface provides.
type Surface interface {
	CreateElement(tag string) (Node, error)
	CreateText(value string) (Node, error)
	SetProperty(node Node, name string, value any) error
	AddListener(node Node, event string, handler any) error
	RemoveListener(node Node, event string, handler any) error
	InsertBefore(parent, child, before Node) error
	RemoveChild(parent, child Node) error
}

// Releaser is implemented by surfaces that can free a node that was created
// but never attached.
type Releaser interface {
	Release(node Node)
}

// Flusher is implemented by surfaces that batch mutations. Flush is called
// once after every committed generation.
type Flusher interface {
	Flush() error
}
