package memhost

import (
	"fmt"

	"github.com/vango-dev/loom/pkg/host"
)

// OpKind identifies a journaled surface call.
type OpKind uint8

const (
	OpCreate OpKind = iota + 1
	OpCreateText
	OpSet
	OpListen
	OpUnlisten
	OpInsert
	OpRemove
	OpRelease
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpCreateText:
		return "text"
	case OpSet:
		return "set"
	case OpListen:
		return "listen"
	case OpUnlisten:
		return "unlisten"
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Op is one journaled surface call.
type Op struct {
	Kind   OpKind
	Node   *Node
	Parent *Node // Insert/Remove
	Before *Node // Insert; nil appends
	Name   string
	Value  any

	// Connected is true when the call touched a node attached to the root.
	Connected bool
}

// String renders the op compactly, e.g. `insert <li> into <ul>`.
func (o Op) String() string {
	switch o.Kind {
	case OpCreate:
		return fmt.Sprintf("create <%s>", o.Name)
	case OpCreateText:
		return fmt.Sprintf("text %q", host.String(o.Value))
	case OpSet:
		return fmt.Sprintf("set %s %s=%q", o.Node.label(), o.Name, host.String(o.Value))
	case OpListen, OpUnlisten:
		return fmt.Sprintf("%s %s %s", o.Kind, o.Node.label(), o.Name)
	case OpInsert:
		if o.Before != nil {
			return fmt.Sprintf("insert %s into %s before %s", o.Node.label(), o.Parent.label(), o.Before.label())
		}
		return fmt.Sprintf("insert %s into %s", o.Node.label(), o.Parent.label())
	case OpRemove:
		return fmt.Sprintf("remove %s from %s", o.Node.label(), o.Parent.label())
	case OpRelease:
		return fmt.Sprintf("release %s", o.Node.label())
	default:
		return o.Kind.String()
	}
}

// label is a short human-readable node name used in op strings.
func (n *Node) label() string {
	if n == nil {
		return "<nil>"
	}
	if n.IsText() {
		return fmt.Sprintf("%q", n.Text)
	}
	return "<" + n.Tag + ">"
}
