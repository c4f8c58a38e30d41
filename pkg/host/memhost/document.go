package memhost

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/host"
)

// RootTag is the tag of a Document's container node.
const RootTag = "#root"

var (
	// ErrForeignNode is returned when a node does not belong to the Document.
	ErrForeignNode = errors.New("memhost: foreign node")

	// ErrNotChild is returned when a reference node is not a child of the parent.
	ErrNotChild = errors.New("memhost: not a child of parent")

	// ErrTextParent is returned when a text node is used as a parent.
	ErrTextParent = errors.New("memhost: text nodes cannot have children")

	// ErrCycle is returned when inserting a node into its own subtree.
	ErrCycle = errors.New("memhost: insertion would create a cycle")
)

// Node is a surface node.
type Node struct {
	Tag      string // Element tag; empty for text nodes
	Text     string // Text node content
	Props    map[string]any
	Parent   *Node
	Children []*Node

	listeners map[string][]any
	released  bool
	doc       *Document
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.Tag == "" }

// Released reports whether the node was released by the engine.
func (n *Node) Released() bool { return n.released }

// Connected reports whether n is attached to its document's root.
func (n *Node) Connected() bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.doc != nil && cur == cur.doc.root {
			return true
		}
	}
	return false
}

// Listeners returns the handlers subscribed for event.
func (n *Node) Listeners(event string) []any {
	return n.listeners[event]
}

// Document is an in-memory surface implementing host.Surface,
// host.Releaser and host.Flusher.
type Document struct {
	root    *Node
	journal []Op
	stats   Stats
}

// Stats counts node lifecycle events.
type Stats struct {
	Created  int
	Released int
	Flushes  int
}

// New creates an empty Document.
func New() *Document {
	d := &Document{}
	d.root = &Node{Tag: RootTag, Props: map[string]any{}, doc: d}
	return d
}

// Root returns the container node.
func (d *Document) Root() *Node { return d.root }

// Journal returns the mutations recorded so far.
func (d *Document) Journal() []Op { return d.journal }

// ResetJournal clears the recorded mutations.
func (d *Document) ResetJournal() { d.journal = nil }

// Stats returns node lifecycle counters.
func (d *Document) Stats() Stats { return d.stats }

func (d *Document) record(op Op) {
	op.Connected = op.Node != nil && op.Node.Connected()
	if op.Parent != nil && op.Parent.Connected() {
		op.Connected = true
	}
	d.journal = append(d.journal, op)
}

func (d *Document) node(n host.Node) (*Node, error) {
	node, ok := n.(*Node)
	if !ok || node == nil || node.doc != d {
		return nil, fmt.Errorf("%w: %T", ErrForeignNode, n)
	}
	return node, nil
}

// CreateElement implements host.Surface.
func (d *Document) CreateElement(tag string) (host.Node, error) {
	n := &Node{Tag: tag, Props: map[string]any{}, doc: d}
	d.stats.Created++
	d.record(Op{Kind: OpCreate, Node: n, Name: tag})
	return n, nil
}

// CreateText implements host.Surface.
func (d *Document) CreateText(value string) (host.Node, error) {
	n := &Node{Text: value, doc: d}
	d.stats.Created++
	d.record(Op{Kind: OpCreateText, Node: n, Value: value})
	return n, nil
}

// SetProperty implements host.Surface. Setting nodeValue on a text node
// replaces its content.
func (d *Document) SetProperty(hn host.Node, name string, value any) error {
	n, err := d.node(hn)
	if err != nil {
		return err
	}
	if n.IsText() {
		if name == element.NodeValueKey {
			n.Text = host.String(value)
		}
	} else {
		n.Props[name] = value
	}
	d.record(Op{Kind: OpSet, Node: n, Name: name, Value: value})
	return nil
}

// AddListener implements host.Surface. Adding the same handler twice for an
// event is a no-op.
func (d *Document) AddListener(hn host.Node, event string, handler any) error {
	n, err := d.node(hn)
	if err != nil {
		return err
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]any)
	}
	if !slices.ContainsFunc(n.listeners[event], func(h any) bool { return host.Equal(h, handler) }) {
		n.listeners[event] = append(n.listeners[event], handler)
	}
	d.record(Op{Kind: OpListen, Node: n, Name: event})
	return nil
}

// RemoveListener implements host.Surface.
func (d *Document) RemoveListener(hn host.Node, event string, handler any) error {
	n, err := d.node(hn)
	if err != nil {
		return err
	}
	if n.listeners != nil {
		n.listeners[event] = slices.DeleteFunc(n.listeners[event], func(h any) bool { return host.Equal(h, handler) })
		if len(n.listeners[event]) == 0 {
			delete(n.listeners, event)
		}
	}
	d.record(Op{Kind: OpUnlisten, Node: n, Name: event})
	return nil
}

// InsertBefore implements host.Surface. A child that already has a parent
// is moved.
func (d *Document) InsertBefore(hp, hc, hb host.Node) error {
	parent, err := d.node(hp)
	if err != nil {
		return err
	}
	child, err := d.node(hc)
	if err != nil {
		return err
	}
	if parent.IsText() {
		return ErrTextParent
	}
	for cur := parent; cur != nil; cur = cur.Parent {
		if cur == child {
			return ErrCycle
		}
	}

	var before *Node
	if hb != nil {
		if before, err = d.node(hb); err != nil {
			return err
		}
		if before.Parent != parent {
			return ErrNotChild
		}
	}

	if child.Parent != nil {
		child.Parent.Children = slices.DeleteFunc(child.Parent.Children, func(c *Node) bool { return c == child })
	}

	idx := len(parent.Children)
	if before != nil {
		idx = slices.Index(parent.Children, before)
	}
	parent.Children = slices.Insert(parent.Children, idx, child)
	child.Parent = parent

	d.record(Op{Kind: OpInsert, Node: child, Parent: parent, Before: before})
	return nil
}

// RemoveChild implements host.Surface.
func (d *Document) RemoveChild(hp, hc host.Node) error {
	parent, err := d.node(hp)
	if err != nil {
		return err
	}
	child, err := d.node(hc)
	if err != nil {
		return err
	}
	if child.Parent != parent {
		return ErrNotChild
	}
	// Record while still connected so the journal reflects a surface mutation.
	d.record(Op{Kind: OpRemove, Node: child, Parent: parent})
	parent.Children = slices.DeleteFunc(parent.Children, func(c *Node) bool { return c == child })
	child.Parent = nil
	return nil
}

// Release implements host.Releaser.
func (d *Document) Release(hn host.Node) {
	n, err := d.node(hn)
	if err != nil || n.released {
		return
	}
	n.released = true
	d.stats.Released++
	d.record(Op{Kind: OpRelease, Node: n})
}

// Flush implements host.Flusher.
func (d *Document) Flush() error {
	d.stats.Flushes++
	return nil
}

// Dispatch delivers an event to n's listeners and returns how many ran.
func (d *Document) Dispatch(n *Node, event, value string) int {
	count := 0
	// Copy: handlers may re-render and change the listener set.
	for _, h := range slices.Clone(n.listeners[event]) {
		if element.Invoke(h, element.Event{Type: event, Value: value, Target: n}) {
			count++
		}
	}
	return count
}

// Find returns the first connected element with the given id prop.
func (d *Document) Find(id string) *Node {
	var walk func(n *Node) *Node
	walk = func(n *Node) *Node {
		if !n.IsText() && n.Props["id"] == id {
			return n
		}
		for _, c := range n.Children {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(d.root)
}
