package wirehost

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/host"
	"github.com/vango-dev/loom/pkg/protocol"
)

// Surface errors.
var (
	ErrForeignNode = errors.New("wirehost: node does not belong to this surface")
	ErrNotChild    = errors.New("wirehost: node is not a child of the parent")
	ErrTextParent  = errors.New("wirehost: text nodes cannot have children")
	ErrUnknownNode = errors.New("wirehost: unknown node")
	ErrNoListener  = errors.New("wirehost: no listener for event")
)

// Node is the server-side handle of a remote node.
type Node struct {
	ID  uint64
	Tag string // Empty for text nodes

	parent    *Node
	children  []*Node
	listeners map[string]any
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.Tag == "" && n.ID != protocol.RootID }

// Surface is a host.Surface whose mutations are sent over the wire.
type Surface struct {
	mu      sync.Mutex
	sink    Sink
	logger  *slog.Logger
	root    *Node
	nodes   map[uint64]*Node
	nextID  uint64
	seq     uint64
	pending []protocol.Mutation
}

// New creates a Surface writing to sink. A nil logger uses slog.Default().
func New(sink Sink, logger *slog.Logger) *Surface {
	if logger == nil {
		logger = slog.Default()
	}
	root := &Node{ID: protocol.RootID, Tag: "#root"}
	return &Surface{
		sink:   sink,
		logger: logger,
		root:   root,
		nodes:  map[uint64]*Node{protocol.RootID: root},
	}
}

// Root returns the container node, ID 0.
func (s *Surface) Root() *Node { return s.root }

// Seq returns the sequence number of the last flushed batch.
func (s *Surface) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Pending returns the number of queued mutations.
func (s *Surface) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Surface) node(hn host.Node) (*Node, error) {
	n, ok := hn.(*Node)
	if !ok || n == nil || s.nodes[n.ID] != n {
		return nil, fmt.Errorf("%w: %T", ErrForeignNode, hn)
	}
	return n, nil
}

func (s *Surface) create(tag string) *Node {
	s.nextID++
	n := &Node{ID: s.nextID, Tag: tag}
	s.nodes[n.ID] = n
	return n
}

// CreateElement implements host.Surface.
func (s *Surface) CreateElement(tag string) (host.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.create(tag)
	s.pending = append(s.pending, protocol.Mutation{Op: protocol.OpCreateElement, ID: n.ID, Name: tag})
	return n, nil
}

// CreateText implements host.Surface.
func (s *Surface) CreateText(value string) (host.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.create("")
	s.pending = append(s.pending, protocol.Mutation{Op: protocol.OpCreateText, ID: n.ID, Name: value})
	return n, nil
}

// SetProperty implements host.Surface.
func (s *Surface) SetProperty(hn host.Node, name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(hn)
	if err != nil {
		return err
	}
	s.pending = append(s.pending, protocol.Mutation{Op: protocol.OpSetProp, ID: n.ID, Name: name, Value: value})
	return nil
}

// AddListener implements host.Surface. A node holds one handler per event.
func (s *Surface) AddListener(hn host.Node, event string, handler any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(hn)
	if err != nil {
		return err
	}
	if n.listeners == nil {
		n.listeners = make(map[string]any)
	}
	n.listeners[event] = handler
	s.pending = append(s.pending, protocol.Mutation{Op: protocol.OpListen, ID: n.ID, Name: event})
	return nil
}

// RemoveListener implements host.Surface.
func (s *Surface) RemoveListener(hn host.Node, event string, handler any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(hn)
	if err != nil {
		return err
	}
	if cur, ok := n.listeners[event]; ok && host.Equal(cur, handler) {
		delete(n.listeners, event)
	}
	s.pending = append(s.pending, protocol.Mutation{Op: protocol.OpUnlisten, ID: n.ID, Name: event})
	return nil
}

// InsertBefore implements host.Surface.
func (s *Surface) InsertBefore(hp, hc, hb host.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, err := s.node(hp)
	if err != nil {
		return err
	}
	child, err := s.node(hc)
	if err != nil {
		return err
	}
	if parent.IsText() {
		return ErrTextParent
	}

	var before *Node
	if hb != nil {
		if before, err = s.node(hb); err != nil {
			return err
		}
		if before.parent != parent {
			return ErrNotChild
		}
	}

	if child.parent != nil {
		child.parent.children = slices.DeleteFunc(child.parent.children, func(c *Node) bool { return c == child })
	}
	idx := len(parent.children)
	m := protocol.Mutation{Op: protocol.OpInsert, ID: child.ID, Parent: parent.ID}
	if before != nil {
		idx = slices.Index(parent.children, before)
		m.Before = before.ID
	}
	parent.children = slices.Insert(parent.children, idx, child)
	child.parent = parent

	s.pending = append(s.pending, m)
	return nil
}

// RemoveChild implements host.Surface. The removed subtree is forgotten and
// its listeners dropped.
func (s *Surface) RemoveChild(hp, hc host.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, err := s.node(hp)
	if err != nil {
		return err
	}
	child, err := s.node(hc)
	if err != nil {
		return err
	}
	if child.parent != parent {
		return ErrNotChild
	}
	parent.children = slices.DeleteFunc(parent.children, func(c *Node) bool { return c == child })
	child.parent = nil
	s.forget(child)

	s.pending = append(s.pending, protocol.Mutation{Op: protocol.OpRemove, ID: child.ID, Parent: parent.ID})
	return nil
}

func (s *Surface) forget(n *Node) {
	delete(s.nodes, n.ID)
	for _, c := range n.children {
		s.forget(c)
	}
}

// Release implements host.Releaser.
func (s *Surface) Release(hn host.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(hn)
	if err != nil {
		return
	}
	s.forget(n)
	s.pending = append(s.pending, protocol.Mutation{Op: protocol.OpRelease, ID: n.ID})
}

// Flush implements host.Flusher. Queued mutations are sent as one batch;
// an empty queue sends nothing.
func (s *Surface) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}
	s.seq++
	frames, err := protocol.EncodeMutationFrames(s.seq, s.pending)
	if err != nil {
		return err
	}

	bytes := 0
	for _, f := range frames {
		if err := s.sink.WriteFrame(f); err != nil {
			s.logger.Error("write error", "seq", s.seq, "error", err)
			return err
		}
		bytes += protocol.FrameHeaderSize + len(f.Payload)
	}

	s.logger.Debug("sent mutations",
		"seq", s.seq,
		"count", len(s.pending),
		"frames", len(frames),
		"bytes", bytes)
	s.pending = s.pending[:0]
	return nil
}

// Dispatch delivers a client event to the handler registered on its target.
func (s *Surface) Dispatch(ev *protocol.Event) error {
	s.mu.Lock()
	n, ok := s.nodes[ev.ID]
	var h any
	if ok {
		h, ok = n.listeners[ev.Type]
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s on node %d", ErrNoListener, ev.Type, ev.ID)
		}
	}
	s.mu.Unlock()

	if n == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, ev.ID)
	}
	element.Invoke(h, element.Event{Type: ev.Type, Value: ev.Value, Target: n})
	return nil
}

// ErrorCode maps a Dispatch error to its protocol error code.
func ErrorCode(err error) protocol.ErrorCode {
	switch {
	case errors.Is(err, ErrUnknownNode):
		return protocol.ErrUnknownNode
	case errors.Is(err, ErrNoListener):
		return protocol.ErrNoListener
	default:
		return protocol.ErrUnknown
	}
}
