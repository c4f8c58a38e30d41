package wirehost

import (
	"errors"
	"fmt"

	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/host"
	"github.com/vango-dev/loom/pkg/protocol"
)

// ErrOutOfOrder is returned when a batch arrives with an older sequence
// number than one already applied.
var ErrOutOfOrder = errors.New("wirehost: batch out of order")

type listenKey struct {
	id    uint64
	event string
}

// Replica applies mutation frames to a local surface.
type Replica struct {
	surface  host.Surface
	nodes    map[uint64]host.Node
	parents  map[uint64]uint64
	handlers map[listenKey]*element.Handler
	onEvent  func(*protocol.Event)
	seq      uint64
}

// NewReplica mirrors a remote root into container on surface. Events the
// surface raises on listened nodes are reported to onEvent, which may be
// nil.
func NewReplica(surface host.Surface, container host.Node, onEvent func(*protocol.Event)) *Replica {
	return &Replica{
		surface:  surface,
		nodes:    map[uint64]host.Node{protocol.RootID: container},
		parents:  make(map[uint64]uint64),
		handlers: make(map[listenKey]*element.Handler),
		onEvent:  onEvent,
	}
}

// Seq returns the sequence number of the last applied batch.
func (r *Replica) Seq() uint64 { return r.seq }

// Node returns the local node for a remote ID.
func (r *Replica) Node(id uint64) (host.Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// Apply applies one mutation frame. Frames of other types are ignored.
func (r *Replica) Apply(f *protocol.Frame) error {
	if f.Type != protocol.FrameMutations {
		return nil
	}
	b, err := protocol.DecodeMutationBatch(f)
	if err != nil {
		return err
	}
	if b.Seq < r.seq {
		return fmt.Errorf("%w: got %d after %d", ErrOutOfOrder, b.Seq, r.seq)
	}
	r.seq = b.Seq

	for i, m := range b.Mutations {
		if err := r.apply(m); err != nil {
			return fmt.Errorf("seq %d mutation %d (%s): %w", b.Seq, i, m, err)
		}
	}
	return nil
}

func (r *Replica) lookup(id uint64) (host.Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return n, nil
}

func (r *Replica) apply(m protocol.Mutation) error {
	switch m.Op {
	case protocol.OpCreateElement:
		n, err := r.surface.CreateElement(m.Name)
		if err != nil {
			return err
		}
		r.nodes[m.ID] = n
		return nil
	case protocol.OpCreateText:
		n, err := r.surface.CreateText(m.Name)
		if err != nil {
			return err
		}
		r.nodes[m.ID] = n
		return nil
	}

	n, err := r.lookup(m.ID)
	if err != nil {
		return err
	}

	switch m.Op {
	case protocol.OpSetProp:
		return r.surface.SetProperty(n, m.Name, m.Value)
	case protocol.OpListen:
		return r.listen(n, m.ID, m.Name)
	case protocol.OpUnlisten:
		key := listenKey{m.ID, m.Name}
		h, ok := r.handlers[key]
		if !ok {
			return nil
		}
		delete(r.handlers, key)
		return r.surface.RemoveListener(n, m.Name, h)
	case protocol.OpInsert:
		parent, err := r.lookup(m.Parent)
		if err != nil {
			return err
		}
		var before host.Node
		if m.Before != 0 {
			if before, err = r.lookup(m.Before); err != nil {
				return err
			}
		}
		if err := r.surface.InsertBefore(parent, n, before); err != nil {
			return err
		}
		r.parents[m.ID] = m.Parent
		return nil
	case protocol.OpRemove:
		parent, err := r.lookup(m.Parent)
		if err != nil {
			return err
		}
		if err := r.surface.RemoveChild(parent, n); err != nil {
			return err
		}
		r.forget(m.ID)
		return nil
	case protocol.OpRelease:
		if rel, ok := r.surface.(host.Releaser); ok {
			rel.Release(n)
		}
		r.forget(m.ID)
		return nil
	default:
		return fmt.Errorf("%w: %s", protocol.ErrInvalidMutation, m.Op)
	}
}

func (r *Replica) listen(n host.Node, id uint64, event string) error {
	key := listenKey{id, event}
	if old, ok := r.handlers[key]; ok {
		if err := r.surface.RemoveListener(n, event, old); err != nil {
			return err
		}
	}
	h := element.NewHandler(func(ev element.Event) {
		if r.onEvent != nil {
			r.onEvent(&protocol.Event{ID: id, Type: event, Value: ev.Value})
		}
	})
	r.handlers[key] = h
	return r.surface.AddListener(n, event, h)
}

// forget drops id and every node inserted below it.
func (r *Replica) forget(id uint64) {
	delete(r.nodes, id)
	delete(r.parents, id)
	for key := range r.handlers {
		if key.id == id {
			delete(r.handlers, key)
		}
	}
	for child, parent := range r.parents {
		if parent == id {
			r.forget(child)
		}
	}
}
