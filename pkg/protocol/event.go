package protocol

import "fmt"

// Event is a user event raised on a remote surface node.
type Event struct {
	ID    uint64 // Target node
	Type  string // Event type without the "on" prefix, e.g. "click"
	Value string // Input value, key name, or empty
}

// EncodeEvent encodes ev as a FrameEvent frame.
func EncodeEvent(ev *Event) *Frame {
	e := NewEncoder()
	e.WriteUvarint(ev.ID)
	e.WriteString(ev.Type)
	e.WriteString(ev.Value)
	return NewFrame(FrameEvent, e.Bytes())
}

// DecodeEvent decodes a FrameEvent frame.
func DecodeEvent(f *Frame) (*Event, error) {
	if f.Type != FrameEvent {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFrameType, f.Type)
	}
	d := NewDecoder(f.Payload)
	var ev Event
	var err error
	if ev.ID, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if ev.Type, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Value, err = d.ReadString(); err != nil {
		return nil, err
	}
	return &ev, nil
}
