package protocol

import (
	"errors"
	"fmt"
)

// ErrInvalidMutation is returned when a mutation payload cannot be decoded.
var ErrInvalidMutation = errors.New("protocol: invalid mutation")

// RootID addresses the container node.
const RootID uint64 = 0

// MutationOp is a surface mutation kind.
type MutationOp uint8

const (
	OpCreateElement MutationOp = 0x01 // Create detached element
	OpCreateText    MutationOp = 0x02 // Create detached text node
	OpSetProp       MutationOp = 0x03 // Assign property
	OpListen        MutationOp = 0x04 // Subscribe to event
	OpUnlisten      MutationOp = 0x05 // Unsubscribe from event
	OpInsert        MutationOp = 0x06 // Insert or move a node
	OpRemove        MutationOp = 0x07 // Detach a node
	OpRelease       MutationOp = 0x08 // Discard a never-attached node
)

// String returns the string representation of the op.
func (op MutationOp) String() string {
	switch op {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpSetProp:
		return "SetProp"
	case OpListen:
		return "Listen"
	case OpUnlisten:
		return "Unlisten"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpRelease:
		return "Release"
	default:
		return fmt.Sprintf("Unknown(%d)", op)
	}
}

// Mutation is one surface operation. Which fields are meaningful depends
// on Op:
//
//	CreateElement  ID, Name (tag)
//	CreateText     ID, Name (text)
//	SetProp        ID, Name (key), Value
//	Listen         ID, Name (event)
//	Unlisten       ID, Name (event)
//	Insert         ID, Parent, Before
//	Remove         ID, Parent
//	Release        ID
type Mutation struct {
	Op     MutationOp
	ID     uint64
	Parent uint64
	Before uint64
	Name   string
	Value  any
}

// String returns a compact form for logs and tests.
func (m Mutation) String() string {
	switch m.Op {
	case OpCreateElement, OpCreateText, OpListen, OpUnlisten:
		return fmt.Sprintf("%s %d %q", m.Op, m.ID, m.Name)
	case OpSetProp:
		return fmt.Sprintf("%s %d %s=%v", m.Op, m.ID, m.Name, m.Value)
	case OpInsert:
		return fmt.Sprintf("%s %d into %d before %d", m.Op, m.ID, m.Parent, m.Before)
	case OpRemove:
		return fmt.Sprintf("%s %d from %d", m.Op, m.ID, m.Parent)
	default:
		return fmt.Sprintf("%s %d", m.Op, m.ID)
	}
}

// Property value kinds.
const (
	valueNull   byte = 0x00
	valueString byte = 0x01
	valueBool   byte = 0x02
	valueInt    byte = 0x03
	valueFloat  byte = 0x04
)

// EncodeMutationTo appends m to e. Property values that are not strings,
// booleans or numbers are sent in their fmt form.
func EncodeMutationTo(e *Encoder, m Mutation) {
	e.WriteByte(byte(m.Op))
	e.WriteUvarint(m.ID)
	switch m.Op {
	case OpCreateElement, OpCreateText, OpListen, OpUnlisten:
		e.WriteString(m.Name)
	case OpSetProp:
		e.WriteString(m.Name)
		encodeValue(e, m.Value)
	case OpInsert:
		e.WriteUvarint(m.Parent)
		e.WriteUvarint(m.Before)
	case OpRemove:
		e.WriteUvarint(m.Parent)
	}
}

func encodeValue(e *Encoder, v any) {
	switch v := v.(type) {
	case nil:
		e.WriteByte(valueNull)
	case string:
		e.WriteByte(valueString)
		e.WriteString(v)
	case bool:
		e.WriteByte(valueBool)
		e.WriteBool(v)
	case int:
		e.WriteByte(valueInt)
		e.WriteSvarint(int64(v))
	case int32:
		e.WriteByte(valueInt)
		e.WriteSvarint(int64(v))
	case int64:
		e.WriteByte(valueInt)
		e.WriteSvarint(v)
	case uint:
		e.WriteByte(valueInt)
		e.WriteSvarint(int64(v))
	case float32:
		e.WriteByte(valueFloat)
		e.WriteFloat64(float64(v))
	case float64:
		e.WriteByte(valueFloat)
		e.WriteFloat64(v)
	case fmt.Stringer:
		e.WriteByte(valueString)
		e.WriteString(v.String())
	default:
		e.WriteByte(valueString)
		e.WriteString(fmt.Sprint(v))
	}
}

// DecodeMutationFrom reads one mutation from d. Integer values decode as
// int64 and floats as float64.
func DecodeMutationFrom(d *Decoder) (Mutation, error) {
	var m Mutation
	op, err := d.ReadByte()
	if err != nil {
		return m, err
	}
	m.Op = MutationOp(op)
	if m.ID, err = d.ReadUvarint(); err != nil {
		return m, err
	}

	switch m.Op {
	case OpCreateElement, OpCreateText, OpListen, OpUnlisten:
		m.Name, err = d.ReadString()
	case OpSetProp:
		if m.Name, err = d.ReadString(); err == nil {
			m.Value, err = decodeValue(d)
		}
	case OpInsert:
		if m.Parent, err = d.ReadUvarint(); err == nil {
			m.Before, err = d.ReadUvarint()
		}
	case OpRemove:
		m.Parent, err = d.ReadUvarint()
	case OpRelease:
	default:
		return m, fmt.Errorf("%w: unknown op 0x%02x", ErrInvalidMutation, op)
	}
	return m, err
}

func decodeValue(d *Decoder) (any, error) {
	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch kind {
	case valueNull:
		return nil, nil
	case valueString:
		return d.ReadString()
	case valueBool:
		return d.ReadBool()
	case valueInt:
		return d.ReadSvarint()
	case valueFloat:
		return d.ReadFloat64()
	default:
		return nil, fmt.Errorf("%w: unknown value kind 0x%02x", ErrInvalidMutation, kind)
	}
}

// MutationBatch is the decoded payload of one FrameMutations frame.
type MutationBatch struct {
	Seq       uint64
	Final     bool // Last frame of the commit
	Mutations []Mutation
}

// EncodeMutationFrames encodes a commit's mutations as one or more frames
// of at most MaxPayloadSize bytes. All frames carry seq; the last one is
// flagged FlagFinal. An empty commit yields a single empty final frame.
func EncodeMutationFrames(seq uint64, muts []Mutation) ([]*Frame, error) {
	var frames []*Frame
	body := NewEncoder()
	one := NewEncoder()
	count := 0

	flush := func(final bool) {
		e := NewEncoder()
		e.WriteUvarint(seq)
		e.WriteUvarint(uint64(count))
		e.buf = append(e.buf, body.Bytes()...)
		f := NewFrame(FrameMutations, e.Bytes())
		if final {
			f.Flags = FlagFinal
		}
		frames = append(frames, f)
		body.Reset()
		count = 0
	}

	// Room left for the seq and count varints.
	limit := MaxPayloadSize - 2*MaxVarintLen
	for _, m := range muts {
		one.Reset()
		EncodeMutationTo(one, m)
		if one.Len() > limit {
			return nil, fmt.Errorf("%w: %s", ErrFrameTooLarge, m.Op)
		}
		if body.Len()+one.Len() > limit {
			flush(false)
		}
		body.buf = append(body.buf, one.Bytes()...)
		count++
	}
	flush(true)
	return frames, nil
}

// MaxVarintLen is the longest encoding of a uint64 varint.
const MaxVarintLen = 10

// DecodeMutationBatch decodes a FrameMutations frame.
func DecodeMutationBatch(f *Frame) (*MutationBatch, error) {
	if f.Type != FrameMutations {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFrameType, f.Type)
	}
	d := NewDecoder(f.Payload)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	n, err := d.ReadCount()
	if err != nil {
		return nil, err
	}

	b := &MutationBatch{Seq: seq, Final: f.Flags.Has(FlagFinal), Mutations: make([]Mutation, 0, n)}
	for i := 0; i < n; i++ {
		m, err := DecodeMutationFrom(d)
		if err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
		b.Mutations = append(b.Mutations, m)
	}
	if !d.EOF() {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidMutation, d.Remaining())
	}
	return b, nil
}
