// Package protocol implements loom's binary wire format for remote render
// surfaces.
//
// A remote surface receives the mutations the commit engine applies and
// sends user events back. Both directions share one framing:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameMutations (0x01): server → client surface mutations
//   - FrameEvent (0x02): client → server event
//   - FrameError (0x03): error report, either direction
//
// A commit whose mutations do not fit one payload is split across several
// FrameMutations frames sharing a sequence number; the last carries
// FlagFinal.
//
// # Mutations
//
// Surface nodes are addressed by numeric IDs assigned by the server. ID 0
// is the container the root renders into.
//
//	[Op: byte][ID: uvarint][operands...]
//
//	CreateElement  id tag
//	CreateText     id text
//	SetProp        id key value
//	Listen         id event
//	Unlisten       id event
//	Insert         id parent before   (before 0 appends)
//	Remove         id parent
//	Release        id
//
// Property values carry a one-byte kind (null, string, bool, int, float)
// followed by the value.
//
// # Encoding
//
//   - Varint: unsigned integers, protobuf-style
//   - ZigZag: signed integers as unsigned varints
//   - Length-prefixed: strings prefixed with a varint length
//   - Big-endian: fixed-width integers
package protocol
