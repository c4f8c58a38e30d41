package protocol

import "fmt"

// ErrorCode identifies the type of error.
type ErrorCode uint16

const (
	ErrUnknown       ErrorCode = 0x0000 // Unknown error
	ErrInvalidFrame  ErrorCode = 0x0001 // Malformed frame
	ErrInvalidEvent  ErrorCode = 0x0002 // Malformed event
	ErrUnknownNode   ErrorCode = 0x0003 // Event target has no node
	ErrNoListener    ErrorCode = 0x0004 // Node has no listener for the event
	ErrRenderFailed  ErrorCode = 0x0100 // Render generation failed
	ErrSurfaceFailed ErrorCode = 0x0101 // Client could not apply mutations
	ErrHandlerFailed ErrorCode = 0x0102 // Event handler panicked
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrInvalidFrame:
		return "InvalidFrame"
	case ErrInvalidEvent:
		return "InvalidEvent"
	case ErrUnknownNode:
		return "UnknownNode"
	case ErrNoListener:
		return "NoListener"
	case ErrRenderFailed:
		return "RenderFailed"
	case ErrSurfaceFailed:
		return "SurfaceFailed"
	case ErrHandlerFailed:
		return "HandlerFailed"
	default:
		return "Unknown"
	}
}

// ErrorMessage is the payload of a FrameError frame.
type ErrorMessage struct {
	Code    ErrorCode
	Message string
	Fatal   bool // The connection should be closed
}

// NewError creates a non-fatal ErrorMessage.
func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code.String() + ": " + em.Message
	}
	return em.Code.String() + ": " + em.Message
}

// EncodeError encodes em as a FrameError frame.
func EncodeError(em *ErrorMessage) *Frame {
	e := NewEncoder()
	e.WriteUint16(uint16(em.Code))
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return NewFrame(FrameError, e.Bytes())
}

// DecodeError decodes a FrameError frame.
func DecodeError(f *Frame) (*ErrorMessage, error) {
	if f.Type != FrameError {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFrameType, f.Type)
	}
	d := NewDecoder(f.Payload)
	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}
	msg, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	fatal, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	return &ErrorMessage{Code: ErrorCode(code), Message: msg, Fatal: fatal}, nil
}
