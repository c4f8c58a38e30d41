package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
	}{
		{"empty", Frame{Type: FrameEvent, Payload: []byte{}}},
		{"final mutations", Frame{Type: FrameMutations, Flags: FlagFinal, Payload: []byte{1, 2, 3}}},
		{"error", Frame{Type: FrameError, Payload: []byte("oops")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.frame.Encode()
			if len(data) != FrameHeaderSize+len(tt.frame.Payload) {
				t.Errorf("Encode() length = %d", len(data))
			}

			got, err := DecodeFrame(data)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if got.Type != tt.frame.Type || got.Flags != tt.frame.Flags || !bytes.Equal(got.Payload, tt.frame.Payload) {
				t.Errorf("DecodeFrame() = %+v, want %+v", got, tt.frame)
			}
		})
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	if _, err := DecodeFrame([]byte{0x01, 0x00}); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("short header error = %v", err)
	}
	if _, err := DecodeFrame([]byte{0x01, 0x00, 0x00, 0x05, 0x01}); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("short payload error = %v", err)
	}
	if _, err := DecodeFrame([]byte{0x7F, 0x00, 0x00, 0x00}); !errors.Is(err, ErrInvalidFrameType) {
		t.Errorf("bad type error = %v", err)
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	frames := []*Frame{
		NewFrame(FrameEvent, []byte("a")),
		{Type: FrameMutations, Flags: FlagFinal, Payload: []byte("bc")},
	}
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
	}

	for i, want := range frames {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame(%d) error = %v", i, err)
		}
		if got.Type != want.Type || got.Flags != want.Flags || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("ReadFrame(%d) = %+v, want %+v", i, got, want)
		}
	}
	if _, err := ReadFrame(&buf); !errors.Is(err, io.EOF) {
		t.Errorf("ReadFrame() at end error = %v, want io.EOF", err)
	}

	big := NewFrame(FrameMutations, make([]byte, MaxPayloadSize+1))
	if err := WriteFrame(&buf, big); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("WriteFrame(oversized) error = %v, want ErrFrameTooLarge", err)
	}
}

func TestFrameTypeString(t *testing.T) {
	tests := map[FrameType]string{
		FrameMutations: "Mutations",
		FrameEvent:     "Event",
		FrameError:     "Error",
		FrameType(99):  "Unknown",
	}
	for ft, want := range tests {
		if got := ft.String(); got != want {
			t.Errorf("FrameType(%d).String() = %q, want %q", ft, got, want)
		}
	}
}
