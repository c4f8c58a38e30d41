package wirehost

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/loom/pkg/protocol"
)

// Sink receives encoded frames.
type Sink interface {
	WriteFrame(f *protocol.Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f *protocol.Frame) error

// WriteFrame calls fn(f).
func (fn SinkFunc) WriteFrame(f *protocol.Frame) error { return fn(f) }

// DefaultWriteTimeout bounds a single websocket write.
const DefaultWriteTimeout = 10 * time.Second

// WebSocketSink writes frames as binary websocket messages.
type WebSocketSink struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// NewWebSocketSink creates a sink on conn. A zero writeTimeout uses
// DefaultWriteTimeout.
func NewWebSocketSink(conn *websocket.Conn, writeTimeout time.Duration) *WebSocketSink {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &WebSocketSink{conn: conn, writeTimeout: writeTimeout}
}

// WriteFrame implements Sink.
func (s *WebSocketSink) WriteFrame(f *protocol.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteMessage(websocket.BinaryMessage, f.Encode())
}

// Close sends a normal closure message and closes the connection.
func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	_ = s.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	return s.conn.Close()
}

// ReadFrames reads binary messages from conn and passes each decoded frame
// to fn until the connection closes or fn fails. A normal closure returns
// nil. A positive readTimeout bounds the wait for each message.
func ReadFrames(conn *websocket.Conn, readTimeout time.Duration, fn func(*protocol.Frame) error) error {
	for {
		if readTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(readTimeout))
		}
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		f, err := protocol.DecodeFrame(msg)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
	}
}

// ErrBufferClosed is returned by a closed BufferSink.
var ErrBufferClosed = errors.New("wirehost: buffer closed")

// BufferSink collects frames in memory.
type BufferSink struct {
	mu     sync.Mutex
	frames []*protocol.Frame
	closed bool
}

// WriteFrame implements Sink.
func (b *BufferSink) WriteFrame(f *protocol.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBufferClosed
	}
	b.frames = append(b.frames, f)
	return nil
}

// Drain returns and clears the collected frames.
func (b *BufferSink) Drain() []*protocol.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.frames
	b.frames = nil
	return out
}

// Close makes further writes fail.
func (b *BufferSink) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}
