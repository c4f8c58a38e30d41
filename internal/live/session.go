package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/loom"
	"github.com/vango-dev/loom/pkg/fiber"
	"github.com/vango-dev/loom/pkg/host"
	"github.com/vango-dev/loom/pkg/host/wirehost"
	"github.com/vango-dev/loom/pkg/protocol"
	"github.com/vango-dev/loom/pkg/scheduler"
	"github.com/vango-dev/loom/pkg/telemetry"
)

// RootName names the root of every live session in logs and metrics.
const RootName = "live"

// Session renders a Document onto one websocket client.
type Session struct {
	ID string

	conn    *websocket.Conn
	sink    *wirehost.WebSocketSink
	surface *wirehost.Surface
	runtime *loom.Runtime
	source  scheduler.IdleSource
	doc     *Document
	metrics *httpMetrics
	logger  *slog.Logger

	readTimeout time.Duration
	created     time.Time
}

func newSession(s *Server, conn *websocket.Conn) (*Session, error) {
	id := uuid.NewString()
	logger := s.logger.With("session", id)

	sink := wirehost.NewWebSocketSink(conn, s.config.WriteTimeout)
	surface := wirehost.New(sink, logger)
	source := s.config.NewSource()

	tracer := telemetry.NewTracer(
		telemetry.WithTracerProvider(s.config.TracerProvider),
		telemetry.WithAttributes(func(fiber.Generation) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("loom.session", id)}
		}),
	)
	observers := fiber.Observers{tracer}
	if s.metrics != nil {
		observers = append(observers, s.metrics)
	}

	rt, err := loom.New(loom.Config{
		Adapter:        host.NewAdapter(surface),
		Source:         source,
		YieldThreshold: s.config.YieldThreshold,
		Observer:       observers,
		Name:           func(host.Node, int) string { return RootName },
		Logger:         logger,
	})
	if err != nil {
		stopSource(source)
		return nil, err
	}

	return &Session{
		ID:          id,
		conn:        conn,
		sink:        sink,
		surface:     surface,
		runtime:     rt,
		source:      source,
		doc:         s.config.Document,
		metrics:     s.http,
		logger:      logger,
		readTimeout: s.config.ReadTimeout,
		created:     time.Now(),
	}, nil
}

// Run renders the current document, re-renders after every reload and
// dispatches client events until the client disconnects or ctx is done.
func (sess *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess.logger.Info("session started", "remote", sess.conn.RemoteAddr().String())

	// A runtime that stops on its own ends the session.
	var runErr error
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := sess.runtime.Run(ctx); err != nil && ctx.Err() == nil {
			sess.logger.Error("runtime stopped", "error", err)
			runErr = err
			cancel()
		}
	}()

	// Closing the connection unblocks the read loop on shutdown.
	go func() {
		<-ctx.Done()
		sess.sink.Close()
	}()

	updates, unsubscribe := sess.doc.Subscribe()
	defer unsubscribe()

	sess.render(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-updates:
				sess.render(ctx)
			}
		}
	}()

	err := wirehost.ReadFrames(sess.conn, sess.readTimeout, sess.handleFrame)
	if ctx.Err() != nil {
		err = nil
	}
	cancel()
	<-stopped
	stopSource(sess.source)
	if runErr != nil {
		err = runErr
	}

	if err != nil {
		sess.logger.Warn("session ended", "duration", time.Since(sess.created), "error", err)
	} else {
		sess.logger.Info("session ended", "duration", time.Since(sess.created))
	}
	return err
}

func stopSource(src scheduler.IdleSource) {
	switch s := src.(type) {
	case interface{ Stop() }:
		s.Stop()
	case interface{ Close() }:
		s.Close()
	}
}

func (sess *Session) render(ctx context.Context) {
	el, version := sess.doc.Current()
	p := sess.runtime.Render(el, sess.surface.Root())
	go func() {
		err := p.Wait(ctx)
		switch {
		case err == nil:
			sess.logger.Debug("document rendered", "version", version, "seq", sess.surface.Seq())
		case errors.Is(err, loom.ErrSuperseded), errors.Is(err, loom.ErrStopped), ctx.Err() != nil:
		default:
			sess.logger.Error("render failed", "version", version, "error", err)
			sess.sendError(protocol.ErrRenderFailed, err)
		}
	}()
}

func (sess *Session) handleFrame(f *protocol.Frame) error {
	switch f.Type {
	case protocol.FrameEvent:
		ev, err := protocol.DecodeEvent(f)
		if err != nil {
			sess.metrics.event(protocol.ErrInvalidEvent.String())
			sess.sendError(protocol.ErrInvalidEvent, err)
			return nil
		}
		// Handlers run on the loop goroutine, between units of work.
		p := sess.runtime.Do(func() {
			if err := sess.surface.Dispatch(ev); err != nil {
				code := wirehost.ErrorCode(err)
				sess.logger.Debug("dispatch failed", "node", ev.ID, "event", ev.Type, "error", err)
				sess.metrics.event(code.String())
				sess.sendError(code, err)
				return
			}
			sess.metrics.event("dispatched")
		})
		go func() {
			<-p.Done()
			if err := p.Err(); errors.Is(err, loom.ErrDoPanicked) {
				sess.metrics.event(protocol.ErrHandlerFailed.String())
				sess.sendError(protocol.ErrHandlerFailed, err)
			}
		}()
	case protocol.FrameError:
		em, err := protocol.DecodeError(f)
		if err != nil {
			return err
		}
		sess.logger.Warn("client error", "code", em.Code.String(), "message", em.Message)
		if em.Fatal {
			return em
		}
	default:
		sess.sendError(protocol.ErrInvalidFrame, fmt.Errorf("unexpected %s frame", f.Type))
	}
	return nil
}

func (sess *Session) sendError(code protocol.ErrorCode, err error) {
	if werr := sess.sink.WriteFrame(protocol.EncodeError(protocol.NewError(code, err.Error()))); werr != nil {
		sess.logger.Debug("error frame not sent", "error", werr)
	}
}
