package live

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/loom/pkg/fiber"
	"github.com/vango-dev/loom/pkg/host"
	"github.com/vango-dev/loom/pkg/host/memhost"
	"github.com/vango-dev/loom/pkg/scheduler"
	"github.com/vango-dev/loom/pkg/telemetry"
)

// Routes served by the live server.
const (
	PathShell   = "/"
	PathSocket  = "/ws"
	PathMetrics = "/metrics"
	PathHealth  = "/healthz"
)

// ErrNoDocument is returned by NewServer without a document.
var ErrNoDocument = errors.New("live: no document")

// Config configures a Server.
type Config struct {
	// Addr is the listen address for Start.
	Addr string

	// Document is rendered for every client. Required.
	Document *Document

	// Title is the shell page title (default: the document file name).
	Title string

	// Scheduling of each session's runtime.
	FrameInterval  time.Duration
	SliceBudget    time.Duration
	YieldThreshold time.Duration

	// NewSource creates the slice source of each session (default: a
	// FrameSource using FrameInterval and SliceBudget). Sources with a
	// Stop or Close method are stopped when the session ends.
	NewSource func() scheduler.IdleSource

	// ReadTimeout bounds the wait for a client frame; zero waits forever.
	ReadTimeout time.Duration

	// WriteTimeout bounds each frame write (default: 10s).
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration

	// Registry receives render and session metrics and is served on
	// /metrics. Nil disables metrics.
	Registry *prometheus.Registry

	// Namespace prefixes metric names (default: "loom").
	Namespace string

	// TracerProvider supplies session tracers (default: the global
	// provider).
	TracerProvider trace.TracerProvider

	// CheckOrigin validates websocket upgrade requests (default: allow
	// all).
	CheckOrigin func(r *http.Request) bool

	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Title == "" && c.Document != nil {
		c.Title = filepath.Base(c.Document.Path())
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = 16 * time.Millisecond
	}
	if c.SliceBudget <= 0 {
		c.SliceBudget = 5 * time.Millisecond
	}
	if c.NewSource == nil {
		interval, budget := c.FrameInterval, c.SliceBudget
		c.NewSource = func() scheduler.IdleSource {
			return scheduler.NewFrameSource(interval, budget)
		}
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.Namespace == "" {
		c.Namespace = "loom"
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = func(*http.Request) bool { return true }
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Server serves a Document: a static shell rendered per request and a
// live surface per websocket connection.
type Server struct {
	config   Config
	router   chi.Router
	upgrader websocket.Upgrader
	metrics  *telemetry.Metrics
	http     *httpMetrics
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	sessions   map[string]*Session
	httpServer *http.Server
}

// NewServer creates a Server. Metrics are registered on config.Registry,
// so one registry serves one Server.
func NewServer(config Config) (*Server, error) {
	if config.Document == nil {
		return nil, ErrNoDocument
	}
	config.applyDefaults()

	s := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:   config.Logger.With("component", "live"),
		sessions: make(map[string]*Session),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if config.Registry != nil {
		s.metrics = telemetry.NewMetrics(
			telemetry.WithRegistry(config.Registry),
			telemetry.WithNamespace(config.Namespace),
		)
		promauto.With(config.Registry).NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: "live",
			Name:      "sessions",
			Help:      "Connected live sessions",
		}, func() float64 { return float64(s.SessionCount()) })
		s.http = newHTTPMetrics(config.Registry, config.Namespace)
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Tracing(s.config.TracerProvider))
	if s.http != nil {
		r.Use(s.http.middleware)
	}
	r.Use(s.logRequests)

	r.Get(PathShell, s.handleShell)
	r.Get(PathSocket, s.handleSocket)
	r.Get(PathHealth, s.handleHealth)
	if s.config.Registry != nil {
		r.Method(http.MethodGet, PathMetrics, promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Start listens on config.Addr until ctx is done, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	// Sessions register under mu, so none starts after this.
	s.mu.Lock()
	s.cancel()
	srv := s.httpServer
	s.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Error("sessions did not stop", "remaining", s.SessionCount())
		return ctx.Err()
	}

	s.logger.Info("server shutdown complete")
	return nil
}

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="loom-root" data-socket="{{.Socket}}">{{.Body}}</div>
</body>
</html>
`))

func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	el, version := s.config.Document.Current()

	doc := memhost.New()
	root := fiber.NewRoot(host.NewAdapter(doc), doc.Root(),
		fiber.WithName("shell"),
		fiber.WithLogger(s.logger),
	)
	if err := root.RenderSync(el); err != nil {
		s.logger.Error("shell render failed", "version", version, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := shellTemplate.Execute(w, struct {
		Title  string
		Socket string
		Body   template.HTML
	}{
		Title:  s.config.Title,
		Socket: PathSocket,
		Body:   template.HTML(doc.Root().InnerHTML()),
	})
	if err != nil {
		s.logger.Debug("shell write failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.config.Document.Err(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("document: " + err.Error() + "\n"))
		return
	}
	w.Write([]byte("ok\n"))
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	if s.ctx.Err() != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", "error", err)
		return
	}

	sess, err := newSession(s, conn)
	if err != nil {
		s.logger.Error("session setup failed", "error", err)
		conn.Close()
		return
	}

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		sess.sink.Close()
		return
	}
	s.sessions[sess.ID] = sess
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
		s.wg.Done()
	}()

	sess.Run(s.ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
