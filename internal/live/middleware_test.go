package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordedSpan struct {
	noop.Span
	name   string
	parent trace.SpanContext
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	ended  bool
}

func (s *recordedSpan) SetName(name string) { s.name = name }
func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}
func (s *recordedSpan) SetStatus(c codes.Code, _ string) { s.status = c }
func (s *recordedSpan) End(...trace.SpanEndOption)       { s.ended = true }

type recordingTracer struct {
	noop.Tracer
	spans []*recordedSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{
		name:   name,
		parent: trace.SpanContextFromContext(ctx),
		attrs:  map[attribute.Key]attribute.Value{},
	}
	s.SetAttributes(cfg.Attributes()...)
	t.spans = append(t.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

type recordingProvider struct {
	noop.TracerProvider
	tracer *recordingTracer
}

func (p recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer { return p.tracer }

func testRouter(mw func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	return r
}

func serve(h http.Handler, path string, header http.Header) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestTracing(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	rt := &recordingTracer{}
	h := testRouter(Tracing(recordingProvider{tracer: rt}))

	header := http.Header{}
	header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	serve(h, "/items/42", header)
	serve(h, "/boom", nil)

	if len(rt.spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(rt.spans))
	}

	ok := rt.spans[0]
	if ok.name != "HTTP GET /items/{id}" {
		t.Errorf("span name = %q", ok.name)
	}
	if got := ok.attrs["http.route"].AsString(); got != "/items/{id}" {
		t.Errorf("http.route = %q", got)
	}
	if got := ok.attrs["http.status_code"].AsInt64(); got != 200 {
		t.Errorf("http.status_code = %d", got)
	}
	if got := ok.parent.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("parent trace = %s, want the propagated one", got)
	}
	if ok.status != codes.Unset || !ok.ended {
		t.Errorf("status = %v, ended = %v", ok.status, ok.ended)
	}

	if boom := rt.spans[1]; boom.status != codes.Error {
		t.Errorf("5xx span status = %v, want Error", boom.status)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestHTTPMetrics(t *testing.T) {
	m := newHTTPMetrics(prometheus.NewRegistry(), "loom")
	h := testRouter(m.middleware)

	serve(h, "/items/1", nil)
	serve(h, "/items/2", nil)
	serve(h, "/boom", nil)
	serve(h, "/nowhere", nil)

	tests := []struct {
		route, status string
		want          float64
	}{
		{"/items/{id}", "200", 2},
		{"/boom", "500", 1},
		{"unmatched", "404", 1},
	}
	for _, tt := range tests {
		if got := counterValue(t, m.requests.WithLabelValues(tt.route, tt.status)); got != tt.want {
			t.Errorf("requests{%s,%s} = %v, want %v", tt.route, tt.status, got, tt.want)
		}
	}

	var nilMetrics *httpMetrics
	nilMetrics.event("dispatched")
	m.event("dispatched")
	if got := counterValue(t, m.events.WithLabelValues("dispatched")); got != 1 {
		t.Errorf("events = %v, want 1", got)
	}
}
