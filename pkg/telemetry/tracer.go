package telemetry

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/loom/pkg/fiber"
)

// Default tracer name for loom.
const defaultTracerName = "loom"

// SpanName is the name of the per-generation span.
const SpanName = "loom.render"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "loom").
	TracerName string

	// Provider supplies the tracer (default: the global provider).
	Provider trace.TracerProvider

	// Attributes adds custom attributes to each generation span.
	Attributes func(g fiber.Generation) []attribute.KeyValue
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = tp
	}
}

// WithAttributes sets a custom attribute extractor.
func WithAttributes(fn func(g fiber.Generation) []attribute.KeyValue) TracerOption {
	return func(c *TracerConfig) {
		c.Attributes = fn
	}
}

type spanKey struct {
	root string
	id   uint64
}

// Tracer is a fiber.Observer recording a span per generation.
type Tracer struct {
	config TracerConfig
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[spanKey]trace.Span
}

var _ fiber.Observer = (*Tracer)(nil)

// NewTracer creates the tracing observer.
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	return &Tracer{
		config: config,
		tracer: config.Provider.Tracer(config.TracerName),
		spans:  make(map[spanKey]trace.Span),
	}
}

// GenerationStarted implements fiber.Observer.
func (t *Tracer) GenerationStarted(g fiber.Generation) {
	attrs := []attribute.KeyValue{
		attribute.String("loom.root", g.Root),
		attribute.Int64("loom.generation", int64(g.ID)),
	}
	if t.config.Attributes != nil {
		attrs = append(attrs, t.config.Attributes(g)...)
	}

	_, span := t.tracer.Start(context.Background(), SpanName,
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(g.Started),
	)

	t.mu.Lock()
	t.spans[spanKey{g.Root, g.ID}] = span
	t.mu.Unlock()
}

// SliceYielded implements fiber.Observer.
func (t *Tracer) SliceYielded(g fiber.Generation) {
	if span := t.span(g, false); span != nil {
		span.AddEvent("yield", trace.WithAttributes(
			attribute.Int("loom.units", g.Units),
			attribute.Int("loom.slices", g.Slices),
		))
	}
}

// GenerationCommitted implements fiber.Observer.
func (t *Tracer) GenerationCommitted(r fiber.CommitReport) {
	span := t.span(r.Generation, true)
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("loom.units", r.Units),
		attribute.Int("loom.slices", r.Slices),
		attribute.Int("loom.placements", r.Placements),
		attribute.Int("loom.updates", r.Updates),
		attribute.Int("loom.deletions", r.Deletions),
	)
	span.SetStatus(codes.Ok, "")
	span.End()
}

// GenerationAborted implements fiber.Observer. A superseded generation is
// not an error.
func (t *Tracer) GenerationAborted(g fiber.Generation, err error) {
	span := t.span(g, true)
	if span == nil {
		return
	}
	span.SetAttributes(attribute.Int("loom.units", g.Units))
	if errors.Is(err, fiber.ErrSuperseded) {
		span.SetAttributes(attribute.Bool("loom.superseded", true))
		span.SetStatus(codes.Unset, "")
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// InFlight returns the number of open generation spans.
func (t *Tracer) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

func (t *Tracer) span(g fiber.Generation, remove bool) trace.Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := spanKey{g.Root, g.ID}
	span := t.spans[key]
	if remove {
		delete(t.spans, key)
	}
	return span
}
