package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/loom/pkg/fiber"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "loom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for phase durations.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "loom",
		// Renders run in microseconds to tens of milliseconds.
		Buckets:  []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		Registry: prometheus.DefaultRegisterer,
	}
}

// Generation outcomes.
const (
	OutcomeCommitted  = "committed"
	OutcomeAborted    = "aborted"
	OutcomeSuperseded = "superseded"
)

// Metrics is a fiber.Observer exporting Prometheus metrics.
type Metrics struct {
	generations    *prometheus.CounterVec
	units          *prometheus.CounterVec
	slices         *prometheus.CounterVec
	effects        *prometheus.CounterVec
	buildDuration  *prometheus.HistogramVec
	commitDuration *prometheus.HistogramVec
	inFlight       *prometheus.GaugeVec
}

var _ fiber.Observer = (*Metrics)(nil)

// NewMetrics registers the render metrics and returns the observer.
// Registering twice on the same registry panics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "generations_total",
			Help:        "Finished render generations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"root", "outcome"}),

		units: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "units_total",
			Help:        "Units of work performed",
			ConstLabels: config.ConstLabels,
		}, []string{"root"}),

		slices: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "slices_total",
			Help:        "Work loop slices that performed work",
			ConstLabels: config.ConstLabels,
		}, []string{"root"}),

		effects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_total",
			Help:        "Committed effects by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"root", "effect"}),

		buildDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "build_duration_seconds",
			Help:        "Time from render request to commit start",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"root"}),

		commitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Commit phase duration",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"root"}),

		inFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "generations_in_flight",
			Help:        "Generations currently being built",
			ConstLabels: config.ConstLabels,
		}, []string{"root"}),
	}
}

// GenerationStarted implements fiber.Observer.
func (m *Metrics) GenerationStarted(g fiber.Generation) {
	m.inFlight.WithLabelValues(g.Root).Inc()
}

// SliceYielded implements fiber.Observer.
func (m *Metrics) SliceYielded(fiber.Generation) {}

// GenerationCommitted implements fiber.Observer.
func (m *Metrics) GenerationCommitted(r fiber.CommitReport) {
	m.finish(r.Generation, OutcomeCommitted)
	m.effects.WithLabelValues(r.Root, "placement").Add(float64(r.Placements))
	m.effects.WithLabelValues(r.Root, "update").Add(float64(r.Updates))
	m.effects.WithLabelValues(r.Root, "deletion").Add(float64(r.Deletions))
	m.buildDuration.WithLabelValues(r.Root).Observe(r.BuildDuration.Seconds())
	m.commitDuration.WithLabelValues(r.Root).Observe(r.CommitDuration.Seconds())
}

// GenerationAborted implements fiber.Observer.
func (m *Metrics) GenerationAborted(g fiber.Generation, err error) {
	outcome := OutcomeAborted
	if errors.Is(err, fiber.ErrSuperseded) {
		outcome = OutcomeSuperseded
	}
	m.finish(g, outcome)
}

func (m *Metrics) finish(g fiber.Generation, outcome string) {
	m.inFlight.WithLabelValues(g.Root).Dec()
	m.generations.WithLabelValues(g.Root, outcome).Inc()
	m.units.WithLabelValues(g.Root).Add(float64(g.Units))
	m.slices.WithLabelValues(g.Root).Add(float64(g.Slices))
}
