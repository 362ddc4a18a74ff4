package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures an Observer.
type Config struct {
	// Namespace is the metrics namespace (default: "storekit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for patch and selector durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: a new registry owned by the Observer.
	Registry prometheus.Registerer

	// TracerName is the name of the tracer (default: "storekit").
	TracerName string
}

// Option configures an Observer.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry. If it also implements
// prometheus.Gatherer, Handler serves from it.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// WithTracerName sets the tracer name used with the global provider.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

func defaultConfig() Config {
	return Config{
		Namespace:  "storekit",
		Buckets:    prometheus.DefBuckets,
		TracerName: "storekit",
	}
}

// metrics holds the Prometheus metrics for one Observer.
type metrics struct {
	changesTotal         *prometheus.CounterVec
	rerendersTotal       prometheus.Counter
	selectorComputations *prometheus.CounterVec
	selectorDuration     *prometheus.HistogramVec
	subscriptions        prometheus.Gauge
	patchesTotal         *prometheus.CounterVec
	patchDuration        prometheus.Histogram
}

func newMetrics(config Config) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		changesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "changes_total",
			Help:        "Total number of change notifications by top-level key",
			ConstLabels: config.ConstLabels,
		}, []string{"key"}),

		rerendersTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rerenders_total",
			Help:        "Total number of view re-renders triggered by the store",
			ConstLabels: config.ConstLabels,
		}),

		selectorComputations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "selector_computations_total",
			Help:        "Total number of selector recomputations",
			ConstLabels: config.ConstLabels,
		}, []string{"selector"}),

		selectorDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "selector_duration_seconds",
			Help:        "Selector recompute duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"selector"}),

		subscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscriptions",
			Help:        "Number of live view subscriptions",
			ConstLabels: config.ConstLabels,
		}),

		patchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of state patches by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		patchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patch_duration_seconds",
			Help:        "Patch duration in seconds, including re-render delivery",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}
