package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/storekit/pkg/store"
)

var _ store.Observer = (*Observer)(nil)

// Observer implements store.Observer with Prometheus metrics and
// OpenTelemetry spans.
type Observer struct {
	m        *metrics
	gatherer prometheus.Gatherer
	tracer   trace.Tracer
}

// New creates an Observer. Metrics are registered on construction, so two
// Observers must not share a registry.
func New(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	o := &Observer{}
	if config.Registry == nil {
		reg := prometheus.NewRegistry()
		config.Registry = reg
		o.gatherer = reg
	} else if g, ok := config.Registry.(prometheus.Gatherer); ok {
		o.gatherer = g
	} else {
		o.gatherer = prometheus.DefaultGatherer
	}

	o.m = newMetrics(config)
	o.tracer = otel.Tracer(config.TracerName)
	return o
}

// WithTracer returns a copy of o that starts spans from tracer instead of
// the global provider. Metrics are shared with o.
func (o *Observer) WithTracer(tracer trace.Tracer) *Observer {
	c := *o
	c.tracer = tracer
	return &c
}

// Gatherer returns the registry the Observer's metrics are served from.
func (o *Observer) Gatherer() prometheus.Gatherer {
	return o.gatherer
}

// Handler serves the Observer's metrics in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})
}

// ChangeDispatched implements store.Observer.
func (o *Observer) ChangeDispatched(key string) {
	o.m.changesTotal.WithLabelValues(key).Inc()
}

// ViewRerendered implements store.Observer.
func (o *Observer) ViewRerendered(string) {
	o.m.rerendersTotal.Inc()
}

// SelectorComputed implements store.Observer.
func (o *Observer) SelectorComputed(name string, d time.Duration) {
	o.m.selectorComputations.WithLabelValues(name).Inc()
	o.m.selectorDuration.WithLabelValues(name).Observe(d.Seconds())
}

// SubscriptionsChanged implements store.Observer.
func (o *Observer) SubscriptionsChanged(n int) {
	o.m.subscriptions.Set(float64(n))
}

// PatchStarted implements store.Observer. It opens a patch span and returns
// a function that records the outcome and ends it.
func (o *Observer) PatchStarted(ctx context.Context, keys []string) (context.Context, func(err error)) {
	start := time.Now()
	spanCtx, span := o.startSpan(ctx, keys)

	return spanCtx, func(err error) {
		status := "success"
		if err != nil {
			status = "error"
		}
		o.m.patchesTotal.WithLabelValues(status).Inc()
		o.m.patchDuration.Observe(time.Since(start).Seconds())
		endSpan(span, err)
	}
}
