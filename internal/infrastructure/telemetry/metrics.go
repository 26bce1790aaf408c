package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Instruments creates instruments on one meter. The first creation error is
// kept and reported by Err; the failed instrument is replaced by a no-op so
// callers never hold a nil.
type Instruments struct {
	meter metric.Meter
	err   error
}

// NewInstruments wraps meter.
func NewInstruments(meter metric.Meter) *Instruments {
	return &Instruments{meter: meter}
}

// Err returns the first instrument creation error.
func (in *Instruments) Err() error {
	return in.err
}

func (in *Instruments) fail(kind, name string, err error) {
	if in.err == nil {
		in.err = fmt.Errorf("create %s %s: %w", kind, name, err)
	}
}

// Counter is a monotonically increasing Int64 sum.
type Counter struct {
	counter metric.Int64Counter
}

// Counter creates an Int64 counter.
func (in *Instruments) Counter(name, description, unit string) *Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		in.fail("counter", name, err)
		c, _ = noop.Meter{}.Int64Counter(name)
	}
	return &Counter{counter: c}
}

// Add increments the counter by value.
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by one.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// Histogram is a Float64 distribution.
type Histogram struct {
	histogram metric.Float64Histogram
}

// Histogram creates a Float64 histogram. Without bounds the SDK defaults apply.
func (in *Instruments) Histogram(name, description, unit string, bounds ...float64) *Histogram {
	opts := []metric.Float64HistogramOption{metric.WithDescription(description), metric.WithUnit(unit)}
	if len(bounds) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(bounds...))
	}
	h, err := in.meter.Float64Histogram(name, opts...)
	if err != nil {
		in.fail("histogram", name, err)
		h, _ = noop.Meter{}.Float64Histogram(name)
	}
	return &Histogram{histogram: h}
}

// Record records one observation.
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// RecordDuration records d in seconds.
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.Record(ctx, d.Seconds(), attrs...)
}

// Gauge holds the last recorded Int64 value per attribute set.
type Gauge struct {
	gauge metric.Int64Gauge
}

// Gauge creates an Int64 gauge.
func (in *Instruments) Gauge(name, description, unit string) *Gauge {
	g, err := in.meter.Int64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		in.fail("gauge", name, err)
		g, _ = noop.Meter{}.Int64Gauge(name)
	}
	return &Gauge{gauge: g}
}

// Record sets the current value.
func (g *Gauge) Record(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	g.gauge.Record(ctx, value, metric.WithAttributes(attrs...))
}

// Metric attribute keys.
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")

	AttrDBState = attribute.Key("db.pool.state")

	AttrReconcilePath  = attribute.Key("reconcile.path")
	AttrReconcileState = attribute.Key("reconcile.state")
	AttrErrorKind      = attribute.Key("error.kind")
	AttrPaymentMethod  = attribute.Key("payment_method")
	AttrRemoteOp       = attribute.Key("remote.operation")
	AttrRemoteOutcome  = attribute.Key("remote.outcome")
)

// Bucket boundaries in seconds, except BatchSizeBuckets which counts orders.
var (
	HTTPDurationBuckets      = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	RemoteCallBuckets        = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	ReconcileDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	BatchSizeBuckets         = []float64{1, 5, 10, 25, 50, 100, 250, 500}
)
