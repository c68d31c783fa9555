// Package observe provides application-wide observability primitives for
// VoxRegister: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all VoxRegister
// metrics.
const meterName = "github.com/K-ALOHA/voxregister"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// CommandDuration tracks end-to-end command interpretation latency. Use
	// with attributes:
	//   attribute.String("kind", ...), attribute.String("status", ...)
	CommandDuration metric.Float64Histogram

	// TranscriptionDuration tracks speech-to-text latency.
	TranscriptionDuration metric.Float64Histogram

	// --- Counters ---

	// Commands counts processed commands. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("status", ...)
	Commands metric.Int64Counter

	// CommandFailures counts rejected commands by failure reason. Use with
	// attributes:
	//   attribute.String("kind", ...), attribute.String("reason", ...)
	CommandFailures metric.Int64Counter

	// RosterImports counts roster CSV imports by status.
	RosterImports metric.Int64Counter

	// Exports counts generated spreadsheet reports.
	Exports metric.Int64Counter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). The upper
// buckets accommodate whisper.cpp batch inference on long utterances.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.CommandDuration, err = m.Float64Histogram("voxregister.command.duration",
		metric.WithDescription("End-to-end command interpretation latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscriptionDuration, err = m.Float64Histogram("voxregister.transcription.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Commands, err = m.Int64Counter("voxregister.commands",
		metric.WithDescription("Total processed commands by kind and status."),
	); err != nil {
		return nil, err
	}
	if met.CommandFailures, err = m.Int64Counter("voxregister.command.failures",
		metric.WithDescription("Total rejected commands by kind and failure reason."),
	); err != nil {
		return nil, err
	}
	if met.RosterImports, err = m.Int64Counter("voxregister.roster.imports",
		metric.WithDescription("Total roster CSV imports by status."),
	); err != nil {
		return nil, err
	}
	if met.Exports, err = m.Int64Counter("voxregister.exports",
		metric.WithDescription("Total generated spreadsheet reports."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxregister.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordCommand records one processed command: the counter increment and the
// latency observation, both tagged with kind ("attendance"/"marks") and
// status ("success" or the failure kind).
func (m *Metrics) RecordCommand(ctx context.Context, kind, status string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	)
	m.Commands.Add(ctx, 1, attrs)
	m.CommandDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordCommandFailure records a rejected command with its failure reason.
func (m *Metrics) RecordCommandFailure(ctx context.Context, kind, reason string) {
	m.CommandFailures.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("reason", reason),
		),
	)
}

// RecordTranscription records one speech-to-text call with its latency,
// tagged with status ("ok", "empty", or "error").
func (m *Metrics) RecordTranscription(ctx context.Context, status string, elapsed time.Duration) {
	m.TranscriptionDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordRosterImport records one roster import attempt.
func (m *Metrics) RecordRosterImport(ctx context.Context, status string) {
	m.RosterImports.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
