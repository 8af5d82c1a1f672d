// Package tracing adapts OpenTelemetry spans to the narrow interface the
// rest of this module needs: start a span, tag it, and guarantee it is
// finished exactly once regardless of which return path a caller takes.
package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Span is the subset of span behavior callers may use directly. It is
// intentionally small: tag, log, and record-error, nothing else. Finishing a span
// is never exposed on Span itself — see WithSpan.
type Span interface {
	SetAttribute(key, value string)
	Log(message string)
	RecordError(err error)
}

type otelSpan struct {
	span oteltrace.Span
}

func (s otelSpan) SetAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// Log adds a span event carrying message, the OpenTelemetry analogue of the
// source's span.log(message) (spec §4.G).
func (s otelSpan) Log(message string) {
	s.span.AddEvent(message)
}

func (s otelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// Tracer starts spans. It wraps an oteltrace.Tracer the same way the
// teacher's pkg/tracing adapter wraps one, so the rest of the module never
// imports go.opentelemetry.io/otel directly.
type Tracer struct {
	tracer oteltrace.Tracer
}

// NewTracer builds a Tracer from an OpenTelemetry TracerProvider and an
// instrumentation name (typically the binary name, e.g. "graph-builder").
func NewTracer(provider oteltrace.TracerProvider, instrumentationName string) *Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracer{tracer: provider.Tracer(instrumentationName)}
}

// WithSpan starts a span named name, runs fn with it, and finishes the span
// exactly once when fn returns, recording fn's error on the span if any.
// This is the only way to obtain and use a Span: there is no API for
// acquiring a span and finishing it later.
func (t *Tracer) WithSpan(ctx context.Context, name string, fn func(ctx context.Context, span Span) error) error {
	ctx, span := t.tracer.Start(ctx, name)
	defer span.End()

	err := fn(ctx, otelSpan{span: span})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// jaegerPropagator implements the uber-trace-id wire format used throughout
// spec §6. It is the only propagator this module registers; it does not
// chain to W3C tracecontext or baggage, matching the original's single
// Jaeger client.
var jaegerPropagator = jaeger.Jaeger{}

// ExtractFromHeader reads the uber-trace-id header (if present) and returns
// a context carrying the remote span context it describes.
func ExtractFromHeader(ctx context.Context, header http.Header) context.Context {
	return jaegerPropagator.Extract(ctx, propagation.HeaderCarrier(header))
}

// InjectIntoHeader writes the active span context from ctx into header as
// uber-trace-id, for outbound requests that should continue the trace.
func InjectIntoHeader(ctx context.Context, header http.Header) {
	jaegerPropagator.Inject(ctx, propagation.HeaderCarrier(header))
}
