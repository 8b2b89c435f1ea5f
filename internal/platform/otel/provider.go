// Package otel builds the tracing pipeline for a service process.
package otel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/zapr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// DefaultEndpoint is the OTLP/HTTP traces endpoint of a local collector.
const DefaultEndpoint = "http://localhost:4318/v1/traces"

// Config describes the tracing pipeline.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is the full OTLP/HTTP traces URL. Empty disables tracing.
	Endpoint string
	// Enabled turns tracing off when false.
	Enabled bool
	// Exporter replaces the OTLP exporter, mainly for tests.
	Exporter sdktrace.SpanExporter
	// Logger receives OTel diagnostics and export failures. Nil discards them.
	Logger *zap.Logger
}

// Telemetry owns the tracer provider for the process lifetime.
type Telemetry struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
	sdk        *sdktrace.TracerProvider
}

// Setup builds the tracer provider.
//
// When tracing is disabled or the endpoint is empty, Setup returns a no-op
// provider and leaves the OTel globals untouched. Otherwise it installs the
// provider, a W3C trace-context propagator and a logging error handler as
// OTel globals for third-party code, and returns them for explicit
// injection.
//
// Completed spans are exported in batches on a background goroutine; an
// unreachable collector only costs dropped spans and WARN lines.
func Setup(ctx context.Context, cfg Config) (*Telemetry, error) {
	propagator := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	if !cfg.Enabled || (cfg.Exporter == nil && strings.TrimSpace(cfg.Endpoint) == "") {
		return &Telemetry{provider: noop.NewTracerProvider(), propagator: propagator}, nil
	}
	if strings.TrimSpace(cfg.ServiceName) == "" {
		return nil, errors.New("service name is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	exporter := cfg.Exporter
	if exporter == nil {
		otlp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		exporter = otlp
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetLogger(zapr.NewLogger(logger.Named("otel")))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Warn("otel error", zap.Error(err))
	}))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagator)

	return &Telemetry{provider: tp, propagator: propagator, sdk: tp}, nil
}

// TracerProvider returns the provider spans are created from.
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	if t == nil || t.provider == nil {
		return noop.NewTracerProvider()
	}
	return t.provider
}

// Propagator returns the propagator used to read upstream trace context.
func (t *Telemetry) Propagator() propagation.TextMapPropagator {
	if t == nil || t.propagator == nil {
		return propagation.TraceContext{}
	}
	return t.propagator
}

// Enabled reports whether spans are recorded and exported.
func (t *Telemetry) Enabled() bool {
	return t != nil && t.sdk != nil
}

// ForceFlush exports all completed spans without stopping the pipeline.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	return t.sdk.ForceFlush(ctx)
}

// Shutdown flushes pending spans and stops the exporter.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	return t.sdk.Shutdown(ctx)
}
