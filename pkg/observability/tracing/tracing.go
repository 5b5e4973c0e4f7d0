// Package tracing configures OpenTelemetry tracing and the per-request span middleware.
package tracing

import (
	"context"
	"io"
	"os"

	"github.com/fluxorio/todo-service/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Supported exporters
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterZipkin = "zipkin"
)

// Config configures the tracer provider
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Exporter is one of "none", "stdout" or "zipkin"
	Exporter string

	// Endpoint is the zipkin collector URL, e.g. http://localhost:9411/api/v2/spans
	Endpoint string

	// SampleRate is the fraction of root traces sampled, 0 < rate <= 1
	SampleRate float64

	// Output receives stdout exporter spans; defaults to os.Stdout
	Output io.Writer
}

// Provider owns the tracer provider and its exporter
type Provider struct {
	tp       trace.TracerProvider
	shutdown func(context.Context) error
}

// NewProvider builds a tracer provider from config and installs it, together with
// the W3C trace context propagator, as the otel globals.
func NewProvider(config Config) (*Provider, error) {
	var exporter sdktrace.SpanExporter
	switch config.Exporter {
	case "", ExporterNone:
		p := &Provider{
			tp:       noop.NewTracerProvider(),
			shutdown: func(context.Context) error { return nil },
		}
		return p, nil
	case ExporterStdout:
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, err
		}
		exporter = exp
	case ExporterZipkin:
		if config.Endpoint == "" {
			return nil, &core.Error{Code: "INVALID_CONFIG", Message: "zipkin exporter requires an endpoint"}
		}
		exp, err := zipkin.New(config.Endpoint)
		if err != nil {
			return nil, err
		}
		exporter = exp
	default:
		return nil, &core.Error{Code: "INVALID_CONFIG", Message: "unsupported trace exporter: " + config.Exporter}
	}

	rate := config.SampleRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(config)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{tp: tp, shutdown: tp.Shutdown}, nil
}

func newResource(config Config) *resource.Resource {
	attrs := []attribute.KeyValue{attribute.String("service.name", config.ServiceName)}
	if config.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", config.ServiceVersion))
	}
	if config.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", config.Environment))
	}
	return resource.NewSchemaless(attrs...)
}

// TracerProvider returns the configured provider
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tp
}

// Shutdown flushes pending spans and stops the exporter
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}
