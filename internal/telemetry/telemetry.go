// Package telemetry installs the process-wide OpenTelemetry tracer provider
// and propagator. The API client's otelhttp transport and the fake backend's
// otelhttp handler both pick them up through the otel globals.
package telemetry

import (
	"context"
	"io"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Propagator carries W3C trace context and baggage.
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}

// NewProvider builds a tracer provider tagged with service. Extra options,
// such as a span processor, are appended.
func NewProvider(service string, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	base := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
	}
	return sdktrace.NewTracerProvider(append(base, opts...)...)
}

// Setup registers a provider and Propagator globally and returns the
// provider's shutdown.
func Setup(service string, logger *log.Logger) func(context.Context) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	tp := NewProvider(service)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(Propagator())
	logger.Printf("telemetry: tracing enabled service=%s", service)
	return tp.Shutdown
}
