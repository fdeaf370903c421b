package o11y

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on spans emitted around resource operations.
const (
	AttrStack    = "stack"
	AttrRunID    = "run_id"
	AttrResource = "resource"
	AttrVerb     = "verb"
)

const tracerName = "github.com/cloudmelt/webstack"

// SetupTracing configures the global otel TracerProvider. When
// OTEL_EXPORTER_OTLP_TRACES_ENDPOINT is set, spans are exported via
// OTLP/HTTP; otherwise tracing stays a no-op and the returned shutdown does
// nothing.
func SetupTracing(ctx context.Context) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT") == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithFromEnv())
	if err != nil {
		return noop, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

// Tracer returns the package tracer for span creation around CLI verbs and
// individual resource operations.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
