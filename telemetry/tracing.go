package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const otlpSetupTimeout = 5 * time.Second

// InitTracing wires an OTLP/gRPC span exporter when OTEL_EXPORTER_OTLP_ENDPOINT
// is set; otherwise spans stay no-ops. The returned func flushes and shuts the
// provider down and is safe to call either way.
func InitTracing(serviceName, serviceVersion string) (func(), error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		slog.Info("tracing disabled: OTEL_EXPORTER_OTLP_ENDPOINT not set")
		return func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), otlpSetupTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	slog.Info("tracing initialized",
		slog.String("service", serviceName),
		slog.String("endpoint", endpoint))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), otlpSetupTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			slog.Error("tracer provider shutdown", slog.Any("err", err))
		}
	}, nil
}

// StartSpan opens a span on the named tracer, tagging it with the broadcast
// correlation id when the context carries one.
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if corr := GetCorrelation(ctx); corr != "" {
		attrs = append(attrs, attribute.String("correlation_id", corr))
	}
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError marks the span failed with err.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks the span OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// VideoIDAttr tags a span with the broadcast id it concerns.
func VideoIDAttr(id string) attribute.KeyValue {
	return attribute.String("video_id", id)
}
