package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer resolves against the global provider, which is a no-op unless
// obs.InitTracer installed an exporter.
var tracer = otel.Tracer("github.com/iliyamo/summer-camp-booking/internal/repository")

// startSpan opens a client span named "<collection>.<op>".
func startSpan(ctx context.Context, collection, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, collection+"."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("db.collection.name", collection),
			attribute.String("db.operation.name", op),
		),
	)
}

// endSpan records err (if any) and closes the span.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
