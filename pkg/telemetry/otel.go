package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const patchSpanName = "storekit.patch"

func (o *Observer) startSpan(ctx context.Context, keys []string) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return o.tracer.Start(ctx, patchSpanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.StringSlice("storekit.keys", keys),
			attribute.Int("storekit.key_count", len(keys)),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
