package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrMethod    = "medgas.api.method"
	AttrPath      = "medgas.api.path"
	AttrStatus    = "medgas.api.status"
	AttrRequestID = "medgas.api.request_id"
	AttrErrorKind = "medgas.api.error_kind"
)

const instrumentation = "github.com/getkayan/medgas/client"

// StartCall starts a client span for one API call.
func StartCall(ctx context.Context, method, path string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(instrumentation).Start(ctx, "medgas.api "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrMethod, method),
			attribute.String(AttrPath, path),
		),
	)
	return ctx, span
}

// Inject writes the trace context of ctx into header.
func Inject(ctx context.Context, header http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
}

// SetSpanError marks a span as failed.
func SetSpanError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// EndSpan records the outcome and ends the span.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		SetSpanError(span, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
