package spanmodel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type captureExporter struct {
	spans []sdktrace.ReadOnlySpan
}

func (c *captureExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	c.spans = append(c.spans, spans...)
	return nil
}

func (c *captureExporter) Shutdown(_ context.Context) error { return nil }

func TestFromReadOnlySpan(t *testing.T) {
	exp := &captureExporter{}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	defer tp.Shutdown(context.Background())

	tracer := tp.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "do-work",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", "GET"),
			attribute.Int64("http.status_code", 200),
		),
	)
	span.AddEvent("something happened", trace.WithAttributes(attribute.String("k", "v")))
	span.SetStatus(codes.Ok, "")
	span.End()
	_ = ctx

	if len(exp.spans) != 1 {
		t.Fatalf("expected 1 exported span, got %d", len(exp.spans))
	}

	got := FromReadOnlySpan(exp.spans[0])

	if got.Name != "do-work" {
		t.Errorf("Name = %q, want do-work", got.Name)
	}
	if got.Kind != KindClient {
		t.Errorf("Kind = %v, want KindClient", got.Kind)
	}
	if v, ok := got.Attributes.GetString("http.method"); !ok || v != "GET" {
		t.Errorf("http.method = %q, %v", v, ok)
	}
	if len(got.Events) != 1 || got.Events[0].Name != "something happened" {
		t.Errorf("events = %+v", got.Events)
	}
	if got.Status != StatusOK {
		t.Errorf("Status = %v, want StatusOK", got.Status)
	}
	if len(got.TraceID) != 32 {
		t.Errorf("TraceID = %q, want 32 hex chars", got.TraceID)
	}
}
