package spanmodel

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// FromReadOnlySpan adapts a span produced by the OpenTelemetry Go SDK's
// batch span processor into this package's Span, the shape the mapper
// classifies on. This is the only point in the pipeline that imports
// the OTel SDK's span types directly.
func FromReadOnlySpan(sp sdktrace.ReadOnlySpan) Span {
	sc := sp.SpanContext()
	parent := sp.Parent()

	s := Span{
		TraceID:             sc.TraceID().String(),
		SpanID:              sc.SpanID().String(),
		Kind:                fromSDKKind(sp.SpanKind()),
		Name:                sp.Name(),
		StartEpochNanos:     sp.StartTime().UnixNano(),
		EndEpochNanos:       sp.EndTime().UnixNano(),
		Status:              fromSDKStatus(sp.Status().Code),
		InstrumentationName: sp.InstrumentationScope().Name,
		TraceState:          sc.TraceState().String(),
	}

	if parent.IsValid() {
		s.ParentSpanID = parent.SpanID().String()
		s.ParentIsRemote = parent.IsRemote()
	}

	s.Attributes = fromKeyValues(sp.Attributes())

	for _, e := range sp.Events() {
		s.Events = append(s.Events, Event{
			EpochNanos: e.Time.UnixNano(),
			Name:       e.Name,
			Attributes: fromKeyValues(e.Attributes),
		})
	}

	for _, l := range sp.Links() {
		s.Links = append(s.Links, Link{
			TraceID: l.SpanContext.TraceID().String(),
			SpanID:  l.SpanContext.SpanID().String(),
		})
	}

	return s
}

func fromSDKKind(k trace.SpanKind) Kind {
	switch k {
	case trace.SpanKindServer:
		return KindServer
	case trace.SpanKindClient:
		return KindClient
	case trace.SpanKindProducer:
		return KindProducer
	case trace.SpanKindConsumer:
		return KindConsumer
	case trace.SpanKindInternal:
		return KindInternal
	default:
		return KindUnspecified
	}
}

func fromSDKStatus(c codes.Code) StatusCode {
	switch c {
	case codes.Ok:
		return StatusOK
	case codes.Error:
		return StatusError
	default:
		return StatusUnset
	}
}

func fromKeyValues(kvs []attribute.KeyValue) AttrMap {
	if len(kvs) == 0 {
		return AttrMap{}
	}
	m := make(AttrMap, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = fromValue(kv.Value)
	}
	return m
}

func fromValue(v attribute.Value) AttrValue {
	switch v.Type() {
	case attribute.BOOL:
		return BoolValue(v.AsBool())
	case attribute.INT64:
		return Int(v.AsInt64())
	case attribute.FLOAT64:
		return Float(v.AsFloat64())
	case attribute.STRING:
		return String(v.AsString())
	case attribute.BOOLSLICE:
		return StringArray(boolsToStrings(v.AsBoolSlice()))
	case attribute.INT64SLICE:
		return StringArray(int64sToStrings(v.AsInt64Slice()))
	case attribute.FLOAT64SLICE:
		return StringArray(float64sToStrings(v.AsFloat64Slice()))
	case attribute.STRINGSLICE:
		return StringArray(v.AsStringSlice())
	default:
		return String(v.Emit())
	}
}

func boolsToStrings(bs []bool) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = BoolValue(b).AsString()
	}
	return out
}

func int64sToStrings(is []int64) []string {
	out := make([]string, len(is))
	for i, v := range is {
		out[i] = Int(v).AsString()
	}
	return out
}

func float64sToStrings(fs []float64) []string {
	out := make([]string, len(fs))
	for i, v := range fs {
		out[i] = Float(v).AsString()
	}
	return out
}
