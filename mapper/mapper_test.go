package mapper

import (
	"testing"

	"github.com/monitoragent/telemetry-pipeline/envelope"
	"github.com/monitoragent/telemetry-pipeline/spanmodel"
)

func newSpan(kind spanmodel.Kind, name string, attrs spanmodel.AttrMap) spanmodel.Span {
	return spanmodel.Span{
		TraceID:         "4bf92f3577b34da6a3ce929d0e0e4736",
		SpanID:          "00f067aa0ba902b7",
		Kind:            kind,
		Name:            name,
		StartEpochNanos: 0,
		EndEpochNanos:   150 * 1_000_000,
		Attributes:      attrs,
	}
}

func TestHTTPClientSpan(t *testing.T) {
	m := New("ikey", "self", nil)
	span := newSpan(spanmodel.KindClient, "GET", spanmodel.AttrMap{
		"http.method":      spanmodel.String("GET"),
		"http.url":         spanmodel.String("http://example.com:80/x"),
		"http.status_code": spanmodel.Int(200),
	})

	envs, err := m.Map(span)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(envs) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(envs))
	}

	dep, ok := envs[0].Data.(envelope.RemoteDependencyData)
	if !ok {
		t.Fatalf("expected RemoteDependencyData, got %T", envs[0].Data)
	}
	if dep.Type != "Http" {
		t.Errorf("Type = %q, want Http", dep.Type)
	}
	if dep.Target != "example.com" {
		t.Errorf("Target = %q, want example.com (port 80 omitted)", dep.Target)
	}
	if dep.ResultCode != "200" {
		t.Errorf("ResultCode = %q, want 200", dep.ResultCode)
	}
	if !dep.Success {
		t.Errorf("Success = false, want true")
	}
}

func TestSQLClientSpan(t *testing.T) {
	m := New("ikey", "self", nil)
	span := newSpan(spanmodel.KindClient, "select", spanmodel.AttrMap{
		"db.system":      spanmodel.String("mysql"),
		"db.statement":   spanmodel.String("select * from t"),
		"db.name":        spanmodel.String("shop"),
		"net.peer.name":  spanmodel.String("db1"),
		"net.peer.port":  spanmodel.Int(3306),
	})

	envs, err := m.Map(span)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dep := envs[0].Data.(envelope.RemoteDependencyData)
	if dep.Type != "SQL" {
		t.Errorf("Type = %q, want SQL", dep.Type)
	}
	if dep.Name != "select * from t" {
		t.Errorf("Name = %q, want select * from t", dep.Name)
	}
	if dep.Target != "db1/shop" {
		t.Errorf("Target = %q, want db1/shop (default port omitted)", dep.Target)
	}
}

func TestServerSpanWithSampling(t *testing.T) {
	m := New("ikey", "self", nil)
	span := newSpan(spanmodel.KindServer, "/api/x", spanmodel.AttrMap{
		"http.method": spanmodel.String("POST"),
	})
	span.TraceState = "ai_sampling=25"

	envs, err := m.Map(span)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := envs[0].Data.(envelope.RequestData)
	if req.Name != "POST /api/x" {
		t.Errorf("Name = %q, want POST /api/x", req.Name)
	}
	if req.ResponseCode != "200" {
		t.Errorf("ResponseCode = %q, want 200", req.ResponseCode)
	}
	if !req.Success {
		t.Errorf("Success = false, want true")
	}
	if got := spanmodel.ParseSampleRate(span.TraceState); got != 25.0 {
		t.Errorf("ParseSampleRate = %v, want 25.0", got)
	}
}

func TestInternalLogSpanMessage(t *testing.T) {
	m := New("ikey", "self", nil)
	span := newSpan(spanmodel.KindInternal, "boom", spanmodel.AttrMap{
		"applicationinsights.internal.log": spanmodel.BoolValue(true),
		"log_level":                        spanmodel.String("WARN"),
	})

	envs, err := m.Map(span)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, ok := envs[0].Data.(envelope.MessageData)
	if !ok {
		t.Fatalf("expected MessageData, got %T", envs[0].Data)
	}
	if msg.Message != "boom" {
		t.Errorf("Message = %q, want boom", msg.Message)
	}
	if msg.SeverityLevel != envelope.SeverityWarning {
		t.Errorf("SeverityLevel = %v, want SeverityWarning", msg.SeverityLevel)
	}
	if msg.Properties["SourceType"] != "Logger" || msg.Properties["LoggingLevel"] != "WARN" {
		t.Errorf("properties missing SourceType/LoggingLevel: %v", msg.Properties)
	}
}

func TestSpanWithExceptionEvent(t *testing.T) {
	m := New("ikey", "self", nil)
	span := newSpan(spanmodel.KindClient, "call", spanmodel.AttrMap{
		"http.method": spanmodel.String("GET"),
	})
	span.Events = []spanmodel.Event{
		{
			EpochNanos: 100,
			Name:       "exception",
			Attributes: spanmodel.AttrMap{
				"exception.type":       spanmodel.String("E"),
				"exception.message":    spanmodel.String("m"),
				"exception.stacktrace": spanmodel.String("E: m\n  at ..."),
			},
		},
	}

	envs, err := m.Map(span)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(envs) != 2 {
		t.Fatalf("expected 2 envelopes (dependency + exception), got %d", len(envs))
	}

	dep, ok := envs[0].Data.(envelope.RemoteDependencyData)
	if !ok {
		t.Fatalf("envs[0] should be RemoteDependencyData, got %T", envs[0].Data)
	}
	_ = dep

	exc, ok := envs[1].Data.(envelope.ExceptionData)
	if !ok {
		t.Fatalf("envs[1] should be ExceptionData, got %T", envs[1].Data)
	}
	if exc.Exceptions[0].TypeName != "E" || exc.Exceptions[0].Message != "m" {
		t.Errorf("exception details = %+v", exc.Exceptions[0])
	}

	if envs[0].Tags["ai.operation.id"] != envs[1].Tags["ai.operation.id"] {
		t.Errorf("dependency and exception envelopes should share operation.id")
	}
	if envs[1].Tags["ai.operation.parentId"] != span.SpanID {
		t.Errorf("exception operation.parentId = %q, want span id %q", envs[1].Tags["ai.operation.parentId"], span.SpanID)
	}
}

func TestUnsupportedKind(t *testing.T) {
	m := New("ikey", "self", nil)
	span := newSpan(spanmodel.KindUnspecified, "mystery", nil)
	if _, err := m.Map(span); err == nil {
		t.Errorf("expected UnsupportedKind error")
	}
}

func TestInstrumentationsSeen(t *testing.T) {
	m := New("ikey", "self", nil)
	span := newSpan(spanmodel.KindClient, "call", spanmodel.AttrMap{"http.method": spanmodel.String("GET")})
	span.InstrumentationName = "io.opentelemetry.javaagent.okhttp-3.0"
	if _, err := m.Map(span); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := m.InstrumentationsSeen()
	if len(seen) != 1 || seen[0] != "io.opentelemetry.javaagent.okhttp-3.0" {
		t.Errorf("InstrumentationsSeen() = %v", seen)
	}
}
