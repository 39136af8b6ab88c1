package mapper

import (
	"github.com/monitoragent/telemetry-pipeline/envelope"
	"github.com/monitoragent/telemetry-pipeline/sanitize"
	"github.com/monitoragent/telemetry-pipeline/spanmodel"
	"github.com/monitoragent/telemetry-pipeline/wiretime"
)

const skippedLettuceInstrumentation = "io.opentelemetry.javaagent.lettuce-5.1"

// mapEvents converts a span's recorded events into additional
// envelopes: exception-shaped events become ExceptionData, everything
// else becomes EventData, in the order they were recorded.
func (m *Mapper) mapEvents(span spanmodel.Span) []*envelope.Envelope {
	var out []*envelope.Envelope
	for _, ev := range span.Events {
		if isSkippedLettuceEvent(span.InstrumentationName, ev.Name) {
			continue
		}
		out = append(out, m.mapEvent(span, ev))
	}
	return out
}

func isSkippedLettuceEvent(instrumentation, name string) bool {
	return instrumentation == skippedLettuceInstrumentation && hasPrefix(name, "redis.encode.")
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func (m *Mapper) mapEvent(span spanmodel.Span, ev spanmodel.Event) *envelope.Envelope {
	excType, hasType := ev.Attributes.GetString("exception.type")
	excMessage, hasMessage := ev.Attributes.GetString("exception.message")

	e := envelope.NewEnvelope(m.ikey, envelope.EventData{})
	e.SetOperationID(span.TraceID)
	// The synthetic event/exception envelope is a child of the span
	// that recorded it, so its parent id is the span's own id, not the
	// span's own parent.
	e.SetOperationParentID(span.SpanID)
	e.Time = wiretime.FormatInstant(ev.EpochNanos)

	if hasType || hasMessage {
		stack, _ := ev.Attributes.GetString("exception.stacktrace")
		e.Data = envelope.ExceptionData{
			Exceptions: []envelope.ExceptionDetail{{
				TypeName:     excType,
				Message:      excMessage,
				HasFullStack: stack != "",
				Stack:        stack,
			}},
			SeverityLevel: envelope.SeverityError,
			Properties:    sanitize.Properties(attrsToRaw(ev.Attributes, "exception.type", "exception.message", "exception.stacktrace")),
		}
		return e
	}

	e.Data = envelope.EventData{
		Name:       ev.Name,
		Properties: sanitize.Properties(attrsToRaw(ev.Attributes)),
	}
	return e
}

func attrsToRaw(attrs spanmodel.AttrMap, exclude ...string) map[string]string {
	excluded := map[string]bool{}
	for _, k := range exclude {
		excluded[k] = true
	}
	raw := map[string]string{}
	for k, v := range attrs {
		if excluded[k] {
			continue
		}
		raw[k] = v.AsString()
	}
	return raw
}
