// Package spanmodel defines the pipeline's internal span representation
// and the typed attribute values the mapper classifies on. It is
// independent of any particular tracer SDK; see otel.go for the
// OpenTelemetry Go SDK adapter.
package spanmodel

import "strconv"

// Kind mirrors the OpenTelemetry span-kind enumeration.
type Kind int

const (
	KindUnspecified Kind = iota
	KindInternal
	KindServer
	KindClient
	KindProducer
	KindConsumer
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "INTERNAL"
	case KindServer:
		return "SERVER"
	case KindClient:
		return "CLIENT"
	case KindProducer:
		return "PRODUCER"
	case KindConsumer:
		return "CONSUMER"
	default:
		return "UNSPECIFIED"
	}
}

// StatusCode mirrors the OpenTelemetry span status enumeration.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// AttrType distinguishes the shapes an attribute value may carry.
type AttrType int

const (
	AttrString AttrType = iota
	AttrBool
	AttrInt
	AttrFloat
	AttrStringArray
)

// AttrValue is a typed attribute value: exactly one of the fields named
// by Type is meaningful.
type AttrValue struct {
	Type  AttrType
	Str   string
	Bool  bool
	Int   int64
	Float float64
	Array []string
}

// String constructs a string-typed attribute value.
func String(v string) AttrValue { return AttrValue{Type: AttrString, Str: v} }

// BoolValue constructs a bool-typed attribute value.
func BoolValue(v bool) AttrValue { return AttrValue{Type: AttrBool, Bool: v} }

// Int constructs an int-typed attribute value.
func Int(v int64) AttrValue { return AttrValue{Type: AttrInt, Int: v} }

// Float constructs a float-typed attribute value.
func Float(v float64) AttrValue { return AttrValue{Type: AttrFloat, Float: v} }

// StringArray constructs an array-typed attribute value.
func StringArray(v []string) AttrValue { return AttrValue{Type: AttrStringArray, Array: v} }

// AsString renders the value as it would be copied into an envelope's
// property map: string/bool/int/float render as their natural text
// form, arrays are joined with ", ".
func (v AttrValue) AsString() string {
	switch v.Type {
	case AttrString:
		return v.Str
	case AttrBool:
		return strconv.FormatBool(v.Bool)
	case AttrInt:
		return strconv.FormatInt(v.Int, 10)
	case AttrFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case AttrStringArray:
		out := ""
		for i, s := range v.Array {
			if i > 0 {
				out += ", "
			}
			out += s
		}
		return out
	default:
		return ""
	}
}

// AttrMap is a span or event's attribute set, keyed by attribute name.
type AttrMap map[string]AttrValue

// GetString returns the string form of key's value and whether it was present.
func (m AttrMap) GetString(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return v.AsString(), true
}

// GetBool returns key's boolean value, defaulting to false if absent
// or not boolean-typed.
func (m AttrMap) GetBool(key string) bool {
	v, ok := m[key]
	if !ok || v.Type != AttrBool {
		return false
	}
	return v.Bool
}

// GetInt returns key's integer value and whether it was present and
// integer-typed.
func (m AttrMap) GetInt(key string) (int64, bool) {
	v, ok := m[key]
	if !ok || v.Type != AttrInt {
		return 0, false
	}
	return v.Int, true
}

// Event is a timestamped occurrence recorded on a span.
type Event struct {
	EpochNanos int64
	Name       string
	Attributes AttrMap
}

// Link references another span, typically from a different trace.
type Link struct {
	TraceID string
	SpanID  string
}

// Span is the pipeline's immutable input record: a single finished
// unit of work from an instrumented application.
type Span struct {
	TraceID             string
	SpanID              string
	ParentSpanID        string
	ParentIsRemote      bool
	Kind                Kind
	Name                string
	StartEpochNanos     int64
	EndEpochNanos       int64
	Status              StatusCode
	InstrumentationName string
	Attributes          AttrMap
	Events              []Event
	Links               []Link
	TraceState          string
}

// DurationNanos returns the span's wall-clock duration in nanoseconds.
func (s Span) DurationNanos() int64 {
	return s.EndEpochNanos - s.StartEpochNanos
}
