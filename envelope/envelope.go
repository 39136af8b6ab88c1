// Package envelope defines the vendor wire schema's tagged-variant
// telemetry unit: a common envelope wrapping one of five concrete data
// shapes. The mapper constructs envelopes; it does not serialize them
// — wire encoding (newline-delimited JSON) happens in the transmitter.
package envelope

import "github.com/monitoragent/telemetry-pipeline/correlation"

// Kind names which variant Data holds.
type Kind int

const (
	KindRequest Kind = iota
	KindRemoteDependency
	KindMessage
	KindException
	KindEvent
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "Request"
	case KindRemoteDependency:
		return "RemoteDependency"
	case KindMessage:
		return "Message"
	case KindException:
		return "Exception"
	case KindEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// SeverityLevel mirrors the wire schema's log-severity enumeration.
type SeverityLevel int

const (
	SeverityVerbose SeverityLevel = iota
	SeverityInformation
	SeverityWarning
	SeverityError
	SeverityCritical
)

// Data is implemented by each of the five concrete envelope bodies.
type Data interface {
	Kind() Kind
}

// Envelope is one unit of telemetry: common tags plus one variant body.
type Envelope struct {
	IKey       string
	Time       string
	SampleRate float64
	Tags       map[string]string
	Data       Data
}

// NewEnvelope constructs an envelope with an initialized tag map.
func NewEnvelope(ikey string, data Data) *Envelope {
	return &Envelope{
		IKey:       ikey,
		SampleRate: 100.0,
		Tags:       map[string]string{},
		Data:       data,
	}
}

// SetOperationID sets the ai.operation.id tag from a trace id.
func (e *Envelope) SetOperationID(traceID string) {
	e.Tags[correlation.TagOperationID] = traceID
}

// SetOperationParentID sets the ai.operation.parentId tag.
func (e *Envelope) SetOperationParentID(parentSpanID string) {
	if parentSpanID == "" {
		return
	}
	e.Tags[correlation.TagOperationParentID] = parentSpanID
}

// RequestData is emitted for spans on the request path: SERVER spans,
// remote-parented CONSUMER spans, and scheduled-job-shaped INTERNAL spans.
type RequestData struct {
	ID           string
	Name         string
	Duration     string
	ResponseCode string
	Success      bool
	Source       string
	URL          string
	Properties   map[string]string
	Measurements map[string]float64
}

func (RequestData) Kind() Kind { return KindRequest }

// RemoteDependencyData is emitted for spans on the dependency path:
// CLIENT/PRODUCER spans and unparented CONSUMER spans.
type RemoteDependencyData struct {
	ID           string
	Name         string
	ResultCode   string
	Duration     string
	Success      bool
	Data         string
	Target       string
	Type         string
	Properties   map[string]string
	Measurements map[string]float64
}

func (RemoteDependencyData) Kind() Kind { return KindRemoteDependency }

// MessageData carries a single log line.
type MessageData struct {
	Message       string
	SeverityLevel SeverityLevel
	Properties    map[string]string
}

func (MessageData) Kind() Kind { return KindMessage }

// ExceptionDetail is one parsed stack frame group within ExceptionData.
type ExceptionDetail struct {
	TypeName     string
	Message      string
	HasFullStack bool
	Stack        string
}

// ExceptionData carries one or more exception records.
type ExceptionData struct {
	Exceptions    []ExceptionDetail
	SeverityLevel SeverityLevel
	Properties    map[string]string
}

func (ExceptionData) Kind() Kind { return KindException }

// EventData carries a custom event, most commonly derived from a span
// event that was not exception-shaped.
type EventData struct {
	Name         string
	Properties   map[string]string
	Measurements map[string]float64
}

func (EventData) Kind() Kind { return KindEvent }
