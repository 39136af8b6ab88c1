package envelope

import (
	"github.com/monitoragent/telemetry-pipeline/errs"
	"github.com/monitoragent/telemetry-pipeline/sanitize"
)

// Validate checks e against the wire schema's required-field and
// length invariants. It repairs what it safely can in place (defaulting
// a missing responseCode, truncating overlong strings) and returns an
// error only when a required field is missing outright, in which case
// the whole envelope must be dropped rather than partially transmitted.
func Validate(e *Envelope) error {
	if e.IKey == "" {
		return errs.InvalidInputError("iKey", "missing required tenant key")
	}
	if e.SampleRate <= 0 || e.SampleRate > 100 {
		e.SampleRate = 100.0
	}

	switch d := e.Data.(type) {
	case RequestData:
		d.Name = sanitize.Truncate(d.Name, sanitize.MaxNameLength)
		d.ID = sanitize.Truncate(d.ID, sanitize.MaxIDLength)
		d.URL = sanitize.Truncate(d.URL, sanitize.MaxURLLength)
		if d.ResponseCode == "" {
			d.ResponseCode = "200"
		}
		e.Data = d
	case RemoteDependencyData:
		d.Name = sanitize.Truncate(d.Name, sanitize.MaxNameLength)
		d.ID = sanitize.Truncate(d.ID, sanitize.MaxIDLength)
		d.Data = sanitize.Truncate(d.Data, sanitize.MaxURLLength)
		e.Data = d
	case MessageData:
		d.Message = sanitize.Truncate(d.Message, sanitize.MaxMessageLength)
		if d.Message == "" {
			return errs.InvalidInputError("message", "missing required message text")
		}
		e.Data = d
	case ExceptionData:
		if len(d.Exceptions) == 0 {
			return errs.InvalidInputError("exceptions", "at least one exception detail is required")
		}
		for i := range d.Exceptions {
			d.Exceptions[i].Message = sanitize.Truncate(d.Exceptions[i].Message, sanitize.MaxMessageLength)
		}
		e.Data = d
	case EventData:
		if d.Name == "" {
			return errs.InvalidInputError("name", "missing required event name")
		}
		d.Name = sanitize.Truncate(d.Name, sanitize.MaxNameLength)
		e.Data = d
	}

	return nil
}
