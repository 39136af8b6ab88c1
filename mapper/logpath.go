package mapper

import (
	"strings"

	"github.com/monitoragent/telemetry-pipeline/envelope"
	"github.com/monitoragent/telemetry-pipeline/spanmodel"
)

func (m *Mapper) mapLogPath(span spanmodel.Span) ([]*envelope.Envelope, error) {
	if stack, ok := span.Attributes.GetString("log_error_stack"); ok && stack != "" {
		typeName, message := minimalParse(stack)

		e := m.newEnvelope(envelope.ExceptionData{}, span)
		props := m.copyAttributes(e, span)
		e.Data = envelope.ExceptionData{
			Exceptions: []envelope.ExceptionDetail{{
				TypeName:     typeName,
				Message:      message,
				HasFullStack: true,
				Stack:        stack,
			}},
			SeverityLevel: severityLevelFor(span),
			Properties:    props,
		}
		return []*envelope.Envelope{e}, nil
	}

	level, _ := span.Attributes.GetString("log_level")

	e := m.newEnvelope(envelope.MessageData{}, span)
	props := m.copyAttributes(e, span)
	props["SourceType"] = "Logger"
	props["LoggingLevel"] = level

	e.Data = envelope.MessageData{
		Message:       span.Name,
		SeverityLevel: severityFromLogLevel(level),
		Properties:    props,
	}
	return []*envelope.Envelope{e}, nil
}

func severityLevelFor(span spanmodel.Span) envelope.SeverityLevel {
	level, _ := span.Attributes.GetString("log_level")
	return severityFromLogLevel(level)
}

// minimalParse splits the first line of a stack trace on the first
// ": " into a type name and message, exactly as the original agent's
// minimal stack-trace parser does for log-path exceptions.
func minimalParse(stack string) (typeName, message string) {
	firstLine := stack
	if idx := strings.IndexByte(stack, '\n'); idx >= 0 {
		firstLine = stack[:idx]
	}
	firstLine = strings.TrimRight(firstLine, "\r")

	if idx := strings.Index(firstLine, ": "); idx >= 0 {
		return firstLine[:idx], firstLine[idx+2:]
	}
	return firstLine, ""
}
