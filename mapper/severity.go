package mapper

import "github.com/monitoragent/telemetry-pipeline/envelope"

// severityFromLogLevel maps a log_level attribute value onto the wire
// schema's severity enumeration. Unknown levels map to Verbose rather
// than failing the whole envelope.
func severityFromLogLevel(level string) envelope.SeverityLevel {
	switch level {
	case "FATAL":
		return envelope.SeverityCritical
	case "ERROR", "SEVERE":
		return envelope.SeverityError
	case "WARN", "WARNING":
		return envelope.SeverityWarning
	case "INFO":
		return envelope.SeverityInformation
	case "DEBUG", "TRACE", "CONFIG", "FINE", "FINER", "FINEST", "ALL":
		return envelope.SeverityVerbose
	default:
		return envelope.SeverityVerbose
	}
}
