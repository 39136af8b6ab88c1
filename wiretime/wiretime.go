// Package wiretime renders epoch timestamps and durations into the wire
// formats the envelope schema requires: ISO-8601 instants with
// microsecond precision, and "D.HH:MM:SS.mmmmmm" durations.
package wiretime

import (
	"fmt"
	"time"

	"github.com/monitoragent/telemetry-pipeline/errs"
)

// FormatInstant renders epochNanos as an ISO-8601 UTC timestamp with
// microsecond precision and an explicit "+00:00" offset.
func FormatInstant(epochNanos int64) string {
	t := time.Unix(0, epochNanos).UTC()
	micros := t.Nanosecond() / 1000
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%06d+00:00",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), micros)
}

// FormatDuration renders nanos as "D.HH:MM:SS.mmmmmm" with a
// zero-padded two-digit-minimum day count and six-digit microseconds.
// Negative durations are rejected with errs.InvalidInput.
func FormatDuration(nanos int64) (string, error) {
	if nanos < 0 {
		return "", errs.InvalidInputError("duration", "negative duration")
	}

	micros := nanos / 1000
	totalSeconds := micros / 1_000_000
	microRemainder := micros % 1_000_000

	days := totalSeconds / 86400
	rem := totalSeconds % 86400
	hours := rem / 3600
	rem %= 3600
	minutes := rem / 60
	seconds := rem % 60

	return fmt.Sprintf("%02d.%02d:%02d:%02d.%06d", days, hours, minutes, seconds, microRemainder), nil
}

// ParseDuration is the inverse of FormatDuration, used by tests to
// round-trip durations to microsecond precision and by live-metrics
// aggregation to read envelope durations.
func ParseDuration(s string) (int64, error) {
	var days, hours, minutes, seconds, micros int64
	n, err := fmt.Sscanf(s, "%d.%d:%d:%d.%d", &days, &hours, &minutes, &seconds, &micros)
	if err != nil || n != 5 {
		return 0, errs.InvalidInputError("duration", "malformed duration string: "+s)
	}
	total := days*86400 + hours*3600 + minutes*60 + seconds
	return total*1_000_000_000 + micros*1000, nil
}
