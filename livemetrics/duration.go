package livemetrics

import "github.com/monitoragent/telemetry-pipeline/wiretime"

// parseDurationMs converts a wire-format "D.HH:MM:SS.mmmmmm" duration
// string into whole milliseconds for live-metrics aggregation. This
// mirrors the original aggregator's toMilliseconds helper, minus the
// debug print statement the original source left in (see the spec's
// open question on that point) and minus string parsing errors: a
// malformed duration simply contributes zero to the running total
// rather than aborting the envelope observation.
func parseDurationMs(duration string) int64 {
	nanos, err := wiretime.ParseDuration(duration)
	if err != nil {
		return 0
	}
	return nanos / 1_000_000
}
