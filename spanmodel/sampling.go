package spanmodel

import (
	"strconv"
	"strings"
)

const sampleRateTraceStateKey = "ai_sampling"

// DefaultSampleRate is used when a span's trace-state carries no
// sampling entry at all.
const DefaultSampleRate = 100.0

// ParseSampleRate extracts the sampling percentage carried in a
// W3C-shaped trace-state string ("key=value,key=value,..."). It
// returns DefaultSampleRate if no ai_sampling entry is present or the
// value does not parse as a float.
func ParseSampleRate(traceState string) float64 {
	for _, entry := range strings.Split(traceState, ",") {
		entry = strings.TrimSpace(entry)
		k, v, ok := strings.Cut(entry, "=")
		if !ok || k != sampleRateTraceStateKey {
			continue
		}
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		return rate
	}
	return DefaultSampleRate
}
