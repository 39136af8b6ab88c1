package wiretime

import "testing"

func TestFormatDuration(t *testing.T) {
	got, err := FormatDuration(150 * 1_000_000) // 150ms
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "00.00:00:00.150000"
	if got != want {
		t.Errorf("FormatDuration(150ms) = %q, want %q", got, want)
	}
}

func TestFormatDurationDays(t *testing.T) {
	nanos := int64(36*3600+5*60+1) * 1_000_000_000
	got, err := FormatDuration(nanos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "01.12:05:01.000000"
	if got != want {
		t.Errorf("FormatDuration = %q, want %q", got, want)
	}
}

func TestFormatDurationNegative(t *testing.T) {
	if _, err := FormatDuration(-1); err == nil {
		t.Errorf("expected error for negative duration")
	}
}

func TestFormatDurationRoundTrip(t *testing.T) {
	cases := []int64{0, 1000, 999_999_000, 86400 * 1_000_000_000, 150 * 1_000_000}
	for _, nanos := range cases {
		s, err := FormatDuration(nanos)
		if err != nil {
			t.Fatalf("FormatDuration(%d) error: %v", nanos, err)
		}
		back, err := ParseDuration(s)
		if err != nil {
			t.Fatalf("ParseDuration(%q) error: %v", s, err)
		}
		if back != nanos {
			t.Errorf("round trip mismatch: %d -> %q -> %d", nanos, s, back)
		}
	}
}

func TestFormatInstant(t *testing.T) {
	// 2024-01-02T03:04:05.123456Z in epoch nanos.
	const epochNanos = 1704164645123456000
	got := FormatInstant(epochNanos)
	want := "2024-01-02T03:04:05.123456+00:00"
	if got != want {
		t.Errorf("FormatInstant = %q, want %q", got, want)
	}
}
