package internallog

import "testing"

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", "warn": "WARN", "error": "ERROR", "info": "INFO", "": "INFO", "bogus": "INFO"}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewReturnsNonNilLogger(t *testing.T) {
	logger := New(Config{Level: "info", Format: "json", Component: "agentctl", Version: "test"})
	if logger == nil {
		t.Fatal("New returned nil logger")
	}
}
