package testutil

import (
	"net/http"
	"strings"
	"testing"
)

func TestMockHTTPClientQueuesResponses(t *testing.T) {
	m := NewMockHTTPClient()
	m.AddResponse(MockResponse{StatusCode: 503})
	m.AddResponse(MockResponse{StatusCode: 200})

	req, _ := http.NewRequest(http.MethodPost, "http://example.com", strings.NewReader("x"))
	resp1, err := m.Do(req)
	if err != nil || resp1.StatusCode != 503 {
		t.Fatalf("first response = %v, %v, want 503", resp1, err)
	}
	resp2, err := m.Do(req)
	if err != nil || resp2.StatusCode != 200 {
		t.Fatalf("second response = %v, %v, want 200", resp2, err)
	}
}

func TestMockHTTPClientDefaultResponse(t *testing.T) {
	m := NewMockHTTPClient()
	m.SetDefaultResponse(MockResponse{StatusCode: 200})
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	resp, err := m.Do(req)
	if err != nil || resp.StatusCode != 200 {
		t.Fatalf("got %v, %v, want 200", resp, err)
	}
}

func TestMockHTTPClientCapturesRequestBody(t *testing.T) {
	m := NewMockHTTPClient()
	m.SetDefaultResponse(MockResponse{StatusCode: 200})
	req, _ := http.NewRequest(http.MethodPost, "http://example.com", strings.NewReader("payload"))
	if _, err := m.Do(req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(m.LastRequestBody()) != "payload" {
		t.Errorf("LastRequestBody() = %q, want payload", m.LastRequestBody())
	}
}

func TestMockHTTPClientNoResponseConfigured(t *testing.T) {
	m := NewMockHTTPClient()
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if _, err := m.Do(req); err == nil {
		t.Errorf("expected error when no response is configured")
	}
}

func TestCategorizeCoversInjectionClasses(t *testing.T) {
	c := Categorize()
	if len(c.ScriptInjection) == 0 {
		t.Error("expected at least one script injection string")
	}
	if len(c.SQLInjection) == 0 {
		t.Error("expected at least one SQL injection string")
	}
	if len(c.PathTraversal) == 0 {
		t.Error("expected at least one path traversal string")
	}
	if len(c.Unicode) == 0 {
		t.Error("expected at least one unicode string")
	}
}
