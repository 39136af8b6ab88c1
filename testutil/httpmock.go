// Package testutil provides shared test doubles for the transport
// and control-protocol layers: a queueable mock HTTP client and a
// curated set of adversarial input strings for sanitizer/mapper tests.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockHTTPClient is a configurable test double satisfying the
// HTTPDoer interfaces used by transmit and livemetrics.
type MockHTTPClient struct {
	mu              sync.Mutex
	responses       []MockResponse
	requests        []*http.Request
	requestBodies   [][]byte
	defaultResponse *MockResponse
}

// MockResponse defines a mock HTTP response, optionally gated by a
// Matcher so different requests in the same test can be routed to
// different canned responses.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Error      error
	Matcher    func(*http.Request) bool
}

// NewMockHTTPClient constructs an empty mock client.
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{}
}

// AddResponse appends a response to the queue. Responses are
// consumed in order among those whose Matcher accepts the request.
func (m *MockHTTPClient) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// SetDefaultResponse sets the response returned once the queue is
// exhausted.
func (m *MockHTTPClient) SetDefaultResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResponse = &resp
}

// Do implements the HTTPDoer interfaces transmit.Transmitter and
// livemetrics.Controller depend on.
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		m.requestBodies = append(m.requestBodies, body)
		req.Body = io.NopCloser(bytes.NewReader(body))
	} else {
		m.requestBodies = append(m.requestBodies, nil)
	}

	var resp *MockResponse
	for i, r := range m.responses {
		if r.Matcher == nil || r.Matcher(req) {
			matched := r
			resp = &matched
			m.responses = append(m.responses[:i], m.responses[i+1:]...)
			break
		}
	}
	if resp == nil {
		resp = m.defaultResponse
	}
	if resp == nil {
		return nil, &MockError{Message: "no mock response configured"}
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	httpResp := &http.Response{
		StatusCode: resp.StatusCode,
		Body:       io.NopCloser(strings.NewReader(resp.Body)),
		Header:     make(http.Header),
		Request:    req,
	}
	for k, v := range resp.Headers {
		httpResp.Header.Set(k, v)
	}
	return httpResp, nil
}

// Requests returns every captured request, in call order.
func (m *MockHTTPClient) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// LastRequest returns the most recently captured request, or nil.
func (m *MockHTTPClient) LastRequest() *http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// LastRequestBody returns the most recently captured request body.
func (m *MockHTTPClient) LastRequestBody() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requestBodies) == 0 {
		return nil
	}
	return m.requestBodies[len(m.requestBodies)-1]
}

// Reset clears all captured requests, responses, and the default.
func (m *MockHTTPClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = nil
	m.requests = nil
	m.requestBodies = nil
	m.defaultResponse = nil
}

// MockError is a simple error value for MockResponse.Error.
type MockError struct {
	Message string
}

func (e *MockError) Error() string { return e.Message }
