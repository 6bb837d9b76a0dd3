package httpclient

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"regexp"
	"sync"
)

// MockTransport is an http.RoundTripper with stubbed responses for tests.
// It reads and closes every request body, records what was sent, and fails
// requests whose context is done.
//
//	mock := httpclient.NewMockTransport().
//	    StubPath("/users/1", http.StatusOK, `{"firstName":"John"}`)
//	client := httpclient.New(httpclient.WithMockTransport(mock))
type MockTransport struct {
	mu          sync.RWMutex
	stubs       []stub
	fallback    *stub
	requests    []RecordedRequest
	requestHook func(*http.Request)
}

// RecordedRequest is a request as the mock received it.
type RecordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

type stub struct {
	matcher func(*http.Request) bool
	status  int
	header  http.Header
	body    []byte
	err     error
}

// NewMockTransport creates a MockTransport with no stubs.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) add(s stub) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.matcher == nil {
		m.fallback = &s
		return m
	}
	m.stubs = append(m.stubs, s)
	return m
}

// StubResponse answers every unmatched request with status and body.
func (m *MockTransport) StubResponse(statusCode int, body string) *MockTransport {
	return m.add(stub{status: statusCode, body: []byte(body)})
}

// StubError fails every unmatched request with err.
func (m *MockTransport) StubError(err error) *MockTransport {
	return m.add(stub{err: err})
}

// StubPath answers requests for path.
func (m *MockTransport) StubPath(path string, statusCode int, body string) *MockTransport {
	return m.StubFunc(func(req *http.Request) bool {
		return req.URL.Path == path
	}, statusCode, body)
}

// StubPathRegex answers requests whose path matches pattern.
func (m *MockTransport) StubPathRegex(pattern string, statusCode int, body string) *MockTransport {
	re := regexp.MustCompile(pattern)
	return m.StubFunc(func(req *http.Request) bool {
		return re.MatchString(req.URL.Path)
	}, statusCode, body)
}

// StubMethod answers requests with method.
func (m *MockTransport) StubMethod(method string, statusCode int, body string) *MockTransport {
	return m.StubFunc(func(req *http.Request) bool {
		return req.Method == method
	}, statusCode, body)
}

// StubFunc answers requests accepted by matcher. Stubs are tried in the
// order they were added.
func (m *MockTransport) StubFunc(
	matcher func(*http.Request) bool,
	statusCode int,
	body string,
) *MockTransport {
	return m.add(stub{matcher: matcher, status: statusCode, body: []byte(body)})
}

// StubFuncResponse is StubFunc with response headers and a binary body.
func (m *MockTransport) StubFuncResponse(
	matcher func(*http.Request) bool,
	statusCode int,
	header http.Header,
	body []byte,
) *MockTransport {
	return m.add(stub{matcher: matcher, status: statusCode, header: header, body: body})
}

// StubFuncError fails requests accepted by matcher with err.
func (m *MockTransport) StubFuncError(matcher func(*http.Request) bool, err error) *MockTransport {
	return m.add(stub{matcher: matcher, err: err})
}

// OnRequest sets a hook called with each request before it is answered.
// The hook may block, for example to hold a request in flight.
func (m *MockTransport) OnRequest(fn func(*http.Request)) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestHook = fn
	return m
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})
	hook := m.requestHook
	m.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.stubs {
		if s.matcher(req) {
			return s.respond(req)
		}
	}
	if m.fallback != nil {
		return m.fallback.respond(req)
	}
	return nil, errors.New("httpclient: no stub for " + req.Method + " " + req.URL.String())
}

func (s stub) respond(req *http.Request) (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	header := s.header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		StatusCode:    s.status,
		Status:        http.StatusText(s.status),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(s.body)),
		ContentLength: int64(len(s.body)),
		Request:       req,
	}, nil
}

// Requests returns every recorded request.
func (m *MockTransport) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestCount returns the number of requests received.
func (m *MockTransport) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil.
func (m *MockTransport) LastRequest() *RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return nil
	}
	r := m.requests[len(m.requests)-1]
	return &r
}

// Reset clears stubs, recorded requests and the hook.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.stubs = nil
	m.fallback = nil
	m.requestHook = nil
}
