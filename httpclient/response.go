package httpclient

import (
	"net/http"
)

// Response is a completed exchange whose body has been read in full and
// closed. Its accessors never fail and may be called any number of times.
type Response struct {
	StatusCode int
	Status     string
	Proto      string

	// Header keeps every value of repeated headers in arrival order.
	Header http.Header

	body        []byte
	curlCommand string
	traceInfo   *TraceInfo
}

// Bytes returns the raw body.
func (r *Response) Bytes() []byte { return r.body }

// String returns the raw body as text.
func (r *Response) String() string { return string(r.body) }

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError reports a 4xx or 5xx status.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// CurlCommand returns the equivalent cURL command when the client was
// built WithGenerateCurl(true).
func (r *Response) CurlCommand() string { return r.curlCommand }

// TraceInfo returns the timing breakdown when the client was built
// WithTrace(true).
func (r *Response) TraceInfo() *TraceInfo { return r.traceInfo }
