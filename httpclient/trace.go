package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http/httptrace"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Error type classifications for the error.type attribute.
const (
	ErrorTypeTimeout           = "timeout"
	ErrorTypeConnectionRefused = "connection_refused"
	ErrorTypeDNSError          = "dns_error"
	ErrorTypeTLSError          = "tls_error"
	ErrorTypeCancelled         = "cancelled"
	ErrorTypeConnectionReset   = "connection_reset"
	ErrorTypeEOF               = "eof"
	ErrorTypeCircuitOpen       = "circuit_open"
	ErrorTypeRateLimited       = "rate_limited"
	ErrorTypeUnknown           = "unknown"
)

// networkTrace collects connection timings from httptrace hooks. It backs
// both the span events of the instrumented transport and Response.TraceInfo.
type networkTrace struct {
	mu sync.Mutex

	start             time.Time
	dnsStart          time.Time
	dnsDone           time.Time
	connectStart      time.Time
	connectDone       time.Time
	tlsStart          time.Time
	tlsDone           time.Time
	gotConnTime       time.Time
	wroteRequestTime  time.Time
	firstResponseTime time.Time

	connReused  bool
	connIdle    bool
	connRemote  string
	protocolVer string
	dnsAddrs    []string
}

func (nt *networkTrace) mark(at *time.Time) func() {
	return func() {
		nt.mu.Lock()
		*at = time.Now()
		nt.mu.Unlock()
	}
}

func createClientTrace(nt *networkTrace) *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			nt.mu.Lock()
			defer nt.mu.Unlock()
			nt.gotConnTime = time.Now()
			nt.connReused = info.Reused
			nt.connIdle = info.WasIdle
			if info.Conn != nil && info.Conn.RemoteAddr() != nil {
				nt.connRemote = info.Conn.RemoteAddr().String()
			}
		},
		DNSStart: func(httptrace.DNSStartInfo) { nt.mark(&nt.dnsStart)() },
		DNSDone: func(info httptrace.DNSDoneInfo) {
			nt.mu.Lock()
			defer nt.mu.Unlock()
			nt.dnsDone = time.Now()
			for _, addr := range info.Addrs {
				nt.dnsAddrs = append(nt.dnsAddrs, addr.String())
			}
		},
		ConnectStart:      func(_, _ string) { nt.mark(&nt.connectStart)() },
		ConnectDone:       func(_, _ string, _ error) { nt.mark(&nt.connectDone)() },
		TLSHandshakeStart: nt.mark(&nt.tlsStart),
		TLSHandshakeDone: func(state tls.ConnectionState, _ error) {
			nt.mu.Lock()
			defer nt.mu.Unlock()
			nt.tlsDone = time.Now()
			nt.protocolVer = state.NegotiatedProtocol
		},
		WroteRequest:         func(httptrace.WroteRequestInfo) { nt.mark(&nt.wroteRequestTime)() },
		GotFirstResponseByte: nt.mark(&nt.firstResponseTime),
	}
}

func since(from, to time.Time) (time.Duration, bool) {
	if from.IsZero() || to.IsZero() {
		return 0, false
	}
	return to.Sub(from), true
}

func durationMs(d time.Duration) float64 {
	return float64(d.Milliseconds())
}

// addTraceEvents adds span events for each observed network phase.
func (nt *networkTrace) addTraceEvents(span trace.Span) {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	if d, ok := since(nt.dnsStart, nt.dnsDone); ok {
		span.AddEvent("dns.start", trace.WithTimestamp(nt.dnsStart))
		span.AddEvent("dns.done", trace.WithTimestamp(nt.dnsDone), trace.WithAttributes(
			attribute.Float64("dns.duration_ms", durationMs(d)),
			attribute.StringSlice("dns.addresses", nt.dnsAddrs),
		))
	}
	if d, ok := since(nt.connectStart, nt.connectDone); ok {
		span.AddEvent("connect.start", trace.WithTimestamp(nt.connectStart))
		span.AddEvent("connect.done", trace.WithTimestamp(nt.connectDone), trace.WithAttributes(
			attribute.Float64("connect.duration_ms", durationMs(d)),
		))
	}
	if d, ok := since(nt.tlsStart, nt.tlsDone); ok {
		span.AddEvent("tls.start", trace.WithTimestamp(nt.tlsStart))
		span.AddEvent("tls.done", trace.WithTimestamp(nt.tlsDone), trace.WithAttributes(
			attribute.Float64("tls.duration_ms", durationMs(d)),
			attribute.String("tls.protocol", nt.protocolVer),
		))
	}
	if !nt.gotConnTime.IsZero() {
		span.AddEvent("got_conn", trace.WithTimestamp(nt.gotConnTime), trace.WithAttributes(
			attribute.Bool("connection.reused", nt.connReused),
			attribute.Bool("connection.was_idle", nt.connIdle),
			attribute.String("network.peer.address", nt.connRemote),
		))
	}
	if !nt.wroteRequestTime.IsZero() {
		span.AddEvent("wrote_request", trace.WithTimestamp(nt.wroteRequestTime))
	}
	if !nt.firstResponseTime.IsZero() {
		ttfb, _ := since(nt.wroteRequestTime, nt.firstResponseTime)
		span.AddEvent("got_first_response_byte", trace.WithTimestamp(nt.firstResponseTime),
			trace.WithAttributes(attribute.Float64("ttfb_ms", durationMs(ttfb))))
	}
}

func (nt *networkTrace) recordTimingMetrics(ctx context.Context, m *metrics, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	nt.mu.Lock()
	defer nt.mu.Unlock()

	if !nt.connReused && !nt.connectStart.IsZero() {
		m.recordConnectionOpened(ctx, attrs)
	}
	if d, ok := since(nt.dnsStart, nt.dnsDone); ok {
		m.recordDNSDuration(ctx, d, attrs)
	}
	if d, ok := since(nt.connectStart, nt.connectDone); ok {
		m.recordConnectionDuration(ctx, d, attrs)
	}
	if d, ok := since(nt.tlsStart, nt.tlsDone); ok {
		m.recordTLSDuration(ctx, d, attrs)
	}
	if d, ok := since(nt.wroteRequestTime, nt.firstResponseTime); ok {
		m.recordTTFB(ctx, d, attrs)
	}
}

// TraceInfo is the timing breakdown of one exchange, collected when the
// client is built WithTrace(true).
type TraceInfo struct {
	DNSLookup    time.Duration
	ConnTime     time.Duration
	TLSHandshake time.Duration
	// ServerTime is the time from the request being written to the first
	// response byte.
	ServerTime time.Duration
	TotalTime  time.Duration
	ConnReused bool
}

func (nt *networkTrace) traceInfo() *TraceInfo {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	info := &TraceInfo{ConnReused: nt.connReused}
	info.DNSLookup, _ = since(nt.dnsStart, nt.dnsDone)
	info.ConnTime, _ = since(nt.connectStart, nt.connectDone)
	info.TLSHandshake, _ = since(nt.tlsStart, nt.tlsDone)
	info.ServerTime, _ = since(nt.wroteRequestTime, nt.firstResponseTime)
	if !nt.start.IsZero() {
		info.TotalTime = time.Since(nt.start)
	}
	return info
}

// String renders the breakdown one phase per line.
func (t *TraceInfo) String() string {
	if t == nil {
		return "TraceInfo: nil (tracing disabled)"
	}
	return fmt.Sprintf(
		"DNS Lookup:    %s\nTCP Connect:   %s\nTLS Handshake: %s\nServer Time:   %s\nTotal Time:    %s",
		t.DNSLookup, t.ConnTime, t.TLSHandshake, t.ServerTime, t.TotalTime,
	)
}

// ClassifyError returns the error.type classification of a transport
// failure: the detail carried by transport errors surfaced to callers and
// the error.type attribute on spans and metrics.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ErrorTypeCircuitOpen
	case errors.Is(err, ErrRateLimited):
		return ErrorTypeRateLimited
	case errors.Is(err, context.Canceled):
		return ErrorTypeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}

	var (
		dnsErr    *net.DNSError
		recordErr *tls.RecordHeaderError
		certErr   *tls.CertificateVerificationError
	)
	switch {
	case errors.As(err, &dnsErr):
		return ErrorTypeDNSError
	case errors.As(err, &recordErr), errors.As(err, &certErr):
		return ErrorTypeTLSError
	case errors.Is(err, syscall.ECONNREFUSED):
		return ErrorTypeConnectionRefused
	case errors.Is(err, syscall.ECONNRESET):
		return ErrorTypeConnectionReset
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ErrorTypeEOF
	}

	// Errors that lost their type on the way up still carry a message.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return ErrorTypeTimeout
	case strings.Contains(msg, "connection refused"):
		return ErrorTypeConnectionRefused
	case strings.Contains(msg, "connection reset"):
		return ErrorTypeConnectionReset
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "dns"):
		return ErrorTypeDNSError
	case strings.Contains(msg, "tls"), strings.Contains(msg, "certificate"), strings.Contains(msg, "x509"):
		return ErrorTypeTLSError
	case strings.Contains(msg, "eof"):
		return ErrorTypeEOF
	}
	return ErrorTypeUnknown
}

// errorTypeFromStatusCode follows OTel semconv: 4xx and 5xx use the code
// itself as error.type.
func errorTypeFromStatusCode(statusCode int) string {
	if statusCode >= 400 {
		return strconv.Itoa(statusCode)
	}
	return ""
}

func setSpanError(span trace.Span, err error, errorType string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errorType != "" {
		span.SetAttributes(attribute.String("error.type", errorType))
	}
}
