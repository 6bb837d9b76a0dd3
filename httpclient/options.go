package httpclient

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// scope is the instrumentation scope name for OpenTelemetry.
const scope = "github.com/kroma-labs/restgen/httpclient"

// =============================================================================
// Config - HTTP Transport Configuration
// =============================================================================

// Config holds the connection pool and timeout settings of the underlying
// http.Transport. Start from one of the presets and adjust fields:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.Timeout = 5 * time.Second
//	client := httpclient.New(httpclient.WithConfig(cfg))
type Config struct {
	// Timeout bounds the whole exchange: connect, write, and reading the
	// buffered response body. Zero means no limit.
	//
	// Default: 15s
	Timeout time.Duration

	// MaxIdleConns caps idle keep-alive connections across all hosts.
	//
	// Default: 100
	MaxIdleConns int

	// MaxIdleConnsPerHost caps idle connections per host. A generated client
	// usually talks to one API host, so this is the setting that matters.
	//
	// Default: 20
	MaxIdleConnsPerHost int

	// MaxConnsPerHost caps idle plus active connections per host.
	// Zero means unlimited.
	//
	// Default: 100
	MaxConnsPerHost int

	// IdleConnTimeout is how long an idle connection stays pooled.
	//
	// Default: 90s
	IdleConnTimeout time.Duration

	// TLSHandshakeTimeout bounds the TLS handshake.
	//
	// Default: 10s
	TLSHandshakeTimeout time.Duration

	// ExpectContinueTimeout is the wait for "100 Continue" when the request
	// carries "Expect: 100-continue".
	//
	// Default: 1s
	ExpectContinueTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers after the
	// request is written. Zero falls back to Timeout.
	ResponseHeaderTimeout time.Duration

	// DialTimeout bounds TCP connection establishment.
	//
	// Default: 5s
	DialTimeout time.Duration

	// KeepAlive is the TCP keep-alive probe interval.
	//
	// Default: 30s
	KeepAlive time.Duration

	// FallbackDelay is the RFC 6555 dual-stack delay. Negative disables it.
	//
	// Default: 300ms
	FallbackDelay time.Duration

	// WriteBufferSize and ReadBufferSize size the per-connection buffers.
	//
	// Default: 64KB
	WriteBufferSize int
	ReadBufferSize  int

	// MaxResponseHeaderBytes limits response header size. Zero uses
	// http.DefaultMaxHeaderBytes.
	MaxResponseHeaderBytes int64

	// DisableKeepAlives forces a new connection per request.
	DisableKeepAlives bool

	// DisableCompression stops the transport from asking for gzip.
	// Binary endpoints must receive bytes exactly as sent, so this defaults
	// to true.
	//
	// Default: true
	DisableCompression bool

	// ForceHTTP2 attempts HTTP/2 even with a custom dialer or TLS config.
	ForceHTTP2 bool
}

// DefaultConfig returns balanced settings for a client that talks to a
// single REST API.
func DefaultConfig() Config {
	return Config{
		Timeout: 15 * time.Second,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DialTimeout:   5 * time.Second,
		KeepAlive:     30 * time.Second,
		FallbackDelay: 300 * time.Millisecond,

		WriteBufferSize: 64 * 1024,
		ReadBufferSize:  64 * 1024,

		DisableCompression: true,
	}
}

// HighThroughputConfig raises pool limits and buffer sizes for clients that
// keep many requests in flight against the same API.
func HighThroughputConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 30 * time.Second
	cfg.MaxIdleConns = 500
	cfg.MaxIdleConnsPerHost = 100
	cfg.MaxConnsPerHost = 0
	cfg.IdleConnTimeout = 120 * time.Second
	cfg.WriteBufferSize = 128 * 1024
	cfg.ReadBufferSize = 128 * 1024
	return cfg
}

// LowLatencyConfig shortens every timeout so slow calls fail fast.
func LowLatencyConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 5 * time.Second
	cfg.MaxIdleConns = 50
	cfg.MaxIdleConnsPerHost = 25
	cfg.MaxConnsPerHost = 50
	cfg.IdleConnTimeout = 60 * time.Second
	cfg.TLSHandshakeTimeout = 5 * time.Second
	cfg.ExpectContinueTimeout = 500 * time.Millisecond
	cfg.ResponseHeaderTimeout = 3 * time.Second
	cfg.DialTimeout = 2 * time.Second
	cfg.KeepAlive = 15 * time.Second
	cfg.FallbackDelay = 150 * time.Millisecond
	cfg.WriteBufferSize = 32 * 1024
	cfg.ReadBufferSize = 32 * 1024
	cfg.ForceHTTP2 = true
	return cfg
}

// ConservativeConfig keeps the pool and buffers small, for processes that
// hold many clients or run under tight memory limits.
func ConservativeConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 10 * time.Second
	cfg.MaxIdleConns = 20
	cfg.MaxIdleConnsPerHost = 5
	cfg.MaxConnsPerHost = 20
	cfg.IdleConnTimeout = 30 * time.Second
	cfg.WriteBufferSize = 4 * 1024
	cfg.ReadBufferSize = 4 * 1024
	return cfg
}

// =============================================================================
// Internal Configuration
// =============================================================================

type internalConfig struct {
	httpConfig Config

	// OpenTelemetry
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *metrics

	// ServiceName is added as "http.client.name" on spans and metrics and
	// names the circuit breaker.
	ServiceName string

	EnableNetworkTrace bool

	TLSConfig            *tls.Config
	ProxyURL             *url.URL
	ProxyFromEnvironment bool

	Filters            []Filter
	SpanNameFormatter  SpanNameFormatter
	SpanStartOptions   []trace.SpanStartOption
	MetricAttributesFn func(*http.Request) []attribute.KeyValue
	Propagators        propagation.TextMapPropagator
	ClientTrace        func(context.Context) *httptrace.ClientTrace

	// Request shaping
	BaseURL        string
	DefaultHeaders http.Header
	Interceptors   *InterceptorChain

	// Debugging
	Logger       zerolog.Logger
	Debug        bool
	GenerateCurl bool
	EnableTrace  bool

	// Resilience
	BreakerConfig   *BreakerConfig
	RateLimitConfig *RateLimitConfig
	Coalesce        bool

	// BaseTransport replaces the pooled http.Transport, typically with a
	// MockTransport in tests.
	BaseTransport http.RoundTripper

	// Registerer receives the client's Prometheus collector when set.
	Registerer prometheus.Registerer
}

func newConfig(opts ...Option) *internalConfig {
	cfg := &internalConfig{
		httpConfig:     DefaultConfig(),
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),

		EnableNetworkTrace:   true,
		ProxyFromEnvironment: true,

		DefaultHeaders: make(http.Header),
		Interceptors:   NewInterceptorChain(),
		Logger:         zerolog.New(os.Stdout).With().Timestamp().Logger(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)

	// A nil *metrics is safe to record on.
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	if cfg.Propagators == nil {
		cfg.Propagators = propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)
	}

	return cfg
}

// buildTransport creates the pooled http.Transport.
func (cfg *internalConfig) buildTransport() *http.Transport {
	hc := cfg.httpConfig

	dialer := &net.Dialer{
		Timeout:       hc.DialTimeout,
		KeepAlive:     hc.KeepAlive,
		FallbackDelay: hc.FallbackDelay,
	}

	transport := &http.Transport{
		DialContext:            dialer.DialContext,
		MaxIdleConns:           hc.MaxIdleConns,
		MaxIdleConnsPerHost:    hc.MaxIdleConnsPerHost,
		MaxConnsPerHost:        hc.MaxConnsPerHost,
		IdleConnTimeout:        hc.IdleConnTimeout,
		TLSHandshakeTimeout:    hc.TLSHandshakeTimeout,
		ResponseHeaderTimeout:  hc.ResponseHeaderTimeout,
		ExpectContinueTimeout:  hc.ExpectContinueTimeout,
		DisableKeepAlives:      hc.DisableKeepAlives,
		DisableCompression:     hc.DisableCompression,
		WriteBufferSize:        hc.WriteBufferSize,
		ReadBufferSize:         hc.ReadBufferSize,
		MaxResponseHeaderBytes: hc.MaxResponseHeaderBytes,
		TLSClientConfig:        cfg.TLSConfig,
		ForceAttemptHTTP2:      hc.ForceHTTP2,
	}

	if cfg.ProxyURL != nil {
		transport.Proxy = http.ProxyURL(cfg.ProxyURL)
	} else if cfg.ProxyFromEnvironment {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return transport
}

func (cfg *internalConfig) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 1)
	if cfg.ServiceName != "" {
		attrs = append(attrs, attribute.String("http.client.name", cfg.ServiceName))
	}
	return attrs
}

// breakerName identifies the circuit breaker, shared across instances when
// the breaker state lives in Redis.
func (cfg *internalConfig) breakerName() string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return "restgen-client"
}

// =============================================================================
// Options
// =============================================================================

// Filter reports whether a request should be traced. All filters must
// return true.
type Filter func(r *http.Request) bool

// SpanNameFormatter names the client span. The default is "HTTP {method}".
type SpanNameFormatter func(method string, r *http.Request) string

// Option configures the HTTP client.
type Option func(*internalConfig)

// WithConfig sets the transport configuration.
func WithConfig(c Config) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig = c
	}
}

// WithServiceName names this client in traces, metrics and breaker state.
func WithServiceName(name string) Option {
	return func(cfg *internalConfig) {
		cfg.ServiceName = name
	}
}

// WithBaseURL resolves relative request URLs against base.
func WithBaseURL(base string) Option {
	return func(cfg *internalConfig) {
		cfg.BaseURL = base
	}
}

// WithDefaultHeaders sets headers applied to every request that does not
// already carry them.
func WithDefaultHeaders(h http.Header) Option {
	return func(cfg *internalConfig) {
		for k, vs := range h {
			for _, v := range vs {
				cfg.DefaultHeaders.Add(k, v)
			}
		}
	}
}

// WithDefaultHeader sets a single default header.
func WithDefaultHeader(name, value string) Option {
	return func(cfg *internalConfig) {
		cfg.DefaultHeaders.Set(name, value)
	}
}

// WithRequestInterceptor appends a request interceptor.
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(cfg *internalConfig) {
		cfg.Interceptors.AddRequestInterceptor(i)
	}
}

// WithResponseInterceptor appends a response interceptor.
func WithResponseInterceptor(i ResponseInterceptor) Option {
	return func(cfg *internalConfig) {
		cfg.Interceptors.AddResponseInterceptor(i)
	}
}

// WithLogger replaces the debug logger.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *internalConfig) {
		cfg.Logger = l
	}
}

// WithDebug logs every request and response at debug level.
func WithDebug(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.Debug = enabled
	}
}

// WithGenerateCurl attaches an equivalent cURL command to every response.
func WithGenerateCurl(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.GenerateCurl = enabled
	}
}

// WithTrace collects per-request timing, exposed as Response.TraceInfo.
func WithTrace(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.EnableTrace = enabled
	}
}

// WithBreaker guards the transport with a circuit breaker.
//
//	client := httpclient.New(
//	    httpclient.WithServiceName("zoo-api"),
//	    httpclient.WithBreaker(httpclient.DefaultBreakerConfig()),
//	)
func WithBreaker(bc BreakerConfig) Option {
	return func(cfg *internalConfig) {
		if bc.Classifier == nil {
			bc.Classifier = DefaultBreakerClassifier
		}
		cfg.BreakerConfig = &bc
	}
}

// WithRateLimit limits the request rate of the client.
func WithRateLimit(rl RateLimitConfig) Option {
	return func(cfg *internalConfig) {
		cfg.RateLimitConfig = &rl
	}
}

// WithCoalescing shares one in-flight response between identical concurrent
// GET and HEAD requests.
func WithCoalescing(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.Coalesce = enabled
	}
}

// WithTransport replaces the pooled base transport. The instrumentation,
// breaker and rate limit layers still wrap it.
func WithTransport(rt http.RoundTripper) Option {
	return func(cfg *internalConfig) {
		cfg.BaseTransport = rt
	}
}

// WithMockTransport is WithTransport for a MockTransport.
func WithMockTransport(mock *MockTransport) Option {
	return WithTransport(mock)
}

// WithPrometheusRegisterer registers the client's collector with reg.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(cfg *internalConfig) {
		cfg.Registerer = reg
	}
}

// WithTracerProvider sets the TracerProvider. The global one is used
// otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *internalConfig) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets the MeterProvider. The global one is used
// otherwise.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *internalConfig) {
		cfg.MeterProvider = mp
	}
}

// WithTLSConfig sets the TLS configuration of the pooled transport.
func WithTLSConfig(tlsCfg *tls.Config) Option {
	return func(cfg *internalConfig) {
		cfg.TLSConfig = tlsCfg
	}
}

// WithProxyURL routes every request through proxyURL and ignores proxy
// environment variables.
func WithProxyURL(proxyURL *url.URL) Option {
	return func(cfg *internalConfig) {
		cfg.ProxyURL = proxyURL
		cfg.ProxyFromEnvironment = false
	}
}

// WithProxyFromEnvironment toggles HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
// Enabled by default.
func WithProxyFromEnvironment(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.ProxyFromEnvironment = enabled
	}
}

// WithDisableNetworkTrace turns off DNS, connect and TLS span events.
func WithDisableNetworkTrace() Option {
	return func(cfg *internalConfig) {
		cfg.EnableNetworkTrace = false
	}
}

// WithFilter adds a tracing filter.
//
//	httpclient.WithFilter(func(r *http.Request) bool {
//	    return !strings.HasPrefix(r.URL.Path, "/health")
//	})
func WithFilter(f Filter) Option {
	return func(cfg *internalConfig) {
		cfg.Filters = append(cfg.Filters, f)
	}
}

// WithSpanNameFormatter customises span names.
func WithSpanNameFormatter(f SpanNameFormatter) Option {
	return func(cfg *internalConfig) {
		cfg.SpanNameFormatter = f
	}
}

// WithSpanOptions adds start options to every span.
func WithSpanOptions(opts ...trace.SpanStartOption) Option {
	return func(cfg *internalConfig) {
		cfg.SpanStartOptions = append(cfg.SpanStartOptions, opts...)
	}
}

// WithMetricAttributesFn adds per-request attributes to duration metrics.
func WithMetricAttributesFn(f func(*http.Request) []attribute.KeyValue) Option {
	return func(cfg *internalConfig) {
		cfg.MetricAttributesFn = f
	}
}

// WithPropagators replaces the W3C TraceContext and Baggage propagators.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(cfg *internalConfig) {
		cfg.Propagators = p
	}
}

// WithClientTrace replaces the built-in network tracing with a custom
// httptrace.ClientTrace factory.
func WithClientTrace(f func(context.Context) *httptrace.ClientTrace) Option {
	return func(cfg *internalConfig) {
		cfg.ClientTrace = f
	}
}
