package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"
)

// Client sends fully built requests through an instrumented transport
// chain and returns responses with their bodies buffered.
//
// The chain, from the caller inwards:
//
//	coalescing (GET/HEAD, optional)
//	  -> OpenTelemetry span and metrics
//	    -> circuit breaker (optional)
//	      -> rate limit (optional)
//	        -> pooled http.Transport (or WithTransport)
//
// A Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	config     *internalConfig
	baseURL    *url.URL
	stats      *clientStats
}

// New creates a Client.
//
//	client := httpclient.New(
//	    httpclient.WithBaseURL("https://zoo.example.com/api"),
//	    httpclient.WithServiceName("zoo-api"),
//	    httpclient.WithBreaker(httpclient.DefaultBreakerConfig()),
//	)
//	resp, err := client.Send(ctx, req)
//
// An invalid base URL is reported by Send.
func New(opts ...Option) *Client {
	cfg := newConfig(opts...)

	var base http.RoundTripper = cfg.BaseTransport
	if base == nil {
		base = cfg.buildTransport()
	}

	rt := newRateLimitTransport(base, cfg.RateLimitConfig)
	rt = newCircuitBreakerTransport(rt, cfg)
	rt = newOtelTransport(rt, cfg)
	rt = newCoalesceTransport(rt, cfg)

	c := &Client{
		httpClient: &http.Client{
			Transport: rt,
			Timeout:   cfg.httpConfig.Timeout,
		},
		config: cfg,
		stats:  newClientStats(),
	}

	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err == nil {
			c.baseURL = u
		}
	}

	if cfg.Registerer != nil {
		if err := cfg.Registerer.Register(c.Collector()); err != nil {
			cfg.Logger.Warn().Err(err).Msg("httpclient: prometheus collector not registered")
		}
	}

	return c
}

// NewTransport wraps base with OpenTelemetry instrumentation only.
//
//	hc := &http.Client{Transport: httpclient.NewTransport(http.DefaultTransport)}
func NewTransport(base http.RoundTripper, opts ...Option) http.RoundTripper {
	return newOtelTransport(base, newConfig(opts...))
}

// HTTP returns the underlying *http.Client. Requests made through it skip
// default headers, interceptors and body buffering.
func (c *Client) HTTP() *http.Client {
	return c.httpClient
}

// BaseURL returns the configured base URL, or "".
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Close releases idle pooled connections. In-flight requests are not
// affected and the client remains usable.
func (c *Client) Close() {
	if t := unwrapTransport(c.httpClient.Transport); t != nil {
		t.CloseIdleConnections()
	}
}

// resolve makes a relative request URL absolute against the base URL.
func (c *Client) resolve(req *http.Request) error {
	if req.URL == nil {
		return fmt.Errorf("httpclient: request has no URL")
	}
	if req.URL.IsAbs() {
		return nil
	}
	if c.baseURL == nil {
		if c.config.BaseURL != "" {
			return fmt.Errorf("httpclient: invalid base URL %q", c.config.BaseURL)
		}
		return fmt.Errorf("httpclient: relative URL %q without a base URL", req.URL)
	}
	req.URL = c.baseURL.ResolveReference(req.URL)
	req.Host = ""
	return nil
}

// Send applies default headers and interceptors, sends req and reads the
// whole response body.
//
// Any status code is a successful exchange. An error means no complete
// response was received: connection failures, timeouts, cancellation, an
// open breaker, the rate limit, or a failing interceptor. Use ClassifyError
// to tell them apart.
//
// The request body, if any, is closed.
func (c *Client) Send(ctx context.Context, req *http.Request) (*Response, error) {
	req = req.WithContext(ctx)

	if err := c.resolve(req); err != nil {
		closeBody(req)
		return nil, err
	}

	for k, vs := range c.config.DefaultHeaders {
		if _, ok := req.Header[k]; ok {
			continue
		}
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if err := c.config.Interceptors.ApplyRequestInterceptors(req); err != nil {
		closeBody(req)
		return nil, fmt.Errorf("httpclient: request interceptor: %w", err)
	}

	var nt *networkTrace
	if c.config.EnableTrace {
		nt = &networkTrace{start: time.Now()}
		req = req.WithContext(httptrace.WithClientTrace(req.Context(), createClientTrace(nt)))
	}

	var curl string
	if c.config.GenerateCurl {
		curl = generateCurlCommand(req, peekBody(req))
	}

	if c.config.Debug {
		logRequest(c.config.Logger, req)
	}

	c.stats.begin()
	start := time.Now()
	resp, err := c.exchange(req)
	duration := time.Since(start)
	c.stats.end(resp, err)

	if err != nil {
		if c.config.Debug {
			logFailure(c.config.Logger, req, err, duration)
		}
		return nil, err
	}

	resp.curlCommand = curl
	if nt != nil {
		resp.traceInfo = nt.traceInfo()
	}

	if c.config.Debug {
		logResponse(c.config.Logger, req, resp, duration)
	}

	if err := c.config.Interceptors.ApplyResponseInterceptors(resp, req); err != nil {
		return nil, fmt.Errorf("httpclient: response interceptor: %w", err)
	}

	return resp, nil
}

func (c *Client) exchange(req *http.Request) (*Response, error) {
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Proto:      httpResp.Proto,
		Header:     httpResp.Header,
		body:       data,
	}, nil
}

// peekBody returns the request body for display when it can be read again
// through GetBody.
func peekBody(req *http.Request) []byte {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}
	rc, err := req.GetBody()
	if err != nil {
		return nil
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	return data
}

// closeBody releases the request body on paths that return before a
// transport has taken ownership of it.
func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
