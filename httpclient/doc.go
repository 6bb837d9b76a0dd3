// Package httpclient is the HTTP exchange layer under the generated REST
// clients. It sends fully built requests, buffers every response body, and
// carries the operational concerns around the exchange.
//
// # Features
//
//   - OpenTelemetry tracing with semconv span attributes and W3C propagation
//   - OpenTelemetry metrics for latency, body sizes, errors and network phases
//   - A Prometheus collector for in-flight requests, responses and failures
//   - Circuit breaking with gobreaker, optionally shared through Redis
//   - Client-side rate limiting
//   - Coalescing of identical concurrent GET and HEAD requests
//   - Default headers, request and response interceptors
//   - Debug logging with zerolog, cURL rendering and timing breakdowns
//   - MockTransport for tests
//
// # Quick Start
//
//	client := httpclient.New(
//	    httpclient.WithBaseURL("https://zoo.example.com/api"),
//	    httpclient.WithServiceName("zoo-api"),
//	)
//	defer client.Close()
//
//	req, _ := http.NewRequest(http.MethodGet, "users/1", nil)
//	resp, err := client.Send(ctx, req)
//	if err != nil {
//	    log.Println(httpclient.ClassifyError(err))
//	    return
//	}
//	fmt.Println(resp.StatusCode, resp.String())
//
// Every status code is a completed exchange. Send fails only when no
// complete response arrived: the error type tells connection failures,
// timeouts, cancellation, an open breaker and the rate limit apart.
//
// # Configuration Presets
//
//	httpclient.New(httpclient.WithConfig(httpclient.HighThroughputConfig()))
//	httpclient.New(httpclient.WithConfig(httpclient.LowLatencyConfig()))
//	httpclient.New(httpclient.WithConfig(httpclient.ConservativeConfig()))
//
// All presets disable transparent gzip so binary bodies arrive exactly as
// the server sent them.
//
// # Circuit Breaker
//
//	client := httpclient.New(
//	    httpclient.WithBreaker(httpclient.DefaultBreakerConfig()),
//	)
//
// Network errors and 5xx responses count as failures. A 5xx is still
// returned to the caller as a response; only an open breaker turns into an
// error. To share breaker state across replicas:
//
//	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"redis:6379"}})
//	httpclient.WithBreaker(httpclient.DistributedBreakerConfig(httpclient.NewRedisStore(rdb)))
//
// # Observability
//
// The global TracerProvider and MeterProvider are used unless overridden:
//
//	client := httpclient.New(
//	    httpclient.WithTracerProvider(tp),
//	    httpclient.WithMeterProvider(mp),
//	    httpclient.WithFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/health"
//	    }),
//	    httpclient.WithPrometheusRegisterer(prometheus.DefaultRegisterer),
//	)
//
// Span names default to "HTTP {method}".
//
// # Debugging
//
//	client := httpclient.New(
//	    httpclient.WithDebug(true),
//	    httpclient.WithGenerateCurl(true),
//	    httpclient.WithTrace(true),
//	)
//	resp, _ := client.Send(ctx, req)
//	fmt.Println(resp.CurlCommand())
//	fmt.Println(resp.TraceInfo())
//
// # Testing
//
//	mock := httpclient.NewMockTransport().
//	    StubPath("/users/1", http.StatusOK, `{"firstName":"John"}`)
//	client := httpclient.New(
//	    httpclient.WithBaseURL("https://zoo.example.com"),
//	    httpclient.WithMockTransport(mock),
//	)
package httpclient
