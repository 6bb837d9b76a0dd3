package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type telemetry struct {
	spans  *tracetest.InMemoryExporter
	reader *sdkmetric.ManualReader
}

// newTelemetryConfig builds a config recording into in-memory exporters.
func newTelemetryConfig(t *testing.T, opts ...Option) (*internalConfig, telemetry) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	opts = append([]Option{WithTracerProvider(tp), WithMeterProvider(mp)}, opts...)
	return newConfig(opts...), telemetry{spans: exporter, reader: reader}
}

func (tel telemetry) metricNames(t *testing.T) []string {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, tel.reader.Collect(context.Background(), &rm))

	var names []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	return names
}

func attrMap(attrs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		m[string(attr.Key)] = attr.Value.AsInterface()
	}
	return m
}

func TestOtelTransport_RoundTrip(t *testing.T) {
	type args struct {
		method      string
		path        string
		body        string
		serviceName string
	}

	tests := []struct {
		name         string
		args         args
		serverStatus int
		wantSpanName string
		wantError    bool
	}{
		{
			name:         "given successful GET request, then creates span",
			args:         args{method: http.MethodGet, path: "/animals", serviceName: "zoo-api"},
			serverStatus: http.StatusOK,
			wantSpanName: "HTTP GET",
		},
		{
			name:         "given POST with body, then records body size",
			args:         args{method: http.MethodPost, path: "/animals", body: `{"name":"Bob"}`},
			serverStatus: http.StatusCreated,
			wantSpanName: "HTTP POST",
		},
		{
			name:         "given a 500, then the span carries the error status",
			args:         args{method: http.MethodGet, path: "/oops"},
			serverStatus: http.StatusInternalServerError,
			wantSpanName: "HTTP GET",
			wantError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.serverStatus)
			}))
			defer server.Close()

			cfg, tel := newTelemetryConfig(t, WithServiceName(tt.args.serviceName))
			transport := newOtelTransport(http.DefaultTransport, cfg)

			var body io.Reader
			if tt.args.body != "" {
				body = strings.NewReader(tt.args.body)
			}
			req, err := http.NewRequest(tt.args.method, server.URL+tt.args.path, body)
			require.NoError(t, err)

			resp, err := transport.RoundTrip(req)
			require.NoError(t, err)
			_ = resp.Body.Close()

			spans := tel.spans.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantSpanName, spans[0].Name)

			attrs := attrMap(spans[0].Attributes)
			assert.Equal(t, int64(tt.serverStatus), attrs["http.response.status_code"])
			if tt.args.serviceName != "" {
				assert.Equal(t, tt.args.serviceName, attrs["http.client.name"])
			}
			if tt.wantError {
				assert.Equal(t, "500", attrs["error.type"])
			} else {
				assert.NotContains(t, attrs, "error.type")
			}

			assert.Contains(t, tel.metricNames(t), "http.client.request.duration")
		})
	}
}

func TestOtelTransport_RoundTrip_TracePropagation(t *testing.T) {
	t.Run("given parent span, then propagates trace context without touching the request", func(t *testing.T) {
		var receivedHeaders http.Header
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			receivedHeaders = r.Header.Clone()
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		cfg, _ := newTelemetryConfig(t, WithDisableNetworkTrace())
		transport := newOtelTransport(http.DefaultTransport, cfg)

		ctx, parentSpan := cfg.Tracer.Start(context.Background(), "parent")
		defer parentSpan.End()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		resp, err := transport.RoundTrip(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.NotEmpty(t, receivedHeaders.Get("Traceparent"))
		assert.Empty(t, req.Header.Get("Traceparent"))
	})
}

func TestOtelTransport_RoundTrip_ErrorHandling(t *testing.T) {
	tests := []struct {
		name         string
		transportErr error
		wantErrType  string
	}{
		{
			name:         "given connection refused, then records error type",
			transportErr: errors.New("dial tcp: connection refused"),
			wantErrType:  ErrorTypeConnectionRefused,
		},
		{
			name:         "given context cancelled, then records cancelled",
			transportErr: context.Canceled,
			wantErrType:  ErrorTypeCancelled,
		},
		{
			name:         "given the rate limit, then records rate_limited",
			transportErr: ErrRateLimited,
			wantErrType:  ErrorTypeRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, tel := newTelemetryConfig(t, WithDisableNetworkTrace())
			transport := newOtelTransport(NewMockTransport().StubError(tt.transportErr), cfg)

			req, err := http.NewRequest(http.MethodGet, "http://localhost:1", nil)
			require.NoError(t, err)
			_, err = transport.RoundTrip(req)
			require.ErrorIs(t, err, tt.transportErr)

			spans := tel.spans.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantErrType, attrMap(spans[0].Attributes)["error.type"])
			assert.Contains(t, tel.metricNames(t), "http.client.request.error")
		})
	}
}

func TestOtelTransport_Options(t *testing.T) {
	t.Run("given a filter rejecting the request, then no span is recorded", func(t *testing.T) {
		cfg, tel := newTelemetryConfig(t, WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}))
		transport := newOtelTransport(NewMockTransport().StubResponse(http.StatusOK, ""), cfg)

		req, err := http.NewRequest(http.MethodGet, "https://zoo.example.com/health", nil)
		require.NoError(t, err)
		resp, err := transport.RoundTrip(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Empty(t, tel.spans.GetSpans())
	})

	t.Run("given a span name formatter, then it names the span", func(t *testing.T) {
		cfg, tel := newTelemetryConfig(t, WithSpanNameFormatter(func(method string, r *http.Request) string {
			return method + " " + r.URL.Path
		}))
		transport := newOtelTransport(NewMockTransport().StubResponse(http.StatusOK, ""), cfg)

		req, err := http.NewRequest(http.MethodDelete, "https://zoo.example.com/animals/1", nil)
		require.NoError(t, err)
		resp, err := transport.RoundTrip(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		spans := tel.spans.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "DELETE /animals/1", spans[0].Name)
	})
}

func TestOtelTransport_RequestAttributes(t *testing.T) {
	type args struct {
		method      string
		url         string
		serviceName string
		bodySize    int64
		userAgent   string
		contentType string
	}

	tests := []struct {
		name       string
		args       args
		wantMethod string
		wantScheme string
		wantHost   string
		wantPort   int64
	}{
		{
			name: "given HTTPS with custom port, then extracts all attrs",
			args: args{
				method:      http.MethodPost,
				url:         "https://zoo.example.com:8443/animals",
				serviceName: "zoo-api",
				bodySize:    1024,
				userAgent:   "zoo-client/1.0",
				contentType: "application/json; charset=UTF-8",
			},
			wantMethod: "POST",
			wantScheme: "https",
			wantHost:   "zoo.example.com",
			wantPort:   8443,
		},
		{
			name:       "given HTTP without port, then uses default 80",
			args:       args{method: http.MethodGet, url: "http://zoo.example.com/path"},
			wantMethod: "GET",
			wantScheme: "http",
			wantHost:   "zoo.example.com",
			wantPort:   80,
		},
		{
			name:       "given HTTPS without port, then uses default 443",
			args:       args{method: http.MethodGet, url: "https://zoo.example.com/path"},
			wantMethod: "GET",
			wantScheme: "https",
			wantHost:   "zoo.example.com",
			wantPort:   443,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &otelTransport{cfg: &internalConfig{ServiceName: tt.args.serviceName}}

			req, err := http.NewRequest(tt.args.method, tt.args.url, nil)
			require.NoError(t, err)
			req.ContentLength = tt.args.bodySize
			if tt.args.userAgent != "" {
				req.Header.Set("User-Agent", tt.args.userAgent)
			}
			if tt.args.contentType != "" {
				req.Header.Set("Content-Type", tt.args.contentType)
			}

			attrs := attrMap(transport.requestAttributes(req))

			assert.Equal(t, tt.wantMethod, attrs["http.request.method"])
			assert.Equal(t, tt.wantScheme, attrs["url.scheme"])
			assert.Equal(t, tt.wantHost, attrs["server.address"])
			assert.Equal(t, tt.wantPort, attrs["server.port"])
			if tt.args.contentType != "" {
				assert.Equal(t, tt.args.contentType, attrs["http.request.header.content-type"])
				assert.Equal(t, tt.args.userAgent, attrs["user_agent.original"])
				assert.Equal(t, tt.args.bodySize, attrs["http.request.body.size"])
			}
		})
	}
}

func TestResponseAttributes(t *testing.T) {
	tests := []struct {
		name           string
		resp           *http.Response
		wantStatusCode int64
		wantVersion    string
	}{
		{
			name:           "given HTTP/2 response, then extracts version as '2'",
			resp:           &http.Response{StatusCode: http.StatusOK, ContentLength: 2048, Proto: "HTTP/2.0"},
			wantStatusCode: 200,
			wantVersion:    "2",
		},
		{
			name:           "given HTTP/1.1 response, then extracts version as '1.1'",
			resp:           &http.Response{StatusCode: http.StatusAccepted, Proto: "HTTP/1.1"},
			wantStatusCode: 202,
			wantVersion:    "1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := attrMap(responseAttributes(tt.resp))
			assert.Equal(t, tt.wantStatusCode, attrs["http.response.status_code"])
			assert.Equal(t, tt.wantVersion, attrs["network.protocol.version"])
		})
	}
}

func TestOtelTransport_MetricAttributesFn(t *testing.T) {
	cfg, _ := newTelemetryConfig(t, WithMetricAttributesFn(func(*http.Request) []attribute.KeyValue {
		return []attribute.KeyValue{attribute.String("zoo.resource", "animals")}
	}))
	transport := &otelTransport{cfg: cfg}

	req, err := http.NewRequest(http.MethodGet, "https://zoo.example.com/animals", nil)
	require.NoError(t, err)
	attrs := attrMap(transport.metricsAttributes(req, &http.Response{StatusCode: http.StatusNotFound}))
	assert.Equal(t, "animals", attrs["zoo.resource"])
	assert.Equal(t, "404", attrs["error.type"])
}
