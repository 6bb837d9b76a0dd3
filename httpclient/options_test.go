package httpclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestConfigPresets(t *testing.T) {
	tests := []struct {
		name           string
		cfg            Config
		wantTimeout    time.Duration
		wantMaxIdle    int
		wantMaxPerHost int
		wantMaxConns   int
		wantHTTP2      bool
	}{
		{
			name:           "given default config, then returns balanced settings",
			cfg:            DefaultConfig(),
			wantTimeout:    15 * time.Second,
			wantMaxIdle:    100,
			wantMaxPerHost: 20,
			wantMaxConns:   100,
		},
		{
			name:           "given high throughput config, then raises pool limits",
			cfg:            HighThroughputConfig(),
			wantTimeout:    30 * time.Second,
			wantMaxIdle:    500,
			wantMaxPerHost: 100,
			wantMaxConns:   0,
		},
		{
			name:           "given low latency config, then shortens timeouts",
			cfg:            LowLatencyConfig(),
			wantTimeout:    5 * time.Second,
			wantMaxIdle:    50,
			wantMaxPerHost: 25,
			wantMaxConns:   50,
			wantHTTP2:      true,
		},
		{
			name:           "given conservative config, then keeps the pool small",
			cfg:            ConservativeConfig(),
			wantTimeout:    10 * time.Second,
			wantMaxIdle:    20,
			wantMaxPerHost: 5,
			wantMaxConns:   20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTimeout, tt.cfg.Timeout)
			assert.Equal(t, tt.wantMaxIdle, tt.cfg.MaxIdleConns)
			assert.Equal(t, tt.wantMaxPerHost, tt.cfg.MaxIdleConnsPerHost)
			assert.Equal(t, tt.wantMaxConns, tt.cfg.MaxConnsPerHost)
			assert.Equal(t, tt.wantHTTP2, tt.cfg.ForceHTTP2)
			assert.True(t, tt.cfg.DisableCompression)
			assert.False(t, tt.cfg.DisableKeepAlives)
			assert.Positive(t, tt.cfg.DialTimeout)
		})
	}
}

func TestNewConfig(t *testing.T) {
	t.Run("given no options, then uses defaults", func(t *testing.T) {
		cfg := newConfig()

		assert.Equal(t, 15*time.Second, cfg.httpConfig.Timeout)
		assert.True(t, cfg.EnableNetworkTrace)
		assert.True(t, cfg.ProxyFromEnvironment)
		assert.NotNil(t, cfg.Tracer)
		assert.NotNil(t, cfg.Meter)
		assert.NotNil(t, cfg.Metrics)
		assert.NotNil(t, cfg.Propagators)
		assert.NotNil(t, cfg.Interceptors)
		assert.Empty(t, cfg.DefaultHeaders)
		assert.Nil(t, cfg.BreakerConfig)
		assert.Nil(t, cfg.RateLimitConfig)
		assert.False(t, cfg.Coalesce)
		assert.Equal(t, "restgen-client", cfg.breakerName())
	})

	t.Run("given options, then each is applied", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		defer func() { _ = tp.Shutdown(context.Background()) }()
		mp := noop.NewMeterProvider()
		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS13}
		prop := propagation.TraceContext{}
		logger := zerolog.Nop()

		cfg := newConfig(
			WithConfig(ConservativeConfig()),
			WithServiceName("zoo-api"),
			WithBaseURL("https://zoo.example.com"),
			WithDefaultHeaders(http.Header{"Accept": {"application/json"}}),
			WithDefaultHeader("X-Client", "zoo"),
			WithLogger(logger),
			WithDebug(true),
			WithGenerateCurl(true),
			WithTrace(true),
			WithBreaker(BreakerConfig{ConsecutiveFailures: 3}),
			WithRateLimit(DefaultRateLimitConfig()),
			WithCoalescing(true),
			WithTracerProvider(tp),
			WithMeterProvider(mp),
			WithTLSConfig(tlsCfg),
			WithDisableNetworkTrace(),
			WithSpanOptions(trace.WithAttributes()),
			WithPropagators(prop),
			WithClientTrace(func(context.Context) *httptrace.ClientTrace { return &httptrace.ClientTrace{} }),
		)

		assert.Equal(t, 10*time.Second, cfg.httpConfig.Timeout)
		assert.Equal(t, "zoo-api", cfg.ServiceName)
		assert.Equal(t, "zoo-api", cfg.breakerName())
		assert.Equal(t, "https://zoo.example.com", cfg.BaseURL)
		assert.Equal(t, "application/json", cfg.DefaultHeaders.Get("Accept"))
		assert.Equal(t, "zoo", cfg.DefaultHeaders.Get("X-Client"))
		assert.True(t, cfg.Debug)
		assert.True(t, cfg.GenerateCurl)
		assert.True(t, cfg.EnableTrace)
		require.NotNil(t, cfg.BreakerConfig)
		assert.NotNil(t, cfg.BreakerConfig.Classifier)
		require.NotNil(t, cfg.RateLimitConfig)
		assert.True(t, cfg.Coalesce)
		assert.Equal(t, tp, cfg.TracerProvider)
		assert.Equal(t, mp, cfg.MeterProvider)
		assert.Equal(t, tlsCfg, cfg.TLSConfig)
		assert.False(t, cfg.EnableNetworkTrace)
		assert.Len(t, cfg.SpanStartOptions, 1)
		assert.Equal(t, prop, cfg.Propagators)
		assert.NotNil(t, cfg.ClientTrace)
	})
}

func TestBuildTransport(t *testing.T) {
	t.Run("given custom pool settings, then builds transport", func(t *testing.T) {
		custom := DefaultConfig()
		custom.MaxIdleConns = 50
		custom.MaxIdleConnsPerHost = 25
		custom.IdleConnTimeout = 60 * time.Second

		transport := newConfig(WithConfig(custom)).buildTransport()

		require.NotNil(t, transport)
		assert.Equal(t, 50, transport.MaxIdleConns)
		assert.Equal(t, 25, transport.MaxIdleConnsPerHost)
		assert.Equal(t, 60*time.Second, transport.IdleConnTimeout)
		assert.True(t, transport.DisableCompression)
		assert.NotNil(t, transport.Proxy)
	})

	t.Run("given a proxy URL, then every request uses it", func(t *testing.T) {
		proxy, err := url.Parse("http://proxy.internal:3128")
		require.NoError(t, err)

		cfg := newConfig(WithProxyURL(proxy))
		assert.False(t, cfg.ProxyFromEnvironment)

		req, err := http.NewRequest(http.MethodGet, "https://zoo.example.com", nil)
		require.NoError(t, err)
		got, err := cfg.buildTransport().Proxy(req)
		require.NoError(t, err)
		assert.Equal(t, proxy, got)
	})

	t.Run("given proxies disabled, then no proxy func is set", func(t *testing.T) {
		transport := newConfig(WithProxyFromEnvironment(false)).buildTransport()
		assert.Nil(t, transport.Proxy)
	})
}

func TestBaseAttributes(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		wantLen     int
	}{
		{"given service name, then returns attribute", "zoo-api", 1},
		{"given no service name, then returns empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := newConfig(WithServiceName(tt.serviceName)).baseAttributes()

			require.Len(t, attrs, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, "http.client.name", string(attrs[0].Key))
				assert.Equal(t, tt.serviceName, attrs[0].Value.AsString())
			}
		})
	}
}
