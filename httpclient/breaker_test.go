package httpclient

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kroma-labs/restgen/httpclient/mocks"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

type NetError struct {
	Msg string
}

func (e *NetError) Error() string   { return e.Msg }
func (e *NetError) Timeout() bool   { return false }
func (e *NetError) Temporary() bool { return false }

func TestBreakerConfigPresets(t *testing.T) {
	t.Run("given the default preset, then the breaker is local", func(t *testing.T) {
		cfg := DefaultBreakerConfig()
		assert.Equal(t, uint32(1), cfg.MaxRequests)
		assert.Equal(t, 10*time.Second, cfg.Interval)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
		assert.Equal(t, uint32(20), cfg.FailureThreshold)
		assert.InEpsilon(t, 0.5, cfg.FailureRatio, 0.001)
		assert.Equal(t, uint32(5), cfg.ConsecutiveFailures)
		assert.Nil(t, cfg.Store)
		assert.NotNil(t, cfg.Classifier)
	})

	t.Run("given a redis store, then the distributed preset shares it", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		store := NewRedisStore(rdb)

		cfg := DistributedBreakerConfig(store)
		assert.Equal(t, store, cfg.Store)
		assert.Equal(t, 10*time.Second, cfg.Interval)
	})

	t.Run("given the disabled preset, then nothing counts as a failure", func(t *testing.T) {
		cfg := DisabledBreakerConfig()
		assert.False(t, cfg.Classifier(nil, &NetError{Msg: "down"}))
		assert.False(t, cfg.readyToTrip(gobreaker.Counts{Requests: 1000, TotalFailures: 1000}))
	})
}

func TestDefaultBreakerClassifier(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		err  error
		want bool
	}{
		{"given 200, then not a failure", &http.Response{StatusCode: http.StatusOK}, nil, false},
		{"given 404, then not a failure", &http.Response{StatusCode: http.StatusNotFound}, nil, false},
		{"given 500, then a failure", &http.Response{StatusCode: http.StatusInternalServerError}, nil, true},
		{"given 503, then a failure", &http.Response{StatusCode: http.StatusServiceUnavailable}, nil, true},
		{"given a network error, then a failure", nil, &NetError{Msg: "reset"}, true},
		{"given a plain error, then not a failure", nil, errors.New("interceptor said no"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultBreakerClassifier(tt.resp, tt.err))
		})
	}
}

func TestBreakerConfig_readyToTrip(t *testing.T) {
	tests := []struct {
		name   string
		cfg    BreakerConfig
		counts gobreaker.Counts
		want   bool
	}{
		{
			name:   "given consecutive failures at the limit, then trip",
			cfg:    DefaultBreakerConfig(),
			counts: gobreaker.Counts{Requests: 5, TotalFailures: 5, ConsecutiveFailures: 5},
			want:   true,
		},
		{
			name:   "given too few requests for the ratio, then stay closed",
			cfg:    DefaultBreakerConfig(),
			counts: gobreaker.Counts{Requests: 10, TotalFailures: 4, ConsecutiveFailures: 1},
			want:   false,
		},
		{
			name:   "given the failure ratio reached, then trip",
			cfg:    DefaultBreakerConfig(),
			counts: gobreaker.Counts{Requests: 20, TotalFailures: 10, ConsecutiveFailures: 1},
			want:   true,
		},
		{
			name:   "given the failure ratio not reached, then stay closed",
			cfg:    DefaultBreakerConfig(),
			counts: gobreaker.Counts{Requests: 20, TotalFailures: 9, ConsecutiveFailures: 1},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.readyToTrip(tt.counts))
		})
	}
}

func TestCircuitBreakerTransport_RoundTrip(t *testing.T) {
	m, err := newMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	passThrough := func(req func() (*http.Response, error)) (*http.Response, error) {
		return req()
	}

	tests := []struct {
		name       string
		mockFn     func(cb *mocks.CircuitBreaker, rt *mocks.RoundTripper)
		wantStatus int
		wantErr    error
	}{
		{
			name: "given a healthy upstream, then the response passes through",
			mockFn: func(cb *mocks.CircuitBreaker, rt *mocks.RoundTripper) {
				cb.EXPECT().Execute(mock.Anything).RunAndReturn(passThrough).Once()
				rt.EXPECT().RoundTrip(mock.Anything).
					Return(&http.Response{StatusCode: http.StatusOK}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "given an open breaker, then the request is rejected",
			mockFn: func(cb *mocks.CircuitBreaker, _ *mocks.RoundTripper) {
				cb.EXPECT().Execute(mock.Anything).Return(nil, gobreaker.ErrOpenState).Once()
			},
			wantErr: gobreaker.ErrOpenState,
		},
		{
			name: "given a 500, then it counts as a failure but the response is returned",
			mockFn: func(cb *mocks.CircuitBreaker, rt *mocks.RoundTripper) {
				cb.EXPECT().Execute(mock.Anything).RunAndReturn(passThrough).Once()
				rt.EXPECT().RoundTrip(mock.Anything).
					Return(&http.Response{StatusCode: http.StatusInternalServerError}, nil).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "given a network error, then the error is returned",
			mockFn: func(cb *mocks.CircuitBreaker, rt *mocks.RoundTripper) {
				cb.EXPECT().Execute(mock.Anything).RunAndReturn(passThrough).Once()
				rt.EXPECT().RoundTrip(mock.Anything).
					Return(nil, &NetError{Msg: "network error"}).Once()
			},
			wantErr: &NetError{Msg: "network error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := mocks.NewCircuitBreaker(t)
			rt := mocks.NewRoundTripper(t)
			tt.mockFn(cb, rt)

			transport := &circuitBreakerTransport{
				breaker:    cb,
				next:       rt,
				classifier: DefaultBreakerClassifier,
				metrics:    m,
				name:       "test",
			}

			req, err := http.NewRequest(http.MethodGet, "https://zoo.example.com/users", nil)
			require.NoError(t, err)

			resp, err := transport.RoundTrip(req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr.Error(), err.Error())
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestClient_Breaker(t *testing.T) {
	t.Run("given repeated 500s, then the breaker opens and rejects with circuit_open", func(t *testing.T) {
		mockTransport := NewMockTransport().StubResponse(http.StatusInternalServerError, "Oops")
		client := New(
			WithBaseURL("https://zoo.example.com"),
			WithMockTransport(mockTransport),
			WithBreaker(BreakerConfig{
				MaxRequests:         1,
				Timeout:             time.Minute,
				ConsecutiveFailures: 2,
			}),
		)

		for range 2 {
			resp, err := client.Send(context.Background(), newRequest(t, http.MethodGet, "/users", ""))
			require.NoError(t, err)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			assert.Equal(t, "Oops", resp.String())
		}

		_, err := client.Send(context.Background(), newRequest(t, http.MethodGet, "/users", ""))
		require.Error(t, err)
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, ErrorTypeCircuitOpen, ClassifyError(err))
		assert.Equal(t, 2, mockTransport.RequestCount())
	})

	t.Run("given a shared redis store, then a second client sees the open breaker", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

		cfg := DistributedBreakerConfig(NewRedisStore(rdb))
		cfg.FailureThreshold = 0
		cfg.FailureRatio = 0
		cfg.ConsecutiveFailures = 1
		cfg.Timeout = time.Minute

		failing := NewMockTransport().StubError(&NetError{Msg: "connection reset"})
		first := New(
			WithServiceName("zoo-api"),
			WithBaseURL("https://zoo.example.com"),
			WithMockTransport(failing),
			WithBreaker(cfg),
		)
		_, err := first.Send(context.Background(), newRequest(t, http.MethodGet, "/users", ""))
		require.Error(t, err)

		healthy := NewMockTransport().StubResponse(http.StatusOK, "")
		second := New(
			WithServiceName("zoo-api"),
			WithBaseURL("https://zoo.example.com"),
			WithMockTransport(healthy),
			WithBreaker(cfg),
		)
		_, err = second.Send(context.Background(), newRequest(t, http.MethodGet, "/users", ""))
		require.Error(t, err)
		assert.Equal(t, ErrorTypeCircuitOpen, ClassifyError(err))
		assert.Zero(t, healthy.RequestCount())
	})

	t.Run("given a custom classifier, then 404 trips the breaker", func(t *testing.T) {
		var transitions []gobreaker.State
		client := New(
			WithBaseURL("https://zoo.example.com"),
			WithMockTransport(NewMockTransport().StubResponse(http.StatusNotFound, "")),
			WithBreaker(BreakerConfig{
				Timeout:             time.Minute,
				ConsecutiveFailures: 1,
				Classifier: func(resp *http.Response, err error) bool {
					return err != nil || resp.StatusCode == http.StatusNotFound
				},
				OnStateChange: func(_ string, _, to gobreaker.State) {
					transitions = append(transitions, to)
				},
			}),
		)

		resp, err := client.Send(context.Background(), newRequest(t, http.MethodGet, "/missing", ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		_, err = client.Send(context.Background(), newRequest(t, http.MethodGet, "/missing", ""))
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
	})
}
