package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	gobreakerredis "github.com/sony/gobreaker/v2/redis"
)

// NewRedisStore returns a breaker state store backed by Redis, so every
// process using the same ServiceName shares one breaker.
//
//	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"localhost:6379"}})
//	client := httpclient.New(
//	    httpclient.WithServiceName("zoo-api"),
//	    httpclient.WithBreaker(httpclient.DistributedBreakerConfig(httpclient.NewRedisStore(rdb))),
//	)
func NewRedisStore(client redis.UniversalClient) gobreaker.SharedDataStore {
	return gobreakerredis.NewStoreFromClient(client)
}

// CircuitBreaker is the subset of gobreaker used by the breaker transport.
type CircuitBreaker interface {
	Execute(req func() (*http.Response, error)) (*http.Response, error)
}

// BreakerClassifier reports whether an exchange counts as a failure toward
// tripping the breaker.
type BreakerClassifier func(resp *http.Response, err error) bool

// BreakerConfig configures the circuit breaker.
//
// The breaker is closed while requests flow, open while they are rejected
// with a circuit_open transport error, and half-open while it probes.
type BreakerConfig struct {
	// MaxRequests is how many probes pass while half-open.
	MaxRequests uint32

	// Interval clears the counts periodically while closed. Zero never
	// clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the minimum request count before FailureRatio
	// is considered.
	FailureThreshold uint32

	// FailureRatio trips the breaker once failures/requests reaches it.
	FailureRatio float64

	// ConsecutiveFailures trips the breaker after this many failures in a
	// row. Zero disables the rule.
	ConsecutiveFailures uint32

	// Store shares state between processes. Nil keeps the breaker local.
	Store gobreaker.SharedDataStore

	// Classifier defaults to DefaultBreakerClassifier.
	Classifier BreakerClassifier

	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns a local breaker that opens after 5
// consecutive failures or a 50% failure rate over at least 20 requests.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		FailureThreshold:    20,
		FailureRatio:        0.5,
		ConsecutiveFailures: 5,
		Classifier:          DefaultBreakerClassifier,
	}
}

// DistributedBreakerConfig is DefaultBreakerConfig with shared state.
func DistributedBreakerConfig(store gobreaker.SharedDataStore) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Store = store
	return cfg
}

// DisabledBreakerConfig never trips.
func DisabledBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: ^uint32(0),
		FailureRatio:     1.0,
		Classifier:       func(*http.Response, error) bool { return false },
	}
}

// DefaultBreakerClassifier counts network errors and 5xx responses. Other
// statuses are API answers, returned to the caller like any response.
func DefaultBreakerClassifier(resp *http.Response, err error) bool {
	if err != nil {
		return isNetworkError(err)
	}
	return resp != nil && resp.StatusCode >= 500
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT)
}

func (bc *BreakerConfig) readyToTrip(counts gobreaker.Counts) bool {
	if bc.FailureThreshold > 0 && counts.Requests < bc.FailureThreshold &&
		(bc.ConsecutiveFailures == 0 || counts.ConsecutiveFailures < bc.ConsecutiveFailures) {
		return false
	}
	if bc.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= bc.ConsecutiveFailures {
		return true
	}
	if bc.FailureRatio > 0 && counts.Requests > 0 && counts.TotalFailures > 0 {
		return float64(counts.TotalFailures)/float64(counts.Requests) >= bc.FailureRatio
	}
	return false
}

// newCircuitBreaker builds a local or distributed breaker. A distributed
// breaker that cannot be created falls back to a local one.
func newCircuitBreaker(cfg *internalConfig) CircuitBreaker {
	bc := cfg.BreakerConfig
	st := gobreaker.Settings{
		Name:        cfg.breakerName(),
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: bc.readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Metrics.recordBreakerState(context.Background(), name, int64(to))
			cfg.Logger.Debug().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			if bc.OnStateChange != nil {
				bc.OnStateChange(name, from, to)
			}
		},
	}

	if bc.Store != nil {
		dcb, err := gobreaker.NewDistributedCircuitBreaker[*http.Response](bc.Store, st)
		if err == nil {
			return dcb
		}
		cfg.Logger.Warn().Err(err).Str("breaker", st.Name).
			Msg("distributed circuit breaker unavailable, using a local one")
	}
	return gobreaker.NewCircuitBreaker[*http.Response](st)
}

// errSyntheticFailure tells the breaker a response counts as a failure.
// The response itself is still returned to the caller.
var errSyntheticFailure = errors.New("synthetic failure")

type circuitBreakerTransport struct {
	breaker    CircuitBreaker
	next       http.RoundTripper
	classifier BreakerClassifier
	metrics    *metrics
	name       string
}

func newCircuitBreakerTransport(next http.RoundTripper, cfg *internalConfig) http.RoundTripper {
	if cfg.BreakerConfig == nil {
		return next
	}
	return &circuitBreakerTransport{
		breaker:    newCircuitBreaker(cfg),
		next:       next,
		classifier: cfg.BreakerConfig.Classifier,
		metrics:    cfg.Metrics,
		name:       cfg.breakerName(),
	}
}

// Unwrap returns the wrapped transport.
func (t *circuitBreakerTransport) Unwrap() http.RoundTripper { return t.next }

// RoundTrip implements http.RoundTripper.
func (t *circuitBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req) //nolint:bodyclose // returned to the caller
		if t.classifier(resp, err) {
			if err != nil {
				return resp, err
			}
			return resp, errSyntheticFailure
		}
		return resp, err
	})

	switch {
	case err == nil:
		t.metrics.recordBreakerRequest(ctx, t.name, "success")
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		t.metrics.recordBreakerRequest(ctx, t.name, "rejected")
		// The request never reached the next transport, so nothing else closes its body.
		closeBody(req)
		return nil, err
	default:
		t.metrics.recordBreakerRequest(ctx, t.name, "failure")
		if errors.Is(err, errSyntheticFailure) && resp != nil {
			return resp, nil
		}
		return nil, err
	}
}
