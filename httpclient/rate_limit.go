package httpclient

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when the client's rate limit rejects a request.
var ErrRateLimited = errors.New("httpclient: rate limit exceeded")

// RateLimitConfig configures client-side rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero or less disables
	// limiting.
	RequestsPerSecond float64

	// Burst is how many requests may go out at once.
	Burst int

	// WaitOnLimit blocks until a token is available, bounded by the request
	// context. Otherwise requests fail immediately with ErrRateLimited.
	WaitOnLimit bool
}

// DefaultRateLimitConfig allows 100 requests per second with a burst of 10,
// waiting for tokens.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             10,
		WaitOnLimit:       true,
	}
}

// RateLimiterStats is a snapshot of the limiter.
type RateLimiterStats struct {
	Limit           float64
	Burst           int
	TokensAvailable float64
}

type rateLimitTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
	wait    bool
}

func newRateLimitTransport(next http.RoundTripper, cfg *RateLimitConfig) http.RoundTripper {
	if cfg == nil || cfg.RequestsPerSecond <= 0 {
		return next
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &rateLimitTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		wait:    cfg.WaitOnLimit,
	}
}

// Unwrap returns the wrapped transport.
func (t *rateLimitTransport) Unwrap() http.RoundTripper { return t.next }

// RoundTrip implements http.RoundTripper.
func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.wait {
		if !t.limiter.Allow() {
			closeBody(req)
			return nil, ErrRateLimited
		}
		return t.next.RoundTrip(req)
	}

	if err := t.limiter.Wait(req.Context()); err != nil {
		closeBody(req)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		// Wait also fails when the deadline is too close to ever get a token.
		return nil, ErrRateLimited
	}
	return t.next.RoundTrip(req)
}

func (t *rateLimitTransport) stats() RateLimiterStats {
	return RateLimiterStats{
		Limit:           float64(t.limiter.Limit()),
		Burst:           t.limiter.Burst(),
		TokensAvailable: t.limiter.Tokens(),
	}
}

// RateLimiterStats returns the limiter snapshot, or false when the client
// has no rate limit.
func (c *Client) RateLimiterStats() (RateLimiterStats, bool) {
	rt := c.httpClient.Transport
	for rt != nil {
		if rl, ok := rt.(*rateLimitTransport); ok {
			return rl.stats(), true
		}
		u, ok := rt.(interface{ Unwrap() http.RoundTripper })
		if !ok {
			break
		}
		rt = u.Unwrap()
	}
	return RateLimiterStats{}, false
}
