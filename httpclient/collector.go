package httpclient

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is the connection pool configuration of the base transport.
type PoolStats struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	DisableKeepAlives   bool
}

// PoolStats returns the pool settings, or the zero value when the base
// transport is not an *http.Transport.
func (c *Client) PoolStats() PoolStats {
	t := unwrapTransport(c.httpClient.Transport)
	if t == nil {
		return PoolStats{}
	}
	return PoolStats{
		MaxIdleConns:        t.MaxIdleConns,
		MaxIdleConnsPerHost: t.MaxIdleConnsPerHost,
		MaxConnsPerHost:     t.MaxConnsPerHost,
		IdleConnTimeout:     t.IdleConnTimeout,
		DisableKeepAlives:   t.DisableKeepAlives,
	}
}

// unwrapTransport follows Unwrap through the chain to the pooled
// *http.Transport.
func unwrapTransport(rt http.RoundTripper) *http.Transport {
	for {
		switch t := rt.(type) {
		case *http.Transport:
			return t
		case interface{ Unwrap() http.RoundTripper }:
			rt = t.Unwrap()
		default:
			return nil
		}
	}
}

// clientStats counts exchanges for the Prometheus collector.
type clientStats struct {
	inFlight atomic.Int64

	mu        sync.Mutex
	responses map[string]uint64 // by status code
	failures  map[string]uint64 // by error type
}

func newClientStats() *clientStats {
	return &clientStats{
		responses: make(map[string]uint64),
		failures:  make(map[string]uint64),
	}
}

func (s *clientStats) begin() { s.inFlight.Add(1) }

func (s *clientStats) end(resp *Response, err error) {
	s.inFlight.Add(-1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failures[ClassifyError(err)]++
		return
	}
	s.responses[strconv.Itoa(resp.StatusCode)]++
}

var (
	inFlightDesc = prometheus.NewDesc(
		"restgen_client_in_flight_requests",
		"Requests currently being sent or awaiting a response.",
		[]string{"client"}, nil,
	)
	responsesDesc = prometheus.NewDesc(
		"restgen_client_responses_total",
		"Completed exchanges by HTTP status code.",
		[]string{"client", "code"}, nil,
	)
	failuresDesc = prometheus.NewDesc(
		"restgen_client_transport_failures_total",
		"Exchanges that ended without a response, by error type.",
		[]string{"client", "error_type"}, nil,
	)
	poolDesc = prometheus.NewDesc(
		"restgen_client_pool_limit",
		"Connection pool limits of the base transport.",
		[]string{"client", "limit"}, nil,
	)
)

type collector struct {
	client *Client
	name   string
}

// Collector exposes in-flight requests, response and failure counts, and
// pool limits to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(client.Collector())
func (c *Client) Collector() prometheus.Collector {
	return &collector{client: c, name: c.config.breakerName()}
}

// Describe implements prometheus.Collector.
func (col *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- inFlightDesc
	ch <- responsesDesc
	ch <- failuresDesc
	ch <- poolDesc
}

// Collect implements prometheus.Collector.
func (col *collector) Collect(ch chan<- prometheus.Metric) {
	s := col.client.stats

	ch <- prometheus.MustNewConstMetric(inFlightDesc, prometheus.GaugeValue,
		float64(s.inFlight.Load()), col.name)

	s.mu.Lock()
	for code, n := range s.responses {
		ch <- prometheus.MustNewConstMetric(responsesDesc, prometheus.CounterValue,
			float64(n), col.name, code)
	}
	for typ, n := range s.failures {
		ch <- prometheus.MustNewConstMetric(failuresDesc, prometheus.CounterValue,
			float64(n), col.name, typ)
	}
	s.mu.Unlock()

	if t := unwrapTransport(col.client.httpClient.Transport); t != nil {
		for limit, v := range map[string]int{
			"max_idle_conns":          t.MaxIdleConns,
			"max_idle_conns_per_host": t.MaxIdleConnsPerHost,
			"max_conns_per_host":      t.MaxConnsPerHost,
		} {
			ch <- prometheus.MustNewConstMetric(poolDesc, prometheus.GaugeValue,
				float64(v), col.name, limit)
		}
	}
}
