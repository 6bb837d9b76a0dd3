package httpclient

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"
)

// GenerateCoalesceKey identifies requests that may share one response:
// SHA256 of the method, the URL with sorted query parameters, the headers
// that select a representation, and the body hash.
func GenerateCoalesceKey(method, rawURL string, header http.Header, body []byte) string {
	parts := []string{method}

	if u, err := url.Parse(rawURL); err == nil {
		parts = append(parts, u.Scheme+"://"+u.Host+u.Path, sortedQuery(u.Query()))
	} else {
		parts = append(parts, rawURL)
	}

	for _, name := range []string{"Accept", "Authorization", "Content-Type"} {
		parts = append(parts, name+"="+strings.Join(header.Values(name), ","))
	}

	if len(body) > 0 {
		sum := sha256.Sum256(body)
		parts = append(parts, hex.EncodeToString(sum[:]))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func sortedQuery(q url.Values) string {
	pairs := make([]string, 0, len(q))
	for k, vs := range q {
		for _, v := range vs {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// coalesceTransport lets concurrent identical GET and HEAD requests share
// one round trip. Each caller gets its own copy of the buffered response.
type coalesceTransport struct {
	next    http.RoundTripper
	group   singleflight.Group
	metrics *metrics
	cfg     *internalConfig
}

type sharedResponse struct {
	resp *http.Response
	body []byte
}

func newCoalesceTransport(next http.RoundTripper, cfg *internalConfig) http.RoundTripper {
	if !cfg.Coalesce {
		return next
	}
	return &coalesceTransport{next: next, metrics: cfg.Metrics, cfg: cfg}
}

// Unwrap returns the wrapped transport.
func (t *coalesceTransport) Unwrap() http.RoundTripper { return t.next }

// RoundTrip implements http.RoundTripper.
func (t *coalesceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.next.RoundTrip(req)
	}
	// A follower's body would never be read or closed.
	if req.Body != nil && req.Body != http.NoBody {
		return t.next.RoundTrip(req)
	}

	key := GenerateCoalesceKey(req.Method, req.URL.String(), req.Header, nil)
	v, err, shared := t.group.Do(key, func() (any, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &sharedResponse{resp: resp, body: body}, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		t.metrics.recordCoalesced(req.Context(), t.cfg.baseAttributes())
	}

	sr := v.(*sharedResponse)
	out := *sr.resp
	out.Header = sr.resp.Header.Clone()
	out.Body = io.NopCloser(bytes.NewReader(sr.body))
	out.ContentLength = int64(len(sr.body))
	out.Request = req
	return &out, nil
}
