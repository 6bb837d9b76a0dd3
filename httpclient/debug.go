package httpclient

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// generateCurlCommand renders req as an equivalent cURL command line.
// Headers are sorted; textual bodies are inlined with -d and binary ones
// are elided.
//
//	curl -X PUT 'http://localhost:8080/users/1' \
//	  -H 'Content-Type: application/vnd-v1.0+json; charset=UTF-8' \
//	  -d '{"firstName":"John"}'
func generateCurlCommand(req *http.Request, body []byte) string {
	parts := []string{"curl"}

	if req.Method != http.MethodGet {
		parts = append(parts, "-X", req.Method)
	}
	parts = append(parts, shellQuote(req.URL.String()))

	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range req.Header[k] {
			parts = append(parts, "-H", shellQuote(k+": "+v))
		}
	}

	switch {
	case len(body) == 0:
	case isTextualContentType(req.Header.Get("Content-Type")):
		parts = append(parts, "-d", shellQuote(string(body)))
	default:
		parts = append(parts, "--data-binary", shellQuote(fmt.Sprintf("<%d bytes>", len(body))))
	}

	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isTextualContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return ct == "" ||
		strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "json") ||
		strings.Contains(ct, "xml") ||
		strings.HasPrefix(ct, "application/x-www-form-urlencoded")
}

func logRequest(logger zerolog.Logger, req *http.Request) {
	logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("content_type", req.Header.Get("Content-Type")).
		Str("accept", req.Header.Get("Accept")).
		Int64("content_length", req.ContentLength).
		Msg("HTTP request")
}

func logResponse(logger zerolog.Logger, req *http.Request, resp *Response, duration time.Duration) {
	logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Str("content_type", resp.Header.Get("Content-Type")).
		Int("body_size", len(resp.Bytes())).
		Dur("duration", duration).
		Msg("HTTP response")
}

func logFailure(logger zerolog.Logger, req *http.Request, err error, duration time.Duration) {
	logger.Debug().
		Err(err).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("error_type", ClassifyError(err)).
		Dur("duration", duration).
		Msg("HTTP request failed")
}
