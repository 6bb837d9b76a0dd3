package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, rt http.RoundTripper, method, target, body string) (*http.Response, error) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, target, r)
	require.NoError(t, err)
	return rt.RoundTrip(req)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestMockTransport_Stubs(t *testing.T) {
	mock := NewMockTransport().
		StubPath("/users/1", http.StatusOK, `{"firstName":"John"}`).
		StubPathRegex(`^/animals/\d+$`, http.StatusOK, `{"name":"Bob"}`).
		StubMethod(http.MethodDelete, http.StatusAccepted, "").
		StubFuncResponse(
			func(r *http.Request) bool { return r.URL.Path == "/blob" },
			http.StatusOK,
			http.Header{"Content-Type": {"application/octet-stream"}},
			[]byte{0, 1, 2},
		).
		StubFuncError(
			func(r *http.Request) bool { return r.URL.Path == "/down" },
			errors.New("connection refused"),
		).
		StubResponse(http.StatusNotFound, "missing")

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
		wantErr    bool
	}{
		{"given an exact path, then its stub answers", http.MethodGet, "/users/1", http.StatusOK, `{"firstName":"John"}`, false},
		{"given a path matching a pattern, then its stub answers", http.MethodGet, "/animals/42", http.StatusOK, `{"name":"Bob"}`, false},
		{"given a method stub, then it answers", http.MethodDelete, "/users/9", http.StatusAccepted, "", false},
		{"given a binary stub, then its bytes are returned", http.MethodGet, "/blob", http.StatusOK, "\x00\x01\x02", false},
		{"given an error stub, then it fails", http.MethodGet, "/down", 0, "", true},
		{"given no matching stub, then the fallback answers", http.MethodGet, "/nowhere", http.StatusNotFound, "missing", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := roundTrip(t, mock, tt.method, "https://zoo.example.com"+tt.path, "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, readBody(t, resp))
		})
	}
}

func TestMockTransport_NoStub(t *testing.T) {
	_, err := roundTrip(t, NewMockTransport(), http.MethodGet, "https://zoo.example.com/x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stub for GET https://zoo.example.com/x")
}

func TestMockTransport_RequestTracking(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusOK, "")
	assert.Nil(t, mock.LastRequest())

	resp, err := roundTrip(t, mock, http.MethodPost, "https://zoo.example.com/users", `["1","2"]`)
	require.NoError(t, err)
	_ = resp.Body.Close()
	resp, err = roundTrip(t, mock, http.MethodGet, "https://zoo.example.com/users", "")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, 2, mock.RequestCount())
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, `["1","2"]`, string(reqs[0].Body))
	assert.Equal(t, http.MethodGet, mock.LastRequest().Method)

	mock.Reset()
	assert.Zero(t, mock.RequestCount())
	_, err = roundTrip(t, mock, http.MethodGet, "https://zoo.example.com/users", "")
	assert.Error(t, err)
}

func TestMockTransport_OnRequest(t *testing.T) {
	t.Run("given a hook, then it sees each request", func(t *testing.T) {
		var paths []string
		mock := NewMockTransport().
			StubResponse(http.StatusOK, "").
			OnRequest(func(r *http.Request) { paths = append(paths, r.URL.Path) })

		for _, p := range []string{"/a", "/b"} {
			resp, err := roundTrip(t, mock, http.MethodGet, "https://zoo.example.com"+p, "")
			require.NoError(t, err)
			_ = resp.Body.Close()
		}
		assert.Equal(t, []string{"/a", "/b"}, paths)
	})

	t.Run("given a context cancelled while held, then the request fails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		mock := NewMockTransport().
			StubResponse(http.StatusOK, "").
			OnRequest(func(*http.Request) { cancel() })

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://zoo.example.com/slow", nil)
		require.NoError(t, err)
		_, err = mock.RoundTrip(req)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
