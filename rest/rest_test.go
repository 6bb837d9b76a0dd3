package rest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/restgen/httpclient"
)

const baseURL = "https://zoo.example.com/api"

type User struct {
	FirstName string `json:"firstName"`
	Age       int    `json:"age,omitempty"`
}

func newTestClient(t *testing.T, mock *httpclient.MockTransport, opts ...Option) *Client {
	t.Helper()
	hc := httpclient.New(httpclient.WithMockTransport(mock))
	c, err := New(append([]Option{WithHTTPClient(hc), WithBaseURL(baseURL)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func lastRequest(t *testing.T, mock *httpclient.MockTransport) *httpclient.RecordedRequest {
	t.Helper()
	req := mock.LastRequest()
	require.NotNil(t, req)
	return req
}

func okMock() *httpclient.MockTransport {
	return httpclient.NewMockTransport().StubResponse(http.StatusOK, "")
}

func okHTTPClient() *httpclient.Client {
	return httpclient.New(httpclient.WithMockTransport(okMock()))
}
