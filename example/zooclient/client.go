package zooclient

import (
	"github.com/kroma-labs/restgen/rest"
)

// Media types of the zoo API's call surfaces.
const (
	MediaJSON        = "application/json"
	MediaVndV10JSON  = "application/vnd-v1.0+json"
	MediaOctetStream = "application/octet-stream"
	MediaAny         = "*/*"
)

// Client is the root of the zoo API.
type Client struct {
	rest *rest.Client

	// Rest is the /rest resource.
	Rest RestResource
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...rest.Option) (*Client, error) {
	rc, err := rest.New(append([]rest.Option{rest.WithBaseURL(baseURL)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Client{
		rest: rc,
		Rest: RestResource{node: rc.Root().Child("rest")},
	}, nil
}

// REST returns the underlying runtime client.
func (c *Client) REST() *rest.Client { return c.rest }

// Close releases idle connections.
func (c *Client) Close() { c.rest.Close() }
