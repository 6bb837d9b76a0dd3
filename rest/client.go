package rest

import (
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/kroma-labs/restgen/codec"
	"github.com/kroma-labs/restgen/httpclient"
	"github.com/kroma-labs/restgen/params"
)

// Client is the root of a generated resource tree. It holds the settings
// shared by every node: the transport, the codec, the parameter list style,
// the request charset and the default headers.
//
// A Client is safe for concurrent use.
type Client struct {
	http     *httpclient.Client
	base     *url.URL
	codec    *codec.Codec
	encoder  params.Encoder
	charset  string
	defaults Headers
	logger   zerolog.Logger
}

// New creates a Client.
//
//	client, err := rest.New(
//	    rest.WithBaseURL("http://localhost:8080/api"),
//	    rest.WithCodec(codec.New(zoo.Registry)),
//	    rest.WithRequestCharset("UTF-8"),
//	)
//	users := client.Root().Child("users")
//
// The base URL defaults to the one of the httpclient.Client, if any.
func New(opts ...Option) (*Client, error) {
	cfg := newConfig(opts...)

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpclient.New(cfg.HTTPOptions...)
	}

	raw := cfg.BaseURL
	if raw == "" {
		raw = hc.BaseURL()
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("rest: invalid base URL %q: %w", raw, err)
	}

	return &Client{
		http:     hc,
		base:     base,
		codec:    cfg.Codec,
		encoder:  params.Encoder{Lists: cfg.ListStyle},
		charset:  cfg.RequestCharset,
		defaults: NewHeaders(cfg.DefaultHeaders),
		logger:   cfg.Logger,
	}, nil
}

// Root returns the node for the base URL.
func (c *Client) Root() Node {
	return Node{client: c}
}

// HTTP returns the transport client.
func (c *Client) HTTP() *httpclient.Client {
	return c.http
}

// Codec returns the codec used for object bodies and JSON responses.
func (c *Client) Codec() *codec.Codec {
	return c.codec
}

// Close releases idle connections. Pending requests complete normally.
func (c *Client) Close() {
	c.http.Close()
}
