package rest

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/kroma-labs/restgen/codec"
	"github.com/kroma-labs/restgen/httpclient"
	"github.com/kroma-labs/restgen/params"
)

type config struct {
	HTTPClient     *httpclient.Client
	HTTPOptions    []httpclient.Option
	BaseURL        string
	Codec          *codec.Codec
	ListStyle      params.ListStyle
	RequestCharset string
	DefaultHeaders http.Header
	Logger         zerolog.Logger
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		Codec:          codec.New(nil),
		ListStyle:      params.Bracketed,
		DefaultHeaders: make(http.Header),
		Logger:         zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Logger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures a Client.
type Option func(*config)

// WithHTTPClient sends every request through hc. The Client does not take
// ownership: Close still releases hc's idle connections, but hc stays usable.
// Without this option New builds an httpclient.Client from the options
// passed to WithTransportOptions.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *config) { c.HTTPClient = hc }
}

// WithTransportOptions configures the httpclient.Client that New builds when
// no WithHTTPClient is given.
func WithTransportOptions(opts ...httpclient.Option) Option {
	return func(c *config) { c.HTTPOptions = append(c.HTTPOptions, opts...) }
}

// WithBaseURL sets the URL that the root node stands for.
func WithBaseURL(base string) Option {
	return func(c *config) { c.BaseURL = base }
}

// WithCodec encodes object bodies and decodes JSON responses with cc.
// Use it to bind a registry holding the API's hierarchies.
func WithCodec(cc *codec.Codec) Option {
	return func(c *config) {
		if cc != nil {
			c.Codec = cc
		}
	}
}

// WithListStyle selects how list-valued query and form parameters are named.
// The default is params.Bracketed.
func WithListStyle(s params.ListStyle) Option {
	return func(c *config) { c.ListStyle = s }
}

// WithRequestCharset appends "; charset=cs" to textual request content types.
func WithRequestCharset(cs string) Option {
	return func(c *config) { c.RequestCharset = cs }
}

// WithDefaultHeaders adds headers sent with every request unless a call
// surface, node or call sets them.
func WithDefaultHeaders(h http.Header) Option {
	return func(c *config) {
		for k, vs := range h {
			for _, v := range vs {
				c.DefaultHeaders.Add(k, v)
			}
		}
	}
}

// WithDefaultHeader adds one default header value.
func WithDefaultHeader(name, value string) Option {
	return func(c *config) { c.DefaultHeaders.Add(name, value) }
}

// WithLogger sets the logger used for transport and decode failures, which
// are logged at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.Logger = l }
}
