package rest

import (
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/kroma-labs/restgen/codec"
	"github.com/kroma-labs/restgen/httpclient"
)

// Response is a completed exchange with a result declared as T. Any status
// code produces a Response. The raw body is always available; Body decodes
// it on first use and caches the outcome.
type Response[T any] struct {
	StatusCode int
	Status     string

	// Header keeps every value of repeated headers in arrival order.
	Header http.Header

	raw    *httpclient.Response
	dec    Decoder[T]
	codec  *codec.Codec
	logger zerolog.Logger

	once  sync.Once
	value T
	err   error
	state atomic.Int32
}

func newResponse[T any](raw *httpclient.Response, dec Decoder[T], c *Client) *Response[T] {
	r := &Response[T]{
		StatusCode: raw.StatusCode,
		Status:     raw.Status,
		Header:     raw.Header,
		raw:        raw,
		dec:        dec,
		codec:      c.codec,
		logger:     c.logger,
	}
	r.state.Store(int32(StateCompleted))
	return r
}

// Bytes returns the raw body.
func (r *Response[T]) Bytes() []byte { return r.raw.Bytes() }

// String returns the raw body as text.
func (r *Response[T]) String() string { return r.raw.String() }

// IsSuccess reports a 2xx status.
func (r *Response[T]) IsSuccess() bool { return r.raw.IsSuccess() }

// Raw returns the transport response, which also carries the cURL command
// and timing breakdown when the transport records them.
func (r *Response[T]) Raw() *httpclient.Response { return r.raw }

// Body decodes the raw body as T. It decodes once; later calls return the
// same value or *DecodeError.
func (r *Response[T]) Body() (T, error) {
	r.once.Do(func() {
		r.value, r.err = r.dec.run(r.codec, r.raw.Bytes())
		if r.err == nil {
			r.state.Store(int32(StateDecodedOK))
			return
		}
		r.err = &DecodeError{
			StatusCode: r.StatusCode,
			Target:     reflect.TypeFor[T]().String(),
			Err:        r.err,
		}
		r.state.Store(int32(StateDecodeFailed))
		r.logger.Debug().
			Err(r.err).
			Int("status", r.StatusCode).
			Str("kind", KindOf(r.err).String()).
			Msg("rest: response body not decoded")
	})
	return r.value, r.err
}

// DecodeState returns StateCompleted until Body is called, then
// StateDecodedOK or StateDecodeFailed.
func (r *Response[T]) DecodeState() State {
	return State(r.state.Load())
}
