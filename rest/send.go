package rest

import (
	"context"
	"net/http"

	"github.com/kroma-labs/restgen/body"
	"github.com/kroma-labs/restgen/httpclient"
	"github.com/kroma-labs/restgen/params"
)

// Send builds call against n and sends it on a new goroutine. Build errors
// are returned immediately and nothing is sent. ctx governs the request
// itself; cancelling it aborts the exchange.
//
//	p, err := rest.Send(ctx, users.Child("42"), rest.Call{Method: http.MethodGet}, rest.JSON[User]())
//	if err != nil {
//	    return err // *BuildError
//	}
//	resp, err := p.AwaitTimeout(5 * time.Second)
func Send[T any](ctx context.Context, n Node, call Call, dec Decoder[T]) (*Pending[T], error) {
	req, err := n.build(call, dec.Accept())
	if err != nil {
		return nil, err
	}

	c := n.client
	p := newPending[T]()
	go func() {
		raw, err := c.exchange(ctx, req)
		if err != nil {
			p.resolve(nil, err)
			return
		}
		p.resolve(newResponse(raw, dec, c), nil)
	}()
	return p, nil
}

// Get sends a GET with the given query parameters.
func Get[T any](ctx context.Context, n Node, dec Decoder[T], query ...params.Param) (*Pending[T], error) {
	return Send(ctx, n, Call{Method: http.MethodGet, Query: query}, dec)
}

// Post sends payload with POST.
func Post[T any](
	ctx context.Context,
	n Node,
	payload body.Payload,
	dec Decoder[T],
	query ...params.Param,
) (*Pending[T], error) {
	return Send(ctx, n, Call{Method: http.MethodPost, Query: query, Body: payload}, dec)
}

// Put sends payload with PUT.
func Put[T any](
	ctx context.Context,
	n Node,
	payload body.Payload,
	dec Decoder[T],
	query ...params.Param,
) (*Pending[T], error) {
	return Send(ctx, n, Call{Method: http.MethodPut, Query: query, Body: payload}, dec)
}

// Delete sends a DELETE.
func Delete[T any](ctx context.Context, n Node, dec Decoder[T], query ...params.Param) (*Pending[T], error) {
	return Send(ctx, n, Call{Method: http.MethodDelete, Query: query}, dec)
}

// exchange opens the request body and hands the request to the transport.
func (c *Client) exchange(ctx context.Context, req *Request) (*httpclient.Response, error) {
	hr, err := req.httpRequest(ctx)
	if err == nil {
		var resp *httpclient.Response
		resp, err = c.http.Send(ctx, hr)
		if err == nil {
			return resp, nil
		}
	}

	te := &TransportError{
		Method: req.Method,
		URL:    req.URL.String(),
		Type:   httpclient.ClassifyError(err),
		Err:    err,
	}
	c.logger.Debug().
		Err(err).
		Str("method", te.Method).
		Str("url", te.URL).
		Str("error_type", te.Type).
		Msg("rest: request failed")
	return nil, te
}
