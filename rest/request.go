package rest

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/kroma-labs/restgen/body"
	"github.com/kroma-labs/restgen/params"
)

// Call describes one invocation of a verb on a node.
type Call struct {
	// Method defaults to GET.
	Method string

	// Query parameters, encoded in order with the client's list style.
	Query []params.Param

	// Body is the request payload, or nil.
	Body body.Payload

	// Header overrides every other header source for this call only.
	Header http.Header
}

// Request is a fully built request. Nothing has been sent and no file or
// stream has been opened yet.
type Request struct {
	Method string
	URL    *url.URL

	// Header is the merged header set. From weakest to strongest: the
	// declared result's Accept, client defaults, the call surface's content
	// type and accept, node overrides and call overrides.
	Header http.Header

	// Body is nil for requests without payload.
	Body *body.Prepared
}

// Build validates and encodes call against n. Every error that can occur
// without network activity is returned here.
func (n Node) Build(call Call) (*Request, error) {
	return n.build(call, "")
}

func (n Node) build(call Call, accept string) (*Request, error) {
	c := n.client
	method := call.Method
	if method == "" {
		method = http.MethodGet
	}
	if c == nil {
		return nil, &BuildError{Method: method, Path: n.Path(), Err: ErrDetachedNode}
	}

	query, err := c.encoder.Encode(call.Query...)
	if err != nil {
		return nil, &BuildError{Method: method, Path: n.Path(), Err: err}
	}

	var prep *body.Prepared
	if call.Body != nil {
		prep, err = body.Prepare(call.Body, n.contentType,
			body.WithCodec(c.codec),
			body.WithEncoder(c.encoder),
			body.WithCharset(c.charset),
		)
		if err != nil {
			return nil, &BuildError{Method: method, Path: n.Path(), Err: err}
		}
	}

	h := make(http.Header)
	if accept != "" {
		h.Set("Accept", accept)
	}
	c.defaults.applyTo(h)
	if n.accept != "" {
		h.Set("Accept", n.accept)
	}
	if prep != nil {
		h.Set("Content-Type", prep.ContentType)
	}
	n.headers.applyTo(h)
	NewHeaders(call.Header).applyTo(h)

	return &Request{
		Method: method,
		URL:    n.url(query.Query()),
		Header: h,
		Body:   prep,
	}, nil
}

// httpRequest opens the body and converts r for the transport. In-memory
// bodies can be replayed through GetBody.
func (r *Request) httpRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header = r.Header.Clone()

	if r.Body == nil {
		return req, nil
	}

	rc, err := r.Body.Open()
	if err != nil {
		return nil, err
	}
	if r.Body.ContentLength == 0 {
		_ = rc.Close()
		req.Body = http.NoBody
		return req, nil
	}

	req.Body = rc
	req.ContentLength = r.Body.ContentLength
	if _, ok := r.Body.Replay(); ok {
		prep := r.Body
		req.GetBody = func() (io.ReadCloser, error) {
			rc, _ := prep.Replay()
			return rc, nil
		}
	}
	return req, nil
}
