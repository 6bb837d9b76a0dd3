// Package rest is the execution runtime of generated REST clients.
//
// A generated client is a tree of Nodes rooted at a Client. Each node stands
// for one path segment and carries header overrides and a call surface (the
// request content type and accepted media type). Nodes are immutable values,
// so a node can be shared between goroutines and derived from without
// affecting anyone else.
//
//	client, err := rest.New(rest.WithBaseURL("http://localhost:8080/api"))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	users := client.Root().Child("users")
//	p, err := rest.Get(ctx, users, rest.JSON[[]User](),
//	    params.P("organization", []string{"ESA", "NASA"}),
//	)
//	if err != nil {
//	    return err // parameters could not be encoded; nothing was sent
//	}
//	resp, err := p.AwaitTimeout(5 * time.Second)
//
// # Outcomes
//
// Send returns synchronously with a *BuildError when the request cannot be
// built. Otherwise the request runs on its own goroutine and the Pending
// result resolves to:
//
//   - a *Response for every completed exchange, whatever its status code
//   - a *TransportError when no complete response arrived
//
// Waiting with Await or AwaitTimeout may end early with a *TimeoutError; the
// request keeps running. Response.Body decodes on first use and reports a
// *DecodeError without affecting StatusCode, Header or the raw body.
//
// KindOf tells every failure apart, including the codec errors wrapped in
// build and decode errors.
//
// # Headers
//
// Headers are merged per request, weakest first: the Accept of the declared
// result, client defaults, the node's call surface, the node's overrides and
// the call's own headers.
package rest
