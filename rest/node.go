package rest

import (
	"net/http"
	"net/url"
	"strings"
)

// Node is one path segment of a resource tree. Nodes are values: Child and
// the header methods return a new Node and never modify the receiver or any
// node derived from it earlier.
//
//	user := client.Root().Child("users", "42")
//	traced := user.WithHeader("X-Trace", "on")
//	// user still sends no X-Trace header.
//
// The zero Node belongs to no client: its URL is relative and building a
// request on it fails with ErrDetachedNode.
type Node struct {
	client      *Client
	segments    []string
	headers     Headers
	contentType string
	accept      string
}

// Child returns the node for the given path segments below n. Each segment
// is path-escaped, so a "/" inside a segment does not start a new one.
func (n Node) Child(segments ...string) Node {
	next := make([]string, 0, len(n.segments)+len(segments))
	next = append(next, n.segments...)
	for _, s := range segments {
		next = append(next, url.PathEscape(s))
	}
	n.segments = next
	return n
}

// WithHeader returns a node that sends value as the only value of name.
func (n Node) WithHeader(name, value string) Node {
	n.headers = n.headers.Set(name, value)
	return n
}

// AddHeader returns a node that sends value in addition to any value of name
// the node already carries.
func (n Node) AddHeader(name, value string) Node {
	n.headers = n.headers.Add(name, value)
	return n
}

// WithoutHeader returns a node that no longer overrides name.
func (n Node) WithoutHeader(name string) Node {
	n.headers = n.headers.Del(name)
	return n
}

// WithContentType returns a node whose request bodies are sent as ct.
// Generated call surfaces use it to bind a vendor media type.
func (n Node) WithContentType(ct string) Node {
	n.contentType = ct
	return n
}

// WithAccept returns a node that asks for accept.
func (n Node) WithAccept(accept string) Node {
	n.accept = accept
	return n
}

// ContentType returns the request media type selected with WithContentType.
func (n Node) ContentType() string { return n.contentType }

// Accept returns the media type selected with WithAccept.
func (n Node) Accept() string { return n.accept }

// Client returns the client the node belongs to.
func (n Node) Client() *Client { return n.client }

// Path returns the escaped path of n relative to the base URL.
func (n Node) Path() string {
	return strings.Join(n.segments, "/")
}

// URL returns the absolute URL of n.
func (n Node) URL() *url.URL {
	return n.url("")
}

// Headers returns a copy of the headers n overrides.
func (n Node) Headers() http.Header {
	return n.headers.Header()
}

func (n Node) url(rawQuery string) *url.URL {
	var u url.URL
	if n.client != nil && n.client.base != nil {
		u = *n.client.base
	}
	if len(n.segments) > 0 {
		escaped := u.EscapedPath()
		switch {
		case escaped == "" && u.Host == "":
			escaped = n.Path()
		default:
			escaped = strings.TrimSuffix(escaped, "/") + "/" + n.Path()
		}
		if p, err := url.PathUnescape(escaped); err == nil {
			u.Path, u.RawPath = p, escaped
		}
	}
	u.RawQuery = rawQuery
	return &u
}
