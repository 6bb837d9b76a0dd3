package rest

import (
	"net/http"
	"net/textproto"
)

// Headers is an immutable header set. Set, Add and Del return a new Headers
// and never change the receiver, so a Headers value may be shared freely
// between nodes and goroutines.
type Headers struct {
	h http.Header
}

// NewHeaders copies h.
func NewHeaders(h http.Header) Headers {
	return Headers{h: h.Clone()}
}

func (hs Headers) with(name string, fn func(http.Header, string)) Headers {
	out := hs.h.Clone()
	if out == nil {
		out = make(http.Header)
	}
	fn(out, name)
	return Headers{h: out}
}

// Set returns a copy in which name holds only value.
func (hs Headers) Set(name, value string) Headers {
	return hs.with(name, func(h http.Header, n string) { h.Set(n, value) })
}

// Add returns a copy in which value follows the existing values of name.
func (hs Headers) Add(name, value string) Headers {
	return hs.with(name, func(h http.Header, n string) { h.Add(n, value) })
}

// Del returns a copy without name.
func (hs Headers) Del(name string) Headers {
	return hs.with(name, func(h http.Header, n string) { h.Del(n) })
}

// Get returns the first value of name.
func (hs Headers) Get(name string) string {
	return hs.h.Get(name)
}

// Values returns a copy of all values of name.
func (hs Headers) Values(name string) []string {
	vs := hs.h.Values(name)
	if vs == nil {
		return nil
	}
	return append([]string(nil), vs...)
}

// Has reports whether name is present.
func (hs Headers) Has(name string) bool {
	_, ok := hs.h[textproto.CanonicalMIMEHeaderKey(name)]
	return ok
}

// Len returns the number of distinct names.
func (hs Headers) Len() int {
	return len(hs.h)
}

// Header returns a mutable copy.
func (hs Headers) Header() http.Header {
	out := hs.h.Clone()
	if out == nil {
		out = make(http.Header)
	}
	return out
}

// Merge returns a copy of hs in which every name present in over takes the
// values of over.
func (hs Headers) Merge(over Headers) Headers {
	if over.Len() == 0 {
		return hs
	}
	out := hs.Header()
	over.applyTo(out)
	return Headers{h: out}
}

// applyTo replaces the values of dst for every name in hs.
func (hs Headers) applyTo(dst http.Header) {
	for k, vs := range hs.h {
		dst[k] = append([]string(nil), vs...)
	}
}
