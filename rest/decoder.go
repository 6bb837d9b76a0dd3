package rest

import (
	"github.com/kroma-labs/restgen/body"
	"github.com/kroma-labs/restgen/codec"
)

// Decoder turns a raw response body into the declared result T and names
// the media type asked for when no other header source sets Accept.
type Decoder[T any] struct {
	accept string
	decode func(c *codec.Codec, data []byte) (T, error)
}

// NewDecoder returns a decoder built from fn.
func NewDecoder[T any](accept string, fn func(c *codec.Codec, data []byte) (T, error)) Decoder[T] {
	return Decoder[T]{accept: accept, decode: fn}
}

// JSON decodes with the client's codec. Hierarchy-typed results, and slices
// of them, are resolved through their discriminator.
func JSON[T any]() Decoder[T] {
	return NewDecoder("application/json", codec.DecodeAs[T])
}

// Text returns the body as a string, unquoted.
func Text() Decoder[string] {
	return NewDecoder("text/plain", func(_ *codec.Codec, data []byte) (string, error) {
		return string(data), nil
	})
}

// Binary returns a handle on the body bytes.
func Binary() Decoder[body.Binary] {
	return NewDecoder("application/octet-stream", func(_ *codec.Codec, data []byte) (body.Binary, error) {
		return body.NewBinary(data), nil
	})
}

// Empty ignores the body. It is used for verbs that declare no result.
func Empty() Decoder[struct{}] {
	return NewDecoder("*/*", func(*codec.Codec, []byte) (struct{}, error) {
		return struct{}{}, nil
	})
}

// WithAccept returns a copy of d asking for accept.
func (d Decoder[T]) WithAccept(accept string) Decoder[T] {
	d.accept = accept
	return d
}

// Accept returns the media type d asks for.
func (d Decoder[T]) Accept() string { return d.accept }

func (d Decoder[T]) run(c *codec.Codec, data []byte) (T, error) {
	if d.decode == nil {
		var zero T
		return zero, nil
	}
	return d.decode(c, data)
}
