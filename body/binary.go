package body

import (
	"bytes"
	"io"
)

// Binary is a response body declared as binary. The transport buffers the
// body, so both accessors are always available and may be called any number
// of times.
type Binary struct {
	data []byte
}

// NewBinary wraps data. The slice is not copied.
func NewBinary(data []byte) Binary {
	return Binary{data: data}
}

// Bytes returns the content.
func (b Binary) Bytes() []byte { return b.data }

// Reader returns a fresh reader over the content.
func (b Binary) Reader() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b.data))
}

// String returns the content as text.
func (b Binary) String() string { return string(b.data) }

// Len returns the content length in bytes.
func (b Binary) Len() int { return len(b.data) }

// WriteTo writes the content to w.
func (b Binary) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.data)
	return int64(n), err
}
