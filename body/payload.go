package body

import (
	"io"
	"sync/atomic"

	"github.com/kroma-labs/restgen/params"
)

// Payload is request content in one of its supported representations:
// Object, Text, Bytes, *Stream, File, Multipart, Form or FormFields.
type Payload interface {
	payload()
}

// Object is a structured value encoded by the codec.
type Object struct {
	Value any
}

// Text is sent as its raw UTF-8 bytes, never JSON-quoted.
type Text string

// Bytes is sent byte for byte.
type Bytes []byte

// File names a local file. It must exist when the request is built and is
// opened only when the request is sent.
type File string

// Form is an application/x-www-form-urlencoded body.
type Form params.Values

// FormFields is an application/x-www-form-urlencoded body encoded when the
// request is prepared, so lists follow the encoder given with WithEncoder.
type FormFields []params.Param

// NewForm encodes ps into a Form right away with the repeated list style.
// Use FormFields to follow the client's list style instead.
func NewForm(ps ...params.Param) (Form, error) {
	vals, err := params.Encode(ps...)
	if err != nil {
		return nil, err
	}
	return Form(vals), nil
}

// Stream is a single-use byte stream. Passing a Stream to a request hands
// over the right to read it; it is read to exhaustion once and closed
// afterwards if it implements io.Closer.
type Stream struct {
	r    io.Reader
	used atomic.Bool
}

// NewStream wraps r.
func NewStream(r io.Reader) *Stream {
	return &Stream{r: r}
}

// take hands out the reader exactly once.
func (s *Stream) take() (io.ReadCloser, error) {
	if !s.used.CompareAndSwap(false, true) {
		return nil, ErrConsumed
	}
	if rc, ok := s.r.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(s.r), nil
}

func (Object) payload()     {}
func (Text) payload()       {}
func (Bytes) payload()      {}
func (File) payload()       {}
func (Form) payload()       {}
func (FormFields) payload() {}
func (*Stream) payload()    {}
func (Multipart) payload()  {}
