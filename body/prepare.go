package body

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kroma-labs/restgen/codec"
	"github.com/kroma-labs/restgen/params"
)

// Default content types per payload kind.
const (
	JSON        = "application/json"
	PlainText   = "text/plain"
	OctetStream = "application/octet-stream"
	URLEncoded  = "application/x-www-form-urlencoded"
)

// ErrConsumed is returned when a single-use body is opened a second time.
var ErrConsumed = errors.New("body: already consumed")

// Prepared is a payload ready for transmission.
type Prepared struct {
	// ContentType is the value of the Content-Type header.
	ContentType string

	// ContentLength is the body size in bytes, or -1 when unknown.
	ContentLength int64

	open   func() (io.ReadCloser, error)
	opened atomic.Bool
	data   []byte
	memory bool
}

func newPrepared(contentType string, length int64, open func() (io.ReadCloser, error)) *Prepared {
	return &Prepared{ContentType: contentType, ContentLength: length, open: open}
}

func inMemory(contentType string, data []byte) *Prepared {
	p := newPrepared(contentType, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
	p.data, p.memory = data, true
	return p
}

// Bytes returns the encoded body when it is held in memory. File, stream
// and streamed multipart bodies report false.
func (p *Prepared) Bytes() ([]byte, bool) {
	return p.data, p.memory
}

// Replay returns a fresh reader over an in-memory body without consuming
// the single Open. It reports false for bodies that can only be read once.
func (p *Prepared) Replay() (io.ReadCloser, bool) {
	if !p.memory {
		return nil, false
	}
	return io.NopCloser(bytes.NewReader(p.data)), true
}

// Open returns the body reader. It may be called once; files are opened and
// streams claimed only at this point.
func (p *Prepared) Open() (io.ReadCloser, error) {
	if !p.opened.CompareAndSwap(false, true) {
		return nil, ErrConsumed
	}
	return p.open()
}

// Option adjusts how Prepare renders a payload.
type Option func(*options)

type options struct {
	codec   *codec.Codec
	encoder params.Encoder
	charset string
}

// WithCodec encodes Object payloads with c instead of the default codec.
func WithCodec(c *codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithEncoder encodes FormFields payloads with e. The default uses the
// repeated list style.
func WithEncoder(e params.Encoder) Option {
	return func(o *options) { o.encoder = e }
}

// WithCharset appends "; charset=cs" to textual content types that carry no
// charset yet. Multipart and binary types are left alone.
func WithCharset(cs string) Option {
	return func(o *options) { o.charset = cs }
}

// Prepare converts p into transport-ready form. contentType overrides the
// payload kind's default; it is taken from the call surface.
//
// Everything that can fail without network activity fails here: encoding,
// validation and missing files.
func Prepare(p Payload, contentType string, opts ...Option) (*Prepared, error) {
	o := options{codec: codec.New(nil)}
	for _, opt := range opts {
		opt(&o)
	}

	prep, err := prepare(p, contentType, o)
	if err != nil {
		return nil, err
	}
	prep.ContentType = withCharset(prep.ContentType, o.charset)
	return prep, nil
}

func prepare(p Payload, contentType string, o options) (*Prepared, error) {
	ct := func(def string) string {
		if contentType != "" {
			return contentType
		}
		return def
	}

	switch p := p.(type) {
	case nil:
		return nil, errors.New("body: nil payload")

	case Object:
		if err := codec.Validate(p.Value); err != nil {
			return nil, err
		}
		data, err := o.codec.Encode(p.Value)
		if err != nil {
			return nil, err
		}
		return inMemory(ct(JSON), data), nil

	case Text:
		return inMemory(ct(PlainText), []byte(p)), nil

	case Bytes:
		return inMemory(ct(OctetStream), p), nil

	case Form:
		return inMemory(ct(URLEncoded), []byte(params.Values(p).Form())), nil

	case FormFields:
		vals, err := o.encoder.Encode(p...)
		if err != nil {
			return nil, err
		}
		return inMemory(ct(URLEncoded), []byte(vals.Form())), nil

	case File:
		path := string(p)
		info, err := checkFile(path)
		if err != nil {
			return nil, err
		}
		return newPrepared(ct(OctetStream), info.Size(), func() (io.ReadCloser, error) {
			return os.Open(path)
		}), nil

	case *Stream:
		if p == nil || p.r == nil {
			return nil, errors.New("body: nil stream")
		}
		if p.used.Load() {
			return nil, ErrConsumed
		}
		return newPrepared(ct(OctetStream), -1, p.take), nil

	case Multipart:
		prep, err := prepareMultipart(p)
		if err != nil {
			return nil, err
		}
		return prep, nil

	default:
		return nil, fmt.Errorf("body: unsupported payload %T", p)
	}
}

func checkFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("body: %s is a directory", path)
	}
	return info, nil
}

// withCharset appends a charset parameter to textual media types.
func withCharset(contentType, charset string) string {
	if charset == "" || contentType == "" {
		return contentType
	}
	mt, ps, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	if _, ok := ps["charset"]; ok || !IsTextual(mt) {
		return contentType
	}
	return contentType + "; charset=" + charset
}

// IsTextual reports whether the media type mt carries text: text/*, JSON
// (including +json vendor types), XML and url-encoded forms.
func IsTextual(mt string) bool {
	mt = strings.ToLower(mt)
	switch {
	case strings.HasPrefix(mt, "text/"),
		mt == JSON, strings.HasSuffix(mt, "+json"),
		mt == "application/xml", strings.HasSuffix(mt, "+xml"),
		mt == URLEncoded:
		return true
	}
	return false
}
