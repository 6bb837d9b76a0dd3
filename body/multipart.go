package body

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Multipart is an ordered sequence of named parts sent as
// multipart/form-data.
type Multipart []Part

// Part is one entry of a Multipart body.
type Part interface {
	partName() string
	write(w *multipart.Writer) error
}

// StringPart is a plain form field.
type StringPart struct {
	Name  string
	Value string
}

// BytesPart is an in-memory file part.
type BytesPart struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

// FilePart streams a local file. The file is checked when the request is
// built and opened when it is sent.
type FilePart struct {
	Name        string
	Path        string
	ContentType string
}

// StreamPart streams a single-use reader.
type StreamPart struct {
	Name        string
	Filename    string
	ContentType string
	Stream      *Stream
}

func (p StringPart) partName() string { return p.Name }
func (p BytesPart) partName() string  { return p.Name }
func (p FilePart) partName() string   { return p.Name }
func (p StreamPart) partName() string { return p.Name }

func (p StringPart) write(w *multipart.Writer) error {
	return w.WriteField(p.Name, p.Value)
}

func (p BytesPart) write(w *multipart.Writer) error {
	pw, err := w.CreatePart(fileHeader(p.Name, p.Filename, p.ContentType))
	if err != nil {
		return err
	}
	_, err = pw.Write(p.Data)
	return err
}

func (p FilePart) write(w *multipart.Writer) error {
	f, err := os.Open(p.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	pw, err := w.CreatePart(fileHeader(p.Name, filepath.Base(p.Path), p.ContentType))
	if err != nil {
		return err
	}
	_, err = io.Copy(pw, f)
	return err
}

func (p StreamPart) write(w *multipart.Writer) error {
	rc, err := p.Stream.take()
	if err != nil {
		return err
	}
	defer rc.Close()

	pw, err := w.CreatePart(fileHeader(p.Name, p.Filename, p.ContentType))
	if err != nil {
		return err
	}
	_, err = io.Copy(pw, rc)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func fileHeader(name, filename, contentType string) textproto.MIMEHeader {
	if filename == "" {
		filename = name
	}
	if contentType == "" {
		contentType = OctetStream
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	return h
}

// newBoundary returns a random multipart boundary.
func newBoundary() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// prepareMultipart checks every part up front. Parts held in memory are
// framed immediately so the length is known; a body with file or stream
// parts is framed through a pipe while it is sent.
func prepareMultipart(m Multipart) (*Prepared, error) {
	streaming := false
	for i, p := range m {
		if p == nil {
			return nil, fmt.Errorf("body: multipart part %d is nil", i)
		}
		if p.partName() == "" {
			return nil, fmt.Errorf("body: multipart part %d has no name", i)
		}
		switch p := p.(type) {
		case FilePart:
			if _, err := checkFile(p.Path); err != nil {
				return nil, err
			}
			streaming = true
		case StreamPart:
			if p.Stream == nil || p.Stream.r == nil {
				return nil, fmt.Errorf("body: multipart part %q has no stream", p.Name)
			}
			if p.Stream.used.Load() {
				return nil, ErrConsumed
			}
			streaming = true
		}
	}

	boundary := newBoundary()
	contentType := "multipart/form-data; boundary=" + boundary

	if !streaming {
		var buf bytes.Buffer
		if err := writeParts(&buf, boundary, m); err != nil {
			return nil, err
		}
		return inMemory(contentType, buf.Bytes()), nil
	}

	return newPrepared(contentType, -1, func() (io.ReadCloser, error) {
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(writeParts(pw, boundary, m))
		}()
		return pr, nil
	}), nil
}

func writeParts(dst io.Writer, boundary string, m Multipart) error {
	w := multipart.NewWriter(dst)
	if err := w.SetBoundary(boundary); err != nil {
		return err
	}
	for i, p := range m {
		if err := p.write(w); err != nil {
			releaseStreams(m[i+1:])
			return fmt.Errorf("body: multipart part %q: %w", p.partName(), err)
		}
	}
	return w.Close()
}

// releaseStreams closes the streams of parts that will never be written.
func releaseStreams(parts []Part) {
	for _, p := range parts {
		sp, ok := p.(StreamPart)
		if !ok || sp.Stream == nil {
			continue
		}
		if rc, err := sp.Stream.take(); err == nil {
			_ = rc.Close()
		}
	}
}
