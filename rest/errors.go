package rest

import (
	"errors"
	"fmt"
	"time"

	"github.com/kroma-labs/restgen/codec"
)

// ErrDetachedNode is returned when a request is built on a Node that no
// Client created.
var ErrDetachedNode = errors.New("rest: node has no client")

// TransportError rejects a pending result when no complete response
// arrived: the connection failed, the transport timed out, the context was
// cancelled, or the breaker or rate limit refused the call.
type TransportError struct {
	Method string
	URL    string

	// Type is the httpclient.ErrorType* classification of Err.
	Type string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rest: %s %s: %s: %v", e.Method, e.URL, e.Type, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError is returned when the caller stopped waiting for a pending
// result. The request itself keeps running.
type TimeoutError struct {
	// After is the wait limit given to AwaitTimeout, or zero when the
	// waiting context ended.
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("rest: no response within %s", e.After)
	}
	return fmt.Sprintf("rest: stopped waiting for response: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// DecodeError is returned by Response.Body when the raw body does not fit
// the declared result. The response's status and raw body remain valid.
type DecodeError struct {
	StatusCode int

	// Target is the declared result type.
	Target string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rest: decoding %d response as %s: %v", e.StatusCode, e.Target, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// BuildError is returned synchronously by Send and Build when a request
// cannot be built: parameters or body could not be encoded or validated, a
// file is missing, or a stream was already consumed.
type BuildError struct {
	Method string
	Path   string
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("rest: building %s /%s: %v", e.Method, e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Kind is the failure category of an error.
type Kind int

const (
	KindNone Kind = iota
	KindTransport
	KindTimeout
	KindTypeResolution
	KindMissingDiscriminator
	KindStructuralDecode
	KindEncoding
	KindDecode
	KindBuild
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindTypeResolution:
		return "type_resolution"
	case KindMissingDiscriminator:
		return "missing_discriminator"
	case KindStructuralDecode:
		return "structural_decode"
	case KindEncoding:
		return "encoding"
	case KindDecode:
		return "decode"
	case KindBuild:
		return "build"
	default:
		return "unknown"
	}
}

// KindOf classifies err, looking through wrapping. Codec errors are reported
// by their own kind even when wrapped in a DecodeError or BuildError.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		timeoutErr   *TimeoutError
		transportErr *TransportError
		resolveErr   *codec.TypeResolutionError
		missingErr   *codec.MissingDiscriminatorError
		encodingErr  *codec.EncodingError
		structErr    *codec.StructuralDecodeError
		decodeErr    *DecodeError
		buildErr     *BuildError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &resolveErr):
		return KindTypeResolution
	case errors.As(err, &missingErr):
		return KindMissingDiscriminator
	case errors.As(err, &encodingErr):
		return KindEncoding
	case errors.As(err, &structErr):
		return KindStructuralDecode
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &buildErr):
		return KindBuild
	}
	return KindUnknown
}
