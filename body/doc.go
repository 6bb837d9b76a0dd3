// Package body turns request payloads into transport-ready bodies.
//
// A payload is one of:
//
//   - Object: a structured value, validated and encoded by the codec
//   - Text: raw text, sent without JSON quoting
//   - Bytes, *Stream, File: binary content sent byte for byte
//   - Multipart: ordered named parts framed as multipart/form-data
//   - Form: url-encoded parameters
//
// Prepare performs all work that can fail before any network activity and
// defers opening files and claiming streams until the request is sent:
//
//	prep, err := body.Prepare(body.File("report.pdf"), "")
//	if err != nil {
//		return err // missing file, bad value, consumed stream
//	}
//	rc, err := prep.Open()
//
// Binary wraps a downloaded body for callers that declared a binary result.
package body
