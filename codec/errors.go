package codec

import (
	"fmt"
	"strings"
)

// TypeResolutionError is returned when a discriminator literal matches no
// subtype of the hierarchy being decoded.
type TypeResolutionError struct {
	// Hierarchy is the name of the hierarchy that was expected.
	Hierarchy string

	// Field is the discriminator field name.
	Field string

	// Literal is the unknown discriminator value as found in the payload.
	Literal string

	// Known lists the literals the hierarchy accepts, in declaration order.
	Known []string
}

func (e *TypeResolutionError) Error() string {
	return fmt.Sprintf("codec: unknown %s %q for hierarchy %s (known: %s)",
		e.Field, e.Literal, e.Hierarchy, strings.Join(e.Known, ", "))
}

// MissingDiscriminatorError is returned when a value declared as
// hierarchy-typed carries no discriminator field.
type MissingDiscriminatorError struct {
	Hierarchy string
	Field     string
}

func (e *MissingDiscriminatorError) Error() string {
	return fmt.Sprintf("codec: missing discriminator %q for hierarchy %s", e.Field, e.Hierarchy)
}

// StructuralDecodeError is returned when a payload does not fit the declared
// type for reasons unrelated to hierarchies (syntax errors, type mismatches).
type StructuralDecodeError struct {
	// Type is the Go type that was being decoded.
	Type string
	Err  error
}

func (e *StructuralDecodeError) Error() string {
	return fmt.Sprintf("codec: cannot decode %s: %v", e.Type, e.Err)
}

func (e *StructuralDecodeError) Unwrap() error { return e.Err }

// EncodingError is returned when a value cannot be serialized for its
// declared type.
type EncodingError struct {
	Type string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("codec: cannot encode %s: %v", e.Type, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// ElementError locates a failure inside a decoded sequence. A sequence with
// one bad element fails as a whole.
type ElementError struct {
	Index int
	Err   error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

func (e *ElementError) Unwrap() error { return e.Err }
