package codec

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	json "github.com/goccy/go-json"
)

// std is the codec bound to Default.
var std = New(Default)

var errNilTarget = errors.New("target must be a non-nil pointer")

// Codec encodes and decodes values, consulting a Registry for hierarchies.
// A Codec holds no mutable state and is safe for concurrent use.
type Codec struct {
	reg *Registry
}

// New returns a Codec backed by reg. A nil reg means Default.
func New(reg *Registry) *Codec {
	if reg == nil {
		reg = Default
	}
	return &Codec{reg: reg}
}

// Registry returns the registry backing c.
func (c *Codec) Registry() *Registry {
	return c.reg
}

// Encode serializes v to JSON using the default codec.
func Encode(v any) ([]byte, error) {
	return std.Encode(v)
}

// Decode deserializes data into target using the default codec.
func Decode(data []byte, target any) error {
	return std.Decode(data, target)
}

// DecodeAs decodes data into a new T. A nil c means the default codec.
func DecodeAs[T any](c *Codec, data []byte) (T, error) {
	if c == nil {
		c = std
	}
	var v T
	err := c.Decode(data, &v)
	return v, err
}

// Encode serializes v to JSON.
//
// Registered subtypes carry their discriminator as the first field,
// followed by the struct's fields in declaration order. Sequences encode
// element by element so that every hierarchy value in them is tagged.
func (c *Codec) Encode(v any) ([]byte, error) {
	return c.encodeValue(reflect.ValueOf(v))
}

func (c *Codec) encodeValue(rv reflect.Value) ([]byte, error) {
	if !rv.IsValid() {
		return []byte("null"), nil
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return []byte("null"), nil
		}
		return c.encodeValue(rv.Elem())
	case reflect.Pointer:
		if rv.IsNil() {
			return []byte("null"), nil
		}
	}

	t := rv.Type()
	if ref, ok := c.reg.variantFor(t); ok {
		return c.encodeVariant(ref.schema.Field(), ref.literal, rv)
	}

	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return []byte("null"), nil
		}
		if c.needsCodec(t.Elem()) {
			return c.encodeSequence(rv)
		}
	case reflect.Array:
		if c.needsCodec(t.Elem()) {
			return c.encodeSequence(rv)
		}
	}

	if isOpen(derefType(t)) {
		return c.encodeOpen(rv)
	}
	return marshal(rv)
}

// encodeVariantIn encodes rv as a member of s, failing when rv's type is not
// one of s's subtypes.
func (c *Codec) encodeVariantIn(s Schema, rv reflect.Value) ([]byte, error) {
	for rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return []byte("null"), nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return []byte("null"), nil
	}
	st := derefType(rv.Type())
	for _, v := range s.variants() {
		if v.typ == st {
			return c.encodeVariant(s.Field(), v.literal, rv)
		}
	}
	return nil, &EncodingError{
		Type: st.String(),
		Err:  fmt.Errorf("not a subtype of %s", s.Name()),
	}
}

func (c *Codec) encodeVariant(field, literal string, rv reflect.Value) ([]byte, error) {
	var (
		obj []byte
		err error
	)
	if isOpen(derefType(rv.Type())) {
		obj, err = c.encodeOpen(rv)
	} else {
		obj, err = marshal(rv)
	}
	if err != nil {
		return nil, err
	}
	return withDiscriminator(field, literal, obj, rv.Type())
}

// withDiscriminator splices "field":"literal" in front of obj's members.
func withDiscriminator(field, literal string, obj []byte, t reflect.Type) ([]byte, error) {
	obj = bytes.TrimSpace(obj)
	if len(obj) < 2 || obj[0] != '{' || obj[len(obj)-1] != '}' {
		return nil, &EncodingError{Type: t.String(), Err: errors.New("subtype must encode as a JSON object")}
	}
	key, err := json.Marshal(field)
	if err != nil {
		return nil, &EncodingError{Type: t.String(), Err: err}
	}
	val, err := json.Marshal(literal)
	if err != nil {
		return nil, &EncodingError{Type: t.String(), Err: err}
	}

	inner := bytes.TrimSpace(obj[1 : len(obj)-1])
	out := make([]byte, 0, len(key)+len(val)+len(inner)+4)
	out = append(out, '{')
	out = append(out, key...)
	out = append(out, ':')
	out = append(out, val...)
	if len(inner) > 0 {
		out = append(out, ',')
		out = append(out, inner...)
	}
	out = append(out, '}')
	return out, nil
}

func (c *Codec) encodeSequence(rv reflect.Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := c.encodeValue(rv.Index(i))
		if err != nil {
			return nil, &ElementError{Index: i, Err: err}
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// needsCodec reports whether values of t may hold content that plain JSON
// marshaling would get wrong: hierarchy values or open objects.
func (c *Codec) needsCodec(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Pointer:
		return c.needsCodec(t.Elem())
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() != reflect.Uint8 && c.needsCodec(t.Elem())
	case reflect.Struct:
		if _, ok := c.reg.variantFor(t); ok {
			return true
		}
		return isOpen(t)
	}
	return false
}

// Decode deserializes data into target, which must be a non-nil pointer.
//
// A target whose element type is a registered hierarchy base (or a slice of
// one) is decoded polymorphically: the discriminator is read first and
// selects the concrete decoder. Every other type decodes structurally; unknown
// fields are ignored unless the type implements Open.
func (c *Codec) Decode(data []byte, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &StructuralDecodeError{
			Type: fmt.Sprintf("%T", target),
			Err:  errNilTarget,
		}
	}
	return c.decodeValue(data, rv.Elem())
}

func (c *Codec) decodeValue(data []byte, v reflect.Value) error {
	t := v.Type()

	if s, ok := c.reg.Lookup(t); ok {
		x, err := c.decodeVariant(s, data)
		if err != nil {
			return err
		}
		if x == nil {
			v.Set(reflect.Zero(t))
		} else {
			v.Set(reflect.ValueOf(x))
		}
		return nil
	}

	switch t.Kind() {
	case reflect.Slice:
		if c.needsCodec(t.Elem()) {
			return c.decodeSequence(data, v, c.decodeValue)
		}
	case reflect.Pointer:
		if c.needsCodec(t.Elem()) {
			if isNull(data) {
				v.Set(reflect.Zero(t))
				return nil
			}
			p := reflect.New(t.Elem())
			if err := c.decodeValue(data, p.Elem()); err != nil {
				return err
			}
			v.Set(p)
			return nil
		}
	case reflect.Struct:
		if isOpen(t) {
			return c.decodeOpen(data, v.Addr(), "")
		}
	}
	return unmarshal(data, v.Addr().Interface(), t)
}

// decodeVariant reads the discriminator of data and decodes it into the
// subtype it names. A JSON null yields a nil value and no error.
func (c *Codec) decodeVariant(s Schema, data []byte) (any, error) {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &StructuralDecodeError{Type: s.Base().String(), Err: err}
	}
	raw, ok := fields[s.Field()]
	if !ok {
		return nil, &MissingDiscriminatorError{Hierarchy: s.Name(), Field: s.Field()}
	}

	var literal string
	if err := json.Unmarshal(raw, &literal); err != nil {
		return nil, &TypeResolutionError{
			Hierarchy: s.Name(),
			Field:     s.Field(),
			Literal:   string(raw),
			Known:     s.Literals(),
		}
	}
	v, ok := s.resolve(literal)
	if !ok {
		return nil, &TypeResolutionError{
			Hierarchy: s.Name(),
			Field:     s.Field(),
			Literal:   literal,
			Known:     s.Literals(),
		}
	}

	p := v.newPtr()
	if isOpen(v.typ) {
		if err := c.decodeOpen(data, p, s.Field()); err != nil {
			return nil, err
		}
	} else if err := unmarshal(data, p.Interface(), v.typ); err != nil {
		return nil, err
	}
	return v.box(p), nil
}

// decodeSequence decodes a JSON array into the slice v, element by element.
// The first failing element fails the whole sequence and v is left untouched.
func (c *Codec) decodeSequence(
	data []byte,
	v reflect.Value,
	elem func(raw []byte, dst reflect.Value) error,
) error {
	if isNull(data) {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return &StructuralDecodeError{Type: v.Type().String(), Err: err}
	}

	out := reflect.MakeSlice(v.Type(), len(items), len(items))
	for i, raw := range items {
		if err := elem(raw, out.Index(i)); err != nil {
			return &ElementError{Index: i, Err: err}
		}
	}
	v.Set(out)
	return nil
}

func marshal(rv reflect.Value) ([]byte, error) {
	b, err := json.Marshal(rv.Interface())
	if err != nil {
		return nil, &EncodingError{Type: rv.Type().String(), Err: err}
	}
	return b, nil
}

func unmarshal(data []byte, ptr any, t reflect.Type) error {
	if err := json.Unmarshal(data, ptr); err != nil {
		return &StructuralDecodeError{Type: t.String(), Err: err}
	}
	return nil
}

func derefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}
