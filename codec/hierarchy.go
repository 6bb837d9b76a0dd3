package codec

import (
	"fmt"
	"reflect"
)

// Schema is the type-erased view of a Hierarchy used by Registry and Codec.
type Schema interface {
	// Name is the hierarchy name used in error messages.
	Name() string

	// Field is the discriminator field name.
	Field() string

	// Literals returns the accepted discriminator literals in declaration order.
	Literals() []string

	// Base is the interface type every subtype implements.
	Base() reflect.Type

	resolve(literal string) (*variant, bool)
	variants() []*variant
}

// variant binds one discriminator literal to one concrete struct type.
type variant struct {
	literal string
	typ     reflect.Type

	// ptr reports whether *typ (rather than typ) implements the base interface.
	ptr bool
}

// newPtr allocates a *typ ready for decoding.
func (v *variant) newPtr() reflect.Value {
	return reflect.New(v.typ)
}

// box converts a decoded *typ into the value stored in the base interface.
func (v *variant) box(p reflect.Value) any {
	if v.ptr {
		return p.Interface()
	}
	return p.Elem().Interface()
}

// Binding contributes variants to a hierarchy under construction.
// Use Case for a concrete subtype and Nest for a nested hierarchy.
type Binding[B any] interface {
	bind(h *Hierarchy[B])
}

type bindingFunc[B any] func(h *Hierarchy[B])

func (f bindingFunc[B]) bind(h *Hierarchy[B]) { f(h) }

// Hierarchy is an explicit discriminator table for the interface type B.
//
// The table is built once by NewHierarchy and never changes afterwards, so a
// Hierarchy is safe for concurrent use.
type Hierarchy[B any] struct {
	name      string
	field     string
	base      reflect.Type
	byLiteral map[string]*variant
	order     []*variant
}

// NewHierarchy builds the discriminator table for B.
//
// B must be an interface type. NewHierarchy panics on conflicting bindings:
// a literal bound to two different types, or a subtype that declares the
// discriminator field itself. Both are generator bugs, not runtime conditions.
func NewHierarchy[B any](name, field string, bindings ...Binding[B]) *Hierarchy[B] {
	base := reflect.TypeFor[B]()
	if base.Kind() != reflect.Interface {
		panic(fmt.Sprintf("codec: hierarchy %s: base %s is not an interface", name, base))
	}
	if field == "" {
		panic(fmt.Sprintf("codec: hierarchy %s: empty discriminator field", name))
	}

	h := &Hierarchy[B]{
		name:      name,
		field:     field,
		base:      base,
		byLiteral: make(map[string]*variant),
	}
	for _, b := range bindings {
		b.bind(h)
	}
	return h
}

// Case binds the concrete struct type T to literal. Either T or *T must
// implement B. An empty literal defaults to T's type name.
func Case[B, T any](literal string) Binding[B] {
	return bindingFunc[B](func(h *Hierarchy[B]) {
		typ := reflect.TypeFor[T]()
		if typ.Kind() != reflect.Struct {
			panic(fmt.Sprintf("codec: hierarchy %s: case %s is not a struct", h.name, typ))
		}
		if literal == "" {
			literal = typ.Name()
		}
		h.add(&variant{literal: literal, typ: typ})
	})
}

// Nest adds every subtype of sub to the hierarchy being built. Every nested
// subtype must also implement B.
func Nest[B, S any](sub *Hierarchy[S]) Binding[B] {
	return bindingFunc[B](func(h *Hierarchy[B]) {
		if sub.field != h.field {
			panic(fmt.Sprintf("codec: hierarchy %s: nested %s uses discriminator %q, want %q",
				h.name, sub.name, sub.field, h.field))
		}
		for _, v := range sub.order {
			h.add(&variant{literal: v.literal, typ: v.typ})
		}
	})
}

func (h *Hierarchy[B]) add(v *variant) {
	switch {
	case v.typ.Implements(h.base):
		v.ptr = false
	case reflect.PointerTo(v.typ).Implements(h.base):
		v.ptr = true
	default:
		panic(fmt.Sprintf("codec: hierarchy %s: %s does not implement %s", h.name, v.typ, h.base))
	}

	if _, clash := fieldIndex(v.typ)[lowerASCII(h.field)]; clash {
		panic(fmt.Sprintf("codec: hierarchy %s: %s declares discriminator field %q",
			h.name, v.typ, h.field))
	}

	if existing, ok := h.byLiteral[v.literal]; ok {
		if existing.typ != v.typ {
			panic(fmt.Sprintf("codec: hierarchy %s: literal %q bound to both %s and %s",
				h.name, v.literal, existing.typ, v.typ))
		}
		return
	}
	h.byLiteral[v.literal] = v
	h.order = append(h.order, v)
}

// Name implements Schema.
func (h *Hierarchy[B]) Name() string { return h.name }

// Field implements Schema.
func (h *Hierarchy[B]) Field() string { return h.field }

// Base implements Schema.
func (h *Hierarchy[B]) Base() reflect.Type { return h.base }

// Literals implements Schema.
func (h *Hierarchy[B]) Literals() []string {
	out := make([]string, len(h.order))
	for i, v := range h.order {
		out[i] = v.literal
	}
	return out
}

func (h *Hierarchy[B]) resolve(literal string) (*variant, bool) {
	v, ok := h.byLiteral[literal]
	return v, ok
}

func (h *Hierarchy[B]) variants() []*variant { return h.order }

// LiteralOf returns the discriminator literal of value's concrete type.
func (h *Hierarchy[B]) LiteralOf(value B) (string, bool) {
	t := reflect.TypeOf(value)
	if t == nil {
		return "", false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, v := range h.order {
		if v.typ == t {
			return v.literal, true
		}
	}
	return "", false
}

// Decode decodes a single hierarchy value using the default codec.
func (h *Hierarchy[B]) Decode(data []byte) (B, error) {
	return h.DecodeWith(std, data)
}

// DecodeWith decodes a single hierarchy value using c for nested content.
func (h *Hierarchy[B]) DecodeWith(c *Codec, data []byte) (B, error) {
	var zero B
	x, err := c.decodeVariant(h, data)
	if err != nil || x == nil {
		return zero, err
	}
	return x.(B), nil
}

// DecodeSlice decodes a sequence of hierarchy values. Each element is decoded
// independently and the first failure fails the whole sequence.
func (h *Hierarchy[B]) DecodeSlice(data []byte) ([]B, error) {
	var out []B
	if err := std.decodeSequence(data, reflect.ValueOf(&out).Elem(), func(raw []byte, dst reflect.Value) error {
		x, err := std.decodeVariant(h, raw)
		if err != nil {
			return err
		}
		if x != nil {
			dst.Set(reflect.ValueOf(x))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// Encode encodes value with its discriminator using the default codec.
func (h *Hierarchy[B]) Encode(value B) ([]byte, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return []byte("null"), nil
	}
	return std.encodeVariantIn(h, rv)
}
