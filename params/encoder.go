package params

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/kroma-labs/restgen/codec"
)

// ListStyle selects how list-valued parameters are named on the wire.
type ListStyle int

const (
	// Repeated writes one name=value pair per element.
	Repeated ListStyle = iota

	// Bracketed writes one name[]=value pair per element.
	Bracketed
)

func (s ListStyle) String() string {
	switch s {
	case Repeated:
		return "repeated"
	case Bracketed:
		return "bracketed"
	default:
		return "unknown"
	}
}

// Param is a declared parameter and its typed value.
//
// Value may be a scalar (string, bool, integer, float), an enumeration (a
// type implementing encoding.TextMarshaler or fmt.Stringer, or any named
// string type), a slice or array of those, or a pointer to any of them. A nil
// Value, nil pointer or nil slice omits the parameter.
type Param struct {
	Name  string
	Value any

	bag bool
}

// P is shorthand for Param{Name: name, Value: v}.
func P(name string, v any) Param {
	return Param{Name: name, Value: v}
}

// Bag flattens the struct v into one parameter per field, in declaration
// order. Field names come from the `param` tag, falling back to the `json`
// tag and then to the field name. Nil fields and `omitempty` zero fields are
// omitted. v is validated with its `validate` tags before encoding.
func Bag(v any) Param {
	return Param{Value: v, bag: true}
}

// Encoder turns typed parameters into ordered Values.
// The zero value uses the Repeated list style.
type Encoder struct {
	Lists ListStyle
}

// Encode encodes ps in order. The first unsupported value aborts encoding
// with a *codec.EncodingError.
func (e Encoder) Encode(ps ...Param) (Values, error) {
	var out Values
	for _, p := range ps {
		var err error
		if p.bag {
			err = e.encodeBag(&out, p.Value)
		} else {
			err = e.encodeParam(&out, p.Name, reflect.ValueOf(p.Value))
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Encode encodes ps with the Repeated list style.
func Encode(ps ...Param) (Values, error) {
	return Encoder{}.Encode(ps...)
}

func (e Encoder) encodeParam(out *Values, name string, rv reflect.Value) error {
	rv, ok := indirect(rv)
	if !ok {
		return nil
	}

	if isList(rv) {
		key := name
		if e.Lists == Bracketed {
			key += "[]"
		}
		for i := 0; i < rv.Len(); i++ {
			item, ok := indirect(rv.Index(i))
			if !ok {
				continue
			}
			s, err := scalar(item)
			if err != nil {
				return &codec.EncodingError{
					Type: rv.Type().String(),
					Err:  fmt.Errorf("parameter %q: %w", name, &codec.ElementError{Index: i, Err: err}),
				}
			}
			out.Add(key, s)
		}
		return nil
	}

	s, err := scalar(rv)
	if err != nil {
		return &codec.EncodingError{
			Type: rv.Type().String(),
			Err:  fmt.Errorf("parameter %q: %w", name, err),
		}
	}
	out.Add(name, s)
	return nil
}

var (
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	stringerType      = reflect.TypeFor[fmt.Stringer]()

	errUnsupported = errors.New("unsupported parameter value")
)

// indirect strips pointers and interfaces. It reports false for nil.
func indirect(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return rv, false
		}
		if rv.Type().Implements(textMarshalerType) && rv.Kind() == reflect.Pointer {
			break
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return rv, false
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return rv, false
	}
	return rv, true
}

func isList(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Type().Elem().Kind() != reflect.Uint8
	}
	return false
}

// scalar renders a single value. Enumerations encode by label.
func scalar(rv reflect.Value) (string, error) {
	t := rv.Type()
	if t.Implements(textMarshalerType) {
		b, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
		return string(b), err
	}
	if rv.CanAddr() && reflect.PointerTo(t).Implements(textMarshalerType) {
		b, err := rv.Addr().Interface().(encoding.TextMarshaler).MarshalText()
		return string(b), err
	}
	if t.Implements(stringerType) {
		return rv.Interface().(fmt.Stringer).String(), nil
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes()), nil
		}
	}
	return "", fmt.Errorf("%w: %s", errUnsupported, t)
}
