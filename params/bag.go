package params

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/kroma-labs/restgen/codec"
)

func (e Encoder) encodeBag(out *Values, v any) error {
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return nil
	}
	if rv.Kind() != reflect.Struct {
		return &codec.EncodingError{
			Type: rv.Type().String(),
			Err:  errors.New("parameter bag must be a struct"),
		}
	}
	if err := codec.Validate(rv.Interface()); err != nil {
		return err
	}
	return e.encodeFields(out, rv)
}

func (e Encoder) encodeFields(out *Values, rv reflect.Value) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, omitEmpty, skip := fieldName(f)
		if skip {
			continue
		}
		fv := rv.Field(i)

		if f.Anonymous && name == "" {
			inner, ok := indirect(fv)
			if !ok {
				continue
			}
			if inner.Kind() == reflect.Struct {
				if err := e.encodeFields(out, inner); err != nil {
					return err
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if omitEmpty && fv.IsZero() {
			continue
		}

		inner, ok := indirect(fv)
		if ok && inner.Kind() == reflect.Struct && !isScalarStruct(inner.Type()) {
			return &codec.EncodingError{
				Type: t.String(),
				Err:  fmt.Errorf("field %s: nested struct %s cannot be a parameter", f.Name, inner.Type()),
			}
		}
		if err := e.encodeParam(out, name, fv); err != nil {
			return err
		}
	}
	return nil
}

// fieldName resolves the wire name of f from its `param` tag, falling back to
// the `json` tag.
func fieldName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag, ok := f.Tag.Lookup("param")
	if !ok {
		tag = f.Tag.Get("json")
	}
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	for _, o := range strings.Split(opts, ",") {
		if o == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

// isScalarStruct reports whether a struct type renders as a single value,
// such as time.Time.
func isScalarStruct(t reflect.Type) bool {
	return t.Implements(textMarshalerType) ||
		reflect.PointerTo(t).Implements(textMarshalerType) ||
		t.Implements(stringerType)
}
