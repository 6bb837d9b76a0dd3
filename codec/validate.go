package codec

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the `validate` tags of a struct value before it is put on
// the wire. Non-struct values are accepted as is. Violations are reported as
// an *EncodingError wrapping validator.ValidationErrors.
func Validate(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(rv.Interface()); err != nil {
		return &EncodingError{Type: rv.Type().String(), Err: err}
	}
	return nil
}
