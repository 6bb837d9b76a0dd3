package codec

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"

	json "github.com/goccy/go-json"
)

// Additional holds object members that matched no declared field.
type Additional map[string]Opaque

// Open is implemented by models that keep unknown members instead of
// dropping them. Extras are captured on decode and written back, after the
// declared fields and in key order, on encode.
//
//	type Pet struct {
//		Name  string           `json:"name"`
//		Extra codec.Additional `json:"-"`
//	}
//
//	func (p *Pet) AdditionalFields() *codec.Additional { return &p.Extra }
type Open interface {
	AdditionalFields() *Additional
}

var (
	openType        = reflect.TypeFor[Open]()
	marshalerType   = reflect.TypeFor[json.Marshaler]()
	unmarshalerType = reflect.TypeFor[json.Unmarshaler]()
)

func isOpen(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(openType)
}

// decodeOpen decodes data into the struct pointed to by p and captures the
// members no field claims. skip names a member that is never captured,
// typically the discriminator.
func (c *Codec) decodeOpen(data []byte, p reflect.Value, skip string) error {
	t := p.Type().Elem()
	extras := p.Interface().(Open).AdditionalFields()

	if p.Type().Implements(unmarshalerType) {
		// The type captures its own extras, usually through UnmarshalOpen.
		if err := unmarshal(data, p.Interface(), t); err != nil {
			return err
		}
		if skip != "" && *extras != nil {
			delete(*extras, skip)
		}
		return nil
	}

	if err := unmarshal(data, p.Interface(), t); err != nil {
		return err
	}
	captured, err := captureExtras(data, t, skip)
	if err != nil {
		return &StructuralDecodeError{Type: t.String(), Err: err}
	}
	*extras = captured
	return nil
}

func captureExtras(data []byte, t reflect.Type, skip string) (Additional, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	known := fieldIndex(t)
	var extras Additional
	for k, raw := range members {
		if k == skip {
			continue
		}
		if _, ok := known[lowerASCII(k)]; ok {
			continue
		}
		if extras == nil {
			extras = make(Additional)
		}
		extras[k] = Opaque{raw: raw}
	}
	return extras, nil
}

// encodeOpen encodes the struct in rv followed by its extras.
func (c *Codec) encodeOpen(rv reflect.Value) ([]byte, error) {
	t := derefType(rv.Type())
	p := rv
	if rv.Kind() != reflect.Pointer {
		p = reflect.New(t)
		p.Elem().Set(rv)
	}

	if t.Implements(marshalerType) || p.Type().Implements(marshalerType) {
		// The type writes its own extras, usually through MarshalOpen.
		return marshal(p)
	}

	obj, err := marshal(p)
	if err != nil {
		return nil, err
	}
	extras := p.Interface().(Open).AdditionalFields()
	out, err := appendExtras(obj, t, *extras)
	if err != nil {
		return nil, &EncodingError{Type: t.String(), Err: err}
	}
	return out, nil
}

// appendExtras adds extras to the JSON object obj. Keys that collide with a
// declared field of t are dropped.
func appendExtras(obj []byte, t reflect.Type, extras Additional) ([]byte, error) {
	if len(extras) == 0 {
		return obj, nil
	}
	obj = bytes.TrimSpace(obj)
	if len(obj) < 2 || obj[0] != '{' {
		return obj, nil
	}

	known := fieldIndex(t)
	keys := make([]string, 0, len(extras))
	for k := range extras {
		if _, ok := known[lowerASCII(k)]; !ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return obj, nil
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	inner := bytes.TrimSpace(obj[1 : len(obj)-1])
	buf.WriteByte('{')
	buf.Write(inner)
	for i, k := range keys {
		if i > 0 || len(inner) > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(extras[k].Raw())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalOpen is a helper for Open types that implement UnmarshalJSON
// themselves. v must point to a method-free alias of the type so that
// decoding does not recurse.
//
//	func (p *Pet) UnmarshalJSON(data []byte) error {
//		type plain Pet
//		return codec.UnmarshalOpen(data, (*plain)(p), &p.Extra)
//	}
func UnmarshalOpen(data []byte, v any, extras *Additional) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &StructuralDecodeError{Type: fmt.Sprintf("%T", v), Err: errNilTarget}
	}
	t := rv.Type().Elem()
	if err := unmarshal(data, v, t); err != nil {
		return err
	}
	captured, err := captureExtras(data, t, "")
	if err != nil {
		return &StructuralDecodeError{Type: t.String(), Err: err}
	}
	*extras = captured
	return nil
}

// MarshalOpen is the encoding counterpart of UnmarshalOpen.
func MarshalOpen(v any, extras Additional) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return []byte("null"), nil
	}
	obj, err := marshal(rv)
	if err != nil {
		return nil, err
	}
	t := derefType(rv.Type())
	out, err := appendExtras(obj, t, extras)
	if err != nil {
		return nil, &EncodingError{Type: t.String(), Err: err}
	}
	return out, nil
}
