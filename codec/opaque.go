package codec

import (
	"bytes"
	"sort"

	json "github.com/goccy/go-json"
)

// Opaque holds a JSON value whose shape is not described by the schema.
//
// An Opaque preserves the exact bytes it was decoded from. A present but
// empty object decodes into a non-nil *Opaque whose IsEmpty reports true,
// which keeps it distinct from an absent field.
type Opaque struct {
	raw json.RawMessage
}

// OpaqueOf wraps raw JSON. The bytes are copied.
func OpaqueOf(raw []byte) Opaque {
	return Opaque{raw: append(json.RawMessage(nil), bytes.TrimSpace(raw)...)}
}

// OpaqueValue encodes v and wraps the result.
func OpaqueValue(v any) (Opaque, error) {
	b, err := Encode(v)
	if err != nil {
		return Opaque{}, err
	}
	return Opaque{raw: b}, nil
}

// Raw returns the JSON bytes. The zero Opaque returns "null".
func (o Opaque) Raw() []byte {
	if len(o.raw) == 0 {
		return []byte("null")
	}
	return o.raw
}

func (o Opaque) String() string { return string(o.Raw()) }

// IsNull reports whether the value is JSON null or was never set.
func (o Opaque) IsNull() bool { return len(o.raw) == 0 || isNull(o.raw) }

// IsObject reports whether the value is a JSON object.
func (o Opaque) IsObject() bool { return len(o.raw) > 0 && o.raw[0] == '{' }

// IsEmpty reports whether the value is an object with no members.
func (o Opaque) IsEmpty() bool {
	if !o.IsObject() {
		return false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(o.raw, &m); err != nil {
		return false
	}
	return len(m) == 0
}

// Fields returns the member names of an object value, sorted.
func (o Opaque) Fields() []string {
	if !o.IsObject() {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(o.raw, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the member called name of an object value.
func (o Opaque) Get(name string) (Opaque, bool) {
	if !o.IsObject() {
		return Opaque{}, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(o.raw, &m); err != nil {
		return Opaque{}, false
	}
	raw, ok := m[name]
	if !ok {
		return Opaque{}, false
	}
	return Opaque{raw: raw}, true
}

// Decode decodes the value into target using the default codec, so
// hierarchy-typed targets resolve their discriminators.
func (o Opaque) Decode(target any) error {
	return Decode(o.Raw(), target)
}

func (o Opaque) MarshalJSON() ([]byte, error) {
	return o.Raw(), nil
}

func (o *Opaque) UnmarshalJSON(data []byte) error {
	// Copies of o may share the old backing array.
	o.raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}
