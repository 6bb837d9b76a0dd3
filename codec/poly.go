package codec

import "reflect"

// Poly carries a hierarchy value inside an ordinary struct field, so that
// plain JSON marshaling of the enclosing model still writes and reads the
// discriminator. Hierarchies are resolved through Default.
//
//	type Zoo struct {
//		Mascot codec.Poly[Animal]     `json:"mascot"`
//		Pets   codec.PolyList[Animal] `json:"pets"`
//	}
type Poly[B any] struct {
	Value B
}

// PolyOf wraps v.
func PolyOf[B any](v B) Poly[B] { return Poly[B]{Value: v} }

func (p Poly[B]) MarshalJSON() ([]byte, error) {
	return std.Encode(p.Value)
}

func (p *Poly[B]) UnmarshalJSON(data []byte) error {
	return std.decodeValue(data, reflect.ValueOf(&p.Value).Elem())
}

// PolyList is a sequence of hierarchy values usable as a struct field.
type PolyList[B any] []B

func (l PolyList[B]) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	return std.encodeSequence(reflect.ValueOf([]B(l)))
}

func (l *PolyList[B]) UnmarshalJSON(data []byte) error {
	var out []B
	if err := std.decodeSequence(data, reflect.ValueOf(&out).Elem(), std.decodeValue); err != nil {
		return err
	}
	*l = out
	return nil
}
