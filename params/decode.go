package params

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/gorilla/schema"
	"github.com/kroma-labs/restgen/codec"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("param")
	d.IgnoreUnknownKeys(true)
	return d
}

// Parse reads a query string or form body back into ordered Values. Both list
// styles are accepted: a trailing "[]" is stripped from names. Either "+" or
// "%20" decodes to a space.
func Parse(raw string) (Values, error) {
	raw = strings.TrimPrefix(raw, "?")
	var out Values
	for raw != "" {
		var part string
		part, raw, _ = strings.Cut(raw, "&")
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		name, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("params: name %q: %w", k, err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("params: value of %q: %w", name, err)
		}
		out.Add(strings.TrimSuffix(name, "[]"), value)
	}
	return out, nil
}

// Decode fills the struct pointed to by dst from v. Fields are matched the
// way Bag names them: the `param` tag, then the `json` tag, then the field
// name. Repeated names fill slices in order, so Decode recovers what Bag
// encoded.
func Decode(v Values, dst any) error {
	src := v.URLValues()
	if t := reflect.TypeOf(dst); t != nil && t.Kind() == reflect.Pointer {
		renameKeys(src, jsonAliases(t.Elem()))
	}
	if err := decoder.Decode(dst, src); err != nil {
		return &codec.StructuralDecodeError{Type: fmt.Sprintf("%T", dst), Err: err}
	}
	return nil
}

var aliasCache sync.Map // reflect.Type -> map[string]string

// jsonAliases maps the wire names of fields named only by their `json` tag to
// the field names the schema decoder resolves.
func jsonAliases(t reflect.Type) map[string]string {
	if t.Kind() != reflect.Struct {
		return nil
	}
	if m, ok := aliasCache.Load(t); ok {
		return m.(map[string]string)
	}
	m := make(map[string]string)
	collectAliases(t, m)
	aliasCache.Store(t, m)
	return m
}

func collectAliases(t reflect.Type, m map[string]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, skip := fieldName(f)
		if skip {
			continue
		}
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectAliases(ft, m)
			}
			continue
		}
		if _, tagged := f.Tag.Lookup("param"); tagged || !f.IsExported() {
			continue
		}
		if name != "" && name != f.Name {
			m[name] = f.Name
		}
	}
}

func renameKeys(src url.Values, aliases map[string]string) {
	for wire, field := range aliases {
		vs, ok := src[wire]
		if !ok {
			continue
		}
		delete(src, wire)
		src[field] = append(src[field], vs...)
	}
}
