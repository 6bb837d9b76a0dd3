package codec

import (
	"bytes"
	"reflect"
	"strings"
	"sync"
)

var fieldCache sync.Map // reflect.Type -> map[string]struct{}

// fieldIndex returns the lower-cased JSON names of t's fields, embedded
// structs flattened. Decoding matches names case-insensitively, so lookups
// must as well.
func fieldIndex(t reflect.Type) map[string]struct{} {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]struct{})
	}
	names := make(map[string]struct{})
	if t.Kind() == reflect.Struct {
		collectFields(t, names, map[reflect.Type]bool{})
	}
	fieldCache.Store(t, names)
	return names
}

func collectFields(t reflect.Type, names map[string]struct{}, seen map[reflect.Type]bool) {
	if seen[t] {
		return
	}
	seen[t] = true

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectFields(ft, names, seen)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names[lowerASCII(name)] = struct{}{}
	}
}

func lowerASCII(s string) string {
	return strings.ToLower(s)
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
