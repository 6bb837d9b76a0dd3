package codec

import (
	"fmt"
	"reflect"
	"sync"
)

// Default is the registry used by the package-level Encode and Decode
// functions and by Poly. Generated packages register their hierarchies into
// it from init.
var Default = NewRegistry()

// Registry indexes hierarchies by base interface and by concrete subtype.
type Registry struct {
	mu       sync.RWMutex
	bases    map[reflect.Type]Schema
	variants map[reflect.Type]variantRef
}

type variantRef struct {
	schema  Schema
	literal string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bases:    make(map[reflect.Type]Schema),
		variants: make(map[reflect.Type]variantRef),
	}
}

// Register adds s to the registry.
//
// A subtype may belong to several hierarchies (a nested hierarchy and its
// parent) as long as every hierarchy agrees on its discriminator field and
// literal. Register changes nothing when it returns an error.
func (r *Registry) Register(s Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.bases[s.Base()]; ok && existing != s {
		return fmt.Errorf("codec: base %s already registered by hierarchy %s", s.Base(), existing.Name())
	}
	for _, v := range s.variants() {
		ref, ok := r.variants[v.typ]
		if !ok {
			continue
		}
		if ref.schema.Field() != s.Field() || ref.literal != v.literal {
			return fmt.Errorf("codec: %s bound as %s=%q by %s and %s=%q by %s",
				v.typ, ref.schema.Field(), ref.literal, ref.schema.Name(),
				s.Field(), v.literal, s.Name())
		}
	}

	r.bases[s.Base()] = s
	for _, v := range s.variants() {
		if _, ok := r.variants[v.typ]; !ok {
			r.variants[v.typ] = variantRef{schema: s, literal: v.literal}
		}
	}
	return nil
}

// MustRegister registers every schema and panics on the first conflict.
func (r *Registry) MustRegister(schemas ...Schema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the hierarchy whose base interface is t.
func (r *Registry) Lookup(t reflect.Type) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.bases[t]
	return s, ok
}

// variantFor returns the binding of the struct type t (pointers are
// dereferenced).
func (r *Registry) variantFor(t reflect.Type) (variantRef, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.variants[t]
	return ref, ok
}
