// Package codec serializes and deserializes the domain objects of a generated
// REST client, resolving polymorphic type hierarchies through a discriminator
// field.
//
// # Hierarchies
//
// A hierarchy is a Go interface implemented by one concrete struct per
// subtype. The generator binds every concrete type to the literal that
// identifies it on the wire:
//
//	type Animal interface{ isAnimal() }
//
//	type AnimalBase struct {
//	    Gender string `json:"gender"`
//	}
//
//	type Dog struct {
//	    AnimalBase
//	    CanBark bool   `json:"canBark"`
//	    Name    string `json:"name,omitempty"`
//	}
//
//	var AnimalHierarchy = codec.NewHierarchy[Animal]("Animal", "_type",
//	    codec.Case[Animal, Dog]("Dog"),
//	    codec.Case[Animal, Cat]("Cat"),
//	)
//
//	func init() { codec.Default.MustRegister(AnimalHierarchy) }
//
// Encoding a *Dog always emits the discriminator first:
//
//	{"_type":"Dog","gender":"female","canBark":true,"name":"Ziva"}
//
// Decoding into an Animal (or []Animal) reads "_type" first and fails with
// *TypeResolutionError for unknown literals and *MissingDiscriminatorError
// when the field is absent. Unknown literals never fall back to a default.
//
// Multi-level hierarchies are declared with Nest, which flattens the nested
// hierarchy's table into the parent once, at construction:
//
//	var ComicBookHierarchy = codec.NewHierarchy[ComicBookKind]("ComicBook", "kind",
//	    codec.Case[ComicBookKind, ComicBook]("ComicBook"),
//	    codec.Case[ComicBookKind, SciFiComicBook]("SciFiComicBook"),
//	)
//
//	var BookHierarchy = codec.NewHierarchy[Book]("Book", "kind",
//	    codec.Case[Book, Novel]("Novel"),
//	    codec.Nest[Book](ComicBookHierarchy),
//	)
//
// # Opaque content
//
// Fields whose shape is not declared use Opaque. A present "{}" decodes to a
// present, empty Opaque rather than nil, so callers can tell an omitted field
// from a field that carried no known content. Types implementing Open keep
// unknown keys as opaque nodes and write them back on encode.
package codec
