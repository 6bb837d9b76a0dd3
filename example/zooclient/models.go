package zooclient

import (
	"github.com/kroma-labs/restgen/codec"
)

// Method is the HTTP method a Link is followed with.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPut    Method = "PUT"
	MethodPost   Method = "POST"
	MethodDelete Method = "DELETE"
	MethodSpace  Method = " "
	Method8Trees Method = "8Trees"
)

type Address struct {
	City          string `json:"city"`
	State         string `json:"state"`
	StreetAddress string `json:"streetAddress"`
}

type Link struct {
	// Accept is free-form content the schema does not describe.
	Accept *codec.Opaque `json:"accept,omitempty"`
	Href   string        `json:"href" validate:"required"`
	Method Method        `json:"method"`
}

type User struct {
	Address   *Address      `json:"address,omitempty"`
	Age       int64         `json:"age"`
	FirstName string        `json:"firstName" validate:"required"`
	HomePage  *Link         `json:"homePage,omitempty"`
	ID        string        `json:"id" validate:"required"`
	LastName  string        `json:"lastName"`
	Other     *codec.Opaque `json:"other,omitempty"`
}

// UserQuery holds the query parameters of GET /rest/user.
type UserQuery struct {
	FirstName    *string  `param:"firstName"`
	LastName     *string  `param:"lastName"`
	Organization []string `param:"organization"`
	Age          *int64   `param:"age" validate:"omitempty,gte=0"`
}

// Animal is the hierarchy discriminated by "_type".
type Animal interface {
	AnimalGender() string
}

type AnimalBase struct {
	Gender string `json:"gender"`
}

func (a AnimalBase) AnimalGender() string { return a.Gender }

type Dog struct {
	AnimalBase
	CanBark bool   `json:"canBark"`
	Name    string `json:"name,omitempty"`
}

type Cat struct {
	AnimalBase
	Name string `json:"name,omitempty"`
}

type Fish struct {
	AnimalBase
}

// Book is a two-level hierarchy: comic books form their own hierarchy
// nested inside it.
type Book interface {
	BookTitle() string
}

type BookBase struct {
	ISBN  string `json:"isbn"`
	Title string `json:"title"`
}

func (b BookBase) BookTitle() string { return b.Title }

type Novel struct {
	BookBase
	Author string `json:"author"`
}

type ComicBook interface {
	Book
	ComicHero() string
}

type Comic struct {
	BookBase
	Hero string `json:"hero"`
}

func (c Comic) ComicHero() string { return c.Hero }

type SciFiComic struct {
	Comic
	Era string `json:"era"`
}

// Profile keeps members it does not declare, so a round trip loses nothing.
type Profile struct {
	Nickname string           `json:"nickname"`
	Extra    codec.Additional `json:"-"`
}

func (p *Profile) AdditionalFields() *codec.Additional { return &p.Extra }

var (
	AnimalHierarchy = codec.NewHierarchy[Animal]("Animal", "_type",
		codec.Case[Animal, Dog]("Dog"),
		codec.Case[Animal, Cat]("Cat"),
		codec.Case[Animal, Fish]("Fish"),
	)

	ComicBookHierarchy = codec.NewHierarchy[ComicBook]("ComicBook", "kind",
		codec.Case[ComicBook, Comic]("ComicBook"),
		codec.Case[ComicBook, SciFiComic]("SciFiComicBook"),
	)

	BookHierarchy = codec.NewHierarchy[Book]("Book", "kind",
		codec.Case[Book, Novel]("Novel"),
		codec.Nest[Book](ComicBookHierarchy),
	)
)

func init() {
	codec.Default.MustRegister(AnimalHierarchy, ComicBookHierarchy, BookHierarchy)
}
