package params

import (
	"net/url"
	"strings"
)

// Pair is one encoded name=value entry.
type Pair struct {
	Name  string
	Value string
}

// Values is an ordered list of encoded parameters. Unlike url.Values it keeps
// the order in which parameters were declared, which makes encoding
// deterministic.
type Values []Pair

// Add appends a pair.
func (v *Values) Add(name, value string) {
	*v = append(*v, Pair{Name: name, Value: value})
}

// Get returns the first value for name.
func (v Values) Get(name string) string {
	for _, p := range v {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// All returns every value for name in order.
func (v Values) All(name string) []string {
	var out []string
	for _, p := range v {
		if p.Name == name {
			out = append(out, p.Value)
		}
	}
	return out
}

// Has reports whether name occurs at least once.
func (v Values) Has(name string) bool {
	for _, p := range v {
		if p.Name == name {
			return true
		}
	}
	return false
}

// URLValues converts v to url.Values. Values sharing a name keep their order.
func (v Values) URLValues() url.Values {
	out := make(url.Values, len(v))
	for _, p := range v {
		out[p.Name] = append(out[p.Name], p.Value)
	}
	return out
}

// Query renders v as a URL query string. Spaces are written as %20.
func (v Values) Query() string {
	return v.render(queryEscape)
}

// Form renders v as an application/x-www-form-urlencoded body. Spaces are
// written as +.
func (v Values) Form() string {
	return v.render(url.QueryEscape)
}

func (v Values) render(escape func(string) string) string {
	var sb strings.Builder
	for i, p := range v {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(escape(p.Name))
		sb.WriteByte('=')
		sb.WriteString(escape(p.Value))
	}
	return sb.String()
}

func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
