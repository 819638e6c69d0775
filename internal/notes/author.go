package notes

import (
	"fmt"
	"strings"
)

// Author is one of the two household identities. Values outside the known set
// can still come back from the backend; they are kept verbatim so they survive
// a round trip through update and delete.
type Author string

const (
	AuthorBen  Author = "Ben"
	AuthorWife Author = "Wife"
)

var Authors = []Author{AuthorBen, AuthorWife}

func ParseAuthor(s string) (Author, error) {
	switch a := Author(strings.TrimSpace(s)); a {
	case AuthorBen, AuthorWife:
		return a, nil
	default:
		return "", fmt.Errorf("unknown author: %q", s)
	}
}

func (a Author) Valid() bool {
	switch a {
	case AuthorBen, AuthorWife:
		return true
	default:
		return false
	}
}

// Other returns the opposite identity; anything unknown maps to Ben.
func (a Author) Other() Author {
	switch a {
	case AuthorBen:
		return AuthorWife
	case AuthorWife:
		return AuthorBen
	default:
		return AuthorBen
	}
}

func (a Author) String() string {
	return string(a)
}

type Style struct {
	Label      string
	Background string
	Foreground string
	// ANSI color code used by the terminal shell
	TermColor int
}

var defaultStyle = Style{
	Background: "gray-100",
	Foreground: "gray-700",
	TermColor:  37,
}

func (a Author) Style() Style {
	switch a {
	case AuthorBen:
		return Style{
			Label:      string(a),
			Background: "blue-100",
			Foreground: "blue-700",
			TermColor:  34,
		}
	case AuthorWife:
		return Style{
			Label:      string(a),
			Background: "pink-100",
			Foreground: "pink-700",
			TermColor:  35,
		}
	default:
		s := defaultStyle
		s.Label = string(a)
		return s
	}
}

// Filter narrows the notes list to one author, or shows everything.
type Filter string

const (
	FilterAll  Filter = "all"
	FilterBen  Filter = Filter(AuthorBen)
	FilterWife Filter = Filter(AuthorWife)
)

var Filters = []Filter{FilterAll, FilterBen, FilterWife}

func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(FilterAll)) {
		return FilterAll, nil
	}
	a, err := ParseAuthor(s)
	if err != nil {
		return "", fmt.Errorf("unknown filter: %q", s)
	}
	return Filter(a), nil
}

func FilterFor(a Author) Filter {
	if !a.Valid() {
		return FilterAll
	}
	return Filter(a)
}

// Author returns the author the filter narrows to, false for FilterAll.
func (f Filter) Author() (Author, bool) {
	a := Author(f)
	if !a.Valid() {
		return "", false
	}
	return a, true
}

func (f Filter) Label() string {
	if f == FilterAll || f == "" {
		return "All"
	}
	return string(f)
}
