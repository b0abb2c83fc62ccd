package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/utafrali/readrate/pkg/errors"
)

// SearchField selects the book column a search pattern is matched against.
type SearchField string

const (
	SearchByTitle  SearchField = "title"
	SearchByAuthor SearchField = "author"
	SearchByISBN   SearchField = "isbn"
)

// ParseSearchField validates s. An empty string selects title.
func ParseSearchField(s string) (SearchField, error) {
	switch f := SearchField(s); f {
	case "":
		return SearchByTitle, nil
	case SearchByTitle, SearchByAuthor, SearchByISBN:
		return f, nil
	default:
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown search field %q: use title, author or isbn", s))
	}
}

// Match reports whether book's field contains pattern, case-insensitively.
// Stores without SQL use it to mirror ILIKE '%pattern%'.
func (f SearchField) Match(book *Book, pattern string) bool {
	var value string
	switch f {
	case SearchByAuthor:
		value = book.Author
	case SearchByISBN:
		value = book.ISBN
	default:
		value = book.Title
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}
