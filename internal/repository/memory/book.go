package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/utafrali/readrate/internal/domain"
	apperrors "github.com/utafrali/readrate/pkg/errors"
	"github.com/utafrali/readrate/pkg/pagination"
)

type bookRepo struct{ v view }

func (r *bookRepo) GetByID(_ context.Context, id string) (*domain.Book, error) {
	var out *domain.Book
	err := r.v.read(func(st *state) error {
		b, ok := st.books[id]
		if !ok {
			return apperrors.NotFound("book", id)
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *bookRepo) GetByISBN(_ context.Context, isbn string) (*domain.Book, error) {
	var out *domain.Book
	err := r.v.read(func(st *state) error {
		id, ok := st.isbns[isbn]
		if !ok {
			return apperrors.NotFoundBy("book", "isbn", isbn)
		}
		b := st.books[id]
		out = &b
		return nil
	})
	return out, err
}

func (r *bookRepo) Search(_ context.Context, field domain.SearchField, pattern string, params pagination.Params) ([]domain.Book, int, error) {
	switch field {
	case domain.SearchByTitle, domain.SearchByAuthor, domain.SearchByISBN:
	default:
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown search field %q", field))
	}
	params = params.Normalize()

	var matches []domain.Book
	_ = r.v.read(func(st *state) error {
		for _, b := range st.books {
			if field.Match(&b, pattern) {
				matches = append(matches, b)
			}
		}
		return nil
	})
	slices.SortFunc(matches, func(a, b domain.Book) int {
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return page(matches, params), len(matches), nil
}

func (r *bookRepo) LockForUpdate(_ context.Context, ids ...string) error {
	return r.v.read(func(st *state) error {
		sorted := slices.Sorted(slices.Values(ids))
		for _, id := range sorted {
			if _, ok := st.books[id]; !ok {
				return apperrors.NotFound("book", id)
			}
		}
		return nil
	})
}

func (r *bookRepo) UpdateAggregate(_ context.Context, id string, agg domain.Aggregate) error {
	return r.v.read(func(st *state) error {
		b, ok := st.books[id]
		if !ok {
			return apperrors.NotFound("book", id)
		}
		b.ReviewCount = agg.ReviewCount
		b.AverageRating = agg.AverageRating
		st.books[id] = b
		return nil
	})
}

// page returns the slice of items selected by params.
func page[T any](items []T, params pagination.Params) []T {
	start := min(params.Offset(), len(items))
	end := min(start+params.PerPage, len(items))
	return items[start:end]
}
