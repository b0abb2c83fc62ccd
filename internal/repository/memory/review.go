package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/utafrali/readrate/internal/domain"
	apperrors "github.com/utafrali/readrate/pkg/errors"
	"github.com/utafrali/readrate/pkg/pagination"
)

type reviewRepo struct{ v view }

func (r *reviewRepo) Create(_ context.Context, rv *domain.Review) error {
	return r.v.read(func(st *state) error {
		key := reviewKey{rv.UserID, rv.BookID}
		if _, ok := st.reviews[key]; ok {
			return apperrors.DuplicateReview(rv.UserID, rv.BookID)
		}
		if _, ok := st.users[rv.UserID]; !ok {
			return apperrors.NotFound("user", rv.UserID)
		}
		if _, ok := st.books[rv.BookID]; !ok {
			return apperrors.NotFound("book", rv.BookID)
		}
		stored := *rv
		stored.Username, stored.BookTitle = "", ""
		st.reviews[key] = stored
		return nil
	})
}

func (r *reviewRepo) Get(_ context.Context, userID, bookID string) (*domain.Review, error) {
	var out *domain.Review
	err := r.v.read(func(st *state) error {
		rv, ok := st.reviews[reviewKey{userID, bookID}]
		if !ok {
			return reviewNotFound(userID, bookID)
		}
		out = &rv
		return nil
	})
	return out, err
}

func (r *reviewRepo) Update(_ context.Context, rv *domain.Review) error {
	return r.v.read(func(st *state) error {
		key := reviewKey{rv.UserID, rv.BookID}
		cur, ok := st.reviews[key]
		if !ok {
			return reviewNotFound(rv.UserID, rv.BookID)
		}
		cur.Text, cur.Rating, cur.Date = rv.Text, rv.Rating, rv.Date
		st.reviews[key] = cur
		return nil
	})
}

func (r *reviewRepo) Delete(_ context.Context, userID, bookID string) error {
	return r.v.read(func(st *state) error {
		key := reviewKey{userID, bookID}
		if _, ok := st.reviews[key]; !ok {
			return reviewNotFound(userID, bookID)
		}
		delete(st.reviews, key)
		return nil
	})
}

func (r *reviewRepo) BookIDsByUser(_ context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.v.read(func(st *state) error {
		for k := range st.reviews {
			if k.userID == userID {
				ids = append(ids, k.bookID)
			}
		}
		return nil
	})
	slices.Sort(ids)
	return ids, err
}

func (r *reviewRepo) DeleteByUser(_ context.Context, userID string) (int, error) {
	n := 0
	err := r.v.read(func(st *state) error {
		for k := range st.reviews {
			if k.userID == userID {
				delete(st.reviews, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *reviewRepo) ListByBook(_ context.Context, bookID string, params pagination.Params) ([]domain.Review, int, error) {
	var out []domain.Review
	_ = r.v.read(func(st *state) error {
		for k, rv := range st.reviews {
			if k.bookID == bookID {
				rv.Username = st.users[k.userID].Username
				out = append(out, rv)
			}
		}
		return nil
	})
	sortNewestFirst(out)
	return page(out, params.Normalize()), len(out), nil
}

func (r *reviewRepo) ListByUser(_ context.Context, userID string, params pagination.Params) ([]domain.Review, int, error) {
	var out []domain.Review
	_ = r.v.read(func(st *state) error {
		for k, rv := range st.reviews {
			if k.userID == userID {
				rv.BookTitle = st.books[k.bookID].Title
				out = append(out, rv)
			}
		}
		return nil
	})
	sortNewestFirst(out)
	return page(out, params.Normalize()), len(out), nil
}

func (r *reviewRepo) Stats(_ context.Context, bookID string) (domain.ReviewStats, error) {
	var s domain.ReviewStats
	err := r.v.read(func(st *state) error {
		for k, rv := range st.reviews {
			if k.bookID == bookID {
				s.Count++
				s.Sum += rv.Rating
			}
		}
		return nil
	})
	return s, err
}

func sortNewestFirst(reviews []domain.Review) {
	slices.SortFunc(reviews, func(a, b domain.Review) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func reviewNotFound(userID, bookID string) *apperrors.AppError {
	return apperrors.NotFoundBy("review", "user and book", userID+"/"+bookID)
}
