package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/utafrali/readrate/internal/domain"
)

type recommendationRepo struct{ v view }

func (r *recommendationRepo) LikedBooks(_ context.Context, userID string, minRating int) ([]domain.Book, error) {
	var liked []domain.Book
	_ = r.v.read(func(st *state) error {
		for k, rv := range st.reviews {
			if k.userID == userID && rv.Rating >= minRating {
				liked = append(liked, st.books[k.bookID])
			}
		}
		return nil
	})
	slices.SortFunc(liked, byTitle)
	return liked, nil
}

func (r *recommendationRepo) UnreviewedByAuthor(_ context.Context, userID, author string, limit int) ([]domain.Book, error) {
	var candidates []domain.Book
	_ = r.v.read(func(st *state) error {
		for _, b := range st.books {
			if b.Author != author {
				continue
			}
			if _, reviewed := st.reviews[reviewKey{userID, b.ID}]; reviewed {
				continue
			}
			candidates = append(candidates, b)
		}
		slices.SortFunc(candidates, byTitle)
		r.v.store.shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		return nil
	})
	return head(candidates, limit), nil
}

func (r *recommendationRepo) NeighborFavorites(_ context.Context, userID, anchorID string, minRating, limit int) ([]domain.RankedBook, error) {
	type tally struct{ sum, count int }
	tallies := make(map[string]*tally)
	var ranked []domain.RankedBook

	_ = r.v.read(func(st *state) error {
		neighbors := make(map[string]struct{})
		for k, rv := range st.reviews {
			if k.bookID == anchorID && k.userID != userID && rv.Rating >= minRating {
				neighbors[k.userID] = struct{}{}
			}
		}

		for k, rv := range st.reviews {
			if _, ok := neighbors[k.userID]; !ok || k.bookID == anchorID {
				continue
			}
			if _, mine := st.reviews[reviewKey{userID, k.bookID}]; mine {
				continue
			}
			t := tallies[k.bookID]
			if t == nil {
				t = &tally{}
				tallies[k.bookID] = t
			}
			t.sum += rv.Rating
			t.count++
		}

		for id, t := range tallies {
			ranked = append(ranked, domain.RankedBook{
				Book:            st.books[id],
				NeighborAverage: domain.RoundRating(t.sum, t.count),
				NeighborRatings: t.count,
			})
		}
		return nil
	})

	slices.SortFunc(ranked, func(a, b domain.RankedBook) int {
		ta, tb := tallies[a.ID], tallies[b.ID]
		// Compare exact means sum/count by cross-multiplying.
		if c := cmp.Compare(tb.sum*ta.count, ta.sum*tb.count); c != 0 {
			return c
		}
		if c := cmp.Compare(tb.count, ta.count); c != 0 {
			return c
		}
		return byTitle(a.Book, b.Book)
	})
	return head(ranked, limit), nil
}

func byTitle(a, b domain.Book) int {
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func head[T any](items []T, n int) []T {
	return items[:max(0, min(n, len(items)))]
}
