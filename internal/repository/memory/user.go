package memory

import (
	"context"

	"github.com/utafrali/readrate/internal/domain"
	apperrors "github.com/utafrali/readrate/pkg/errors"
)

type userRepo struct{ v view }

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	return r.v.read(func(st *state) error {
		if _, ok := st.usernames[u.Username]; ok {
			return apperrors.AlreadyExists("user", "username", u.Username)
		}
		st.users[u.ID] = *u
		st.usernames[u.Username] = u.ID
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.v.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return apperrors.NotFound("user", id)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	var out *domain.User
	err := r.v.read(func(st *state) error {
		id, ok := st.usernames[username]
		if !ok {
			return apperrors.NotFoundBy("user", "username", username)
		}
		u := st.users[id]
		out = &u
		return nil
	})
	return out, err
}

// Delete removes the user and, like the foreign key cascade, their reviews.
func (r *userRepo) Delete(_ context.Context, id string) error {
	return r.v.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return apperrors.NotFound("user", id)
		}
		for k := range st.reviews {
			if k.userID == id {
				delete(st.reviews, k)
			}
		}
		delete(st.usernames, u.Username)
		delete(st.users, id)
		return nil
	})
}

// LockForUpdate only checks existence; transactions are already serialized.
func (r *userRepo) LockForUpdate(_ context.Context, id string) error {
	return r.v.read(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return apperrors.NotFound("user", id)
		}
		return nil
	})
}

func (r *userRepo) AdjustReviewCount(_ context.Context, id string, delta int) error {
	return r.v.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return apperrors.NotFound("user", id)
		}
		u.NumReviews = max(u.NumReviews+delta, 0)
		st.users[id] = u
		return nil
	})
}
