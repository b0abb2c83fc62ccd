// Package memory is an in-process implementation of the catalogue store used
// for development and service tests. Transactions serialize on one mutex and
// restore a snapshot when they fail.
package memory

import (
	"context"
	"maps"
	"math/rand/v2"
	"sync"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/internal/repository"
	apperrors "github.com/utafrali/readrate/pkg/errors"
)

type reviewKey struct {
	userID, bookID string
}

type state struct {
	books     map[string]domain.Book
	isbns     map[string]string
	users     map[string]domain.User
	usernames map[string]string
	reviews   map[reviewKey]domain.Review
}

func newState() *state {
	return &state{
		books:     make(map[string]domain.Book),
		isbns:     make(map[string]string),
		users:     make(map[string]domain.User),
		usernames: make(map[string]string),
		reviews:   make(map[reviewKey]domain.Review),
	}
}

func (s *state) clone() *state {
	return &state{
		books:     maps.Clone(s.books),
		isbns:     maps.Clone(s.isbns),
		users:     maps.Clone(s.users),
		usernames: maps.Clone(s.usernames),
		reviews:   maps.Clone(s.reviews),
	}
}

// Store implements repository.Store in memory.
type Store struct {
	mu      sync.Mutex
	st      *state
	shuffle func(n int, swap func(i, j int))
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{st: newState(), shuffle: rand.Shuffle}
}

// SetShuffle replaces the shuffle used for random result order.
func (s *Store) SetShuffle(shuffle func(n int, swap func(i, j int))) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuffle = shuffle
}

// AddBook inserts a catalogue entry. It stands in for the bulk import that
// fills the Postgres catalogue.
func (s *Store) AddBook(b domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.books[b.ID]; ok {
		return apperrors.AlreadyExists("book", "id", b.ID)
	}
	if _, ok := s.st.isbns[b.ISBN]; ok {
		return apperrors.AlreadyExists("book", "isbn", b.ISBN)
	}
	s.st.books[b.ID] = b
	s.st.isbns[b.ISBN] = b.ID
	return nil
}

func (s *Store) Books() repository.BookRepository     { return &bookRepo{view{s, false}} }
func (s *Store) Users() repository.UserRepository     { return &userRepo{view{s, false}} }
func (s *Store) Reviews() repository.ReviewRepository { return &reviewRepo{view{s, false}} }

func (s *Store) Recommendations() repository.RecommendationRepository {
	return &recommendationRepo{view{s, false}}
}

// WithTx runs fn holding the store lock. Any error restores the state that
// was current before fn started. fn must only use the repositories of tx.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return apperrors.StoreUnavailable(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	v := view{s, true}
	if err := fn(txRepos{
		books:   &bookRepo{v},
		users:   &userRepo{v},
		reviews: &reviewRepo{v},
	}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

type txRepos struct {
	books   *bookRepo
	users   *userRepo
	reviews *reviewRepo
}

func (t txRepos) Books() repository.BookRepository     { return t.books }
func (t txRepos) Users() repository.UserRepository     { return t.users }
func (t txRepos) Reviews() repository.ReviewRepository { return t.reviews }

// view gives a repository access to the state. Inside WithTx the lock is
// already held.
type view struct {
	store *Store
	inTx  bool
}

func (v view) read(fn func(st *state) error) error {
	if !v.inTx {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	return fn(v.store.st)
}
