package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/readrate/internal/repository"
	"github.com/utafrali/readrate/pkg/database"
)

// Store implements repository.Store on a connection pool.
type Store struct {
	pool   database.Pool
	tracer *database.QueryTracer

	books   *BookRepository
	users   *UserRepository
	reviews *ReviewRepository
	recs    *RecommendationRepository
}

// NewStore builds the repositories on pool. tracer may be nil.
func NewStore(pool database.Pool, tracer *database.QueryTracer) *Store {
	return &Store{
		pool:    pool,
		tracer:  tracer,
		books:   NewBookRepository(pool),
		users:   NewUserRepository(pool),
		reviews: NewReviewRepository(pool),
		recs:    NewRecommendationRepository(pool),
	}
}

func (s *Store) Books() repository.BookRepository     { return s.books }
func (s *Store) Users() repository.UserRepository     { return s.users }
func (s *Store) Reviews() repository.ReviewRepository { return s.reviews }

func (s *Store) Recommendations() repository.RecommendationRepository { return s.recs }

// WithTx runs fn with repositories bound to a single transaction. The
// transaction is traced as one span.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	ctx, end := s.tracer.TraceQuery(ctx, "transaction", "BEGIN ... COMMIT")
	defer func() { end(err) }()

	return database.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(txRepositories{
			books:   NewBookRepository(tx),
			users:   NewUserRepository(tx),
			reviews: NewReviewRepository(tx),
		})
	})
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type txRepositories struct {
	books   *BookRepository
	users   *UserRepository
	reviews *ReviewRepository
}

func (t txRepositories) Books() repository.BookRepository     { return t.books }
func (t txRepositories) Users() repository.UserRepository     { return t.users }
func (t txRepositories) Reviews() repository.ReviewRepository { return t.reviews }
