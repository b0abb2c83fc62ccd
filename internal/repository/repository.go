package repository

import (
	"context"
	"time"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/pkg/pagination"
)

// BookRepository defines book persistence. Books are imported out of band, so
// there is no Create or Delete.
type BookRepository interface {
	// GetByID returns the book or a NOT_FOUND error.
	GetByID(ctx context.Context, id string) (*domain.Book, error)

	// GetByISBN returns the book with the given ISBN or a NOT_FOUND error.
	GetByISBN(ctx context.Context, isbn string) (*domain.Book, error)

	// Search matches pattern as a case-insensitive substring of field,
	// ordered by title, and returns one page plus the total match count.
	Search(ctx context.Context, field domain.SearchField, pattern string, params pagination.Params) ([]domain.Book, int, error)

	// LockForUpdate row-locks the given books in id order. It returns
	// NOT_FOUND if any of them does not exist.
	LockForUpdate(ctx context.Context, ids ...string) error

	// UpdateAggregate overwrites the cached review aggregates of a book.
	UpdateAggregate(ctx context.Context, id string, agg domain.Aggregate) error
}

// UserRepository defines user persistence.
type UserRepository interface {
	// Create inserts a user. A taken username yields ALREADY_EXISTS.
	Create(ctx context.Context, user *domain.User) error

	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Delete removes the user row; reviews cascade.
	Delete(ctx context.Context, id string) error

	// AdjustReviewCount adds delta to num_reviews, never going below zero.
	AdjustReviewCount(ctx context.Context, id string, delta int) error

	// LockForUpdate row-locks the user or returns NOT_FOUND. Every change to
	// a user's review set takes this lock before any book lock.
	LockForUpdate(ctx context.Context, id string) error
}

// ReviewRepository defines review persistence. Reviews are addressed by
// their (user, book) pair.
type ReviewRepository interface {
	// Create inserts a review. A second review for the same pair yields
	// DUPLICATE_REVIEW.
	Create(ctx context.Context, review *domain.Review) error

	Get(ctx context.Context, userID, bookID string) (*domain.Review, error)

	// Update overwrites text, rating and date of an existing review.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes the pair's review or returns NOT_FOUND.
	Delete(ctx context.Context, userID, bookID string) error

	// BookIDsByUser lists the distinct books a user has reviewed.
	BookIDsByUser(ctx context.Context, userID string) ([]string, error)

	// DeleteByUser removes every review of a user and returns how many.
	DeleteByUser(ctx context.Context, userID string) (int, error)

	// ListByBook returns a page of a book's reviews, newest first, with
	// usernames filled in.
	ListByBook(ctx context.Context, bookID string, params pagination.Params) ([]domain.Review, int, error)

	// ListByUser returns a page of a user's reviews, newest first, with book
	// titles filled in.
	ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Review, int, error)

	// Stats returns count and rating sum over a book's reviews.
	Stats(ctx context.Context, bookID string) (domain.ReviewStats, error)
}

// RecommendationRepository holds the read-only queries behind
// recommendations.
type RecommendationRepository interface {
	// LikedBooks returns the books userID rated at least minRating.
	LikedBooks(ctx context.Context, userID string, minRating int) ([]domain.Book, error)

	// UnreviewedByAuthor returns up to limit books by author that userID has
	// not reviewed, in random order.
	UnreviewedByAuthor(ctx context.Context, userID, author string, limit int) ([]domain.Book, error)

	// NeighborFavorites finds the users other than userID who rated anchorID
	// at least minRating, then ranks the books they rated, excluding the
	// anchor and anything userID reviewed, by their average neighbor rating
	// (descending), number of neighbor ratings (descending) and title.
	NeighborFavorites(ctx context.Context, userID, anchorID string, minRating, limit int) ([]domain.RankedBook, error)
}

// Tx is the set of repositories bound to one transaction.
type Tx interface {
	Books() BookRepository
	Users() UserRepository
	Reviews() ReviewRepository
}

// Store is the catalogue store. Its own repositories run outside any
// transaction; WithTx runs fn atomically and rolls back when fn fails.
type Store interface {
	Tx
	Recommendations() RecommendationRepository
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}

// SessionStore maps opaque session tokens to user ids.
type SessionStore interface {
	// Create starts a session for userID that expires after ttl.
	Create(ctx context.Context, userID string, ttl time.Duration) (string, error)

	// Resolve returns the session's user id or NOT_FOUND.
	Resolve(ctx context.Context, token string) (string, error)

	// Delete ends one session. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error

	// DeleteAllForUser ends every session of userID.
	DeleteAllForUser(ctx context.Context, userID string) error
}
