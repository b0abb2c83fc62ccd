package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/internal/repository"
	"github.com/utafrali/readrate/pkg/pagination"
)

// RatingLookup reports the rating an external site gives a book. It never
// fails; it answers domain.Unavailable instead.
type RatingLookup interface {
	Lookup(ctx context.Context, isbn string) domain.ExternalRating
}

// SearchInput holds the parameters for SearchBooks.
type SearchInput struct {
	Field  string
	Query  string
	Params pagination.Params
}

// BookService serves catalogue reads.
type BookService struct {
	store   repository.Store
	ratings RatingLookup
	logger  *slog.Logger
}

// NewBookService creates a book service.
func NewBookService(store repository.Store, ratings RatingLookup, logger *slog.Logger) *BookService {
	return &BookService{store: store, ratings: ratings, logger: logger}
}

// GetBook returns a book with its star bucket and, when the external site
// answers, its external rating.
func (s *BookService) GetBook(ctx context.Context, id string) (*domain.BookDetail, error) {
	book, err := s.store.Books().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	external := domain.Unavailable
	if s.ratings != nil {
		external = s.ratings.Lookup(ctx, book.ISBN)
	}

	return &domain.BookDetail{
		Book:           *book,
		StarImage:      domain.StarImage(book.AverageRating),
		ExternalRating: external,
	}, nil
}

// GetBookByISBN returns the book with the given ISBN.
func (s *BookService) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return s.store.Books().GetByISBN(ctx, strings.TrimSpace(isbn))
}

// SearchBooks matches the query as a case-insensitive substring of the
// chosen field. An empty query lists the whole catalogue by title.
func (s *BookService) SearchBooks(ctx context.Context, input SearchInput) (pagination.Result[domain.Book], error) {
	field, err := domain.ParseSearchField(input.Field)
	if err != nil {
		return pagination.Result[domain.Book]{}, err
	}

	params := input.Params.Normalize()
	books, total, err := s.store.Books().Search(ctx, field, strings.TrimSpace(input.Query), params)
	if err != nil {
		return pagination.Result[domain.Book]{}, fmt.Errorf("search books: %w", err)
	}
	return pagination.NewResult(books, total, params), nil
}

// ListReviewsForBook returns a page of the book's reviews, newest first.
func (s *BookService) ListReviewsForBook(ctx context.Context, bookID string, params pagination.Params) (pagination.Result[domain.Review], error) {
	if _, err := s.store.Books().GetByID(ctx, bookID); err != nil {
		return pagination.Result[domain.Review]{}, err
	}

	params = params.Normalize()
	reviews, total, err := s.store.Reviews().ListByBook(ctx, bookID, params)
	if err != nil {
		return pagination.Result[domain.Review]{}, fmt.Errorf("list book reviews: %w", err)
	}
	return pagination.NewResult(reviews, total, params), nil
}

// ListReviewsForUser returns a page of the user's reviews, newest first.
func (s *BookService) ListReviewsForUser(ctx context.Context, userID string, params pagination.Params) (pagination.Result[domain.Review], error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return pagination.Result[domain.Review]{}, err
	}

	params = params.Normalize()
	reviews, total, err := s.store.Reviews().ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Result[domain.Review]{}, fmt.Errorf("list user reviews: %w", err)
	}
	return pagination.NewResult(reviews, total, params), nil
}
