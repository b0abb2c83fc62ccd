package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/internal/repository"
)

// ReviewInput holds the parameters shared by AddReview and EditReview.
type ReviewInput struct {
	UserID string
	BookID string
	Text   string
	Rating int
}

// ReviewService is the review ledger. Every mutation locks the affected
// books, changes the review rows, adjusts num_reviews and recomputes the
// book aggregates in one transaction.
type ReviewService struct {
	store  repository.Store
	events EventPublisher
	now    func() time.Time
	logger *slog.Logger
}

// NewReviewService creates a review ledger. A nil clock uses time.Now and a
// nil publisher drops events.
func NewReviewService(store repository.Store, events EventPublisher, now func() time.Time, logger *slog.Logger) *ReviewService {
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = NoopPublisher{}
	}
	return &ReviewService{store: store, events: events, now: now, logger: logger}
}

// AddReview records the first review of a book by a user.
func (s *ReviewService) AddReview(ctx context.Context, input ReviewInput) (_ *domain.Review, err error) {
	ctx, done := startOp(ctx, "add_review", reviewAttrs(input.UserID, input.BookID)...)
	defer func() { done(err) }()

	text := strings.TrimSpace(input.Text)
	if err := domain.ValidateReview(text, input.Rating); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:     uuid.New().String(),
		UserID: input.UserID,
		BookID: input.BookID,
		Text:   text,
		Rating: input.Rating,
		Date:   s.now().UTC(),
	}

	var agg domain.Aggregate
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := lockUserAndBook(ctx, tx, input.UserID, input.BookID); err != nil {
			return err
		}
		if err := tx.Reviews().Create(ctx, review); err != nil {
			return err
		}
		if err := tx.Users().AdjustReviewCount(ctx, input.UserID, 1); err != nil {
			return err
		}
		var txErr error
		agg, txErr = Recompute(ctx, tx, input.BookID)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	if err := s.events.ReviewCreated(ctx, review, agg); err != nil {
		s.logPublishFailure(ctx, "review.created", input.BookID, err)
	}

	s.logger.InfoContext(ctx, "review added",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.String("user_id", review.UserID),
		slog.Int("rating", review.Rating),
		slog.Int("review_count", agg.ReviewCount),
		slog.Float64("average_rating", agg.AverageRating),
	)

	return review, nil
}

// EditReview overwrites the text, rating and date of an existing review.
// num_reviews is unchanged.
func (s *ReviewService) EditReview(ctx context.Context, input ReviewInput) (_ *domain.Review, err error) {
	ctx, done := startOp(ctx, "edit_review", reviewAttrs(input.UserID, input.BookID)...)
	defer func() { done(err) }()

	text := strings.TrimSpace(input.Text)
	if err := domain.ValidateReview(text, input.Rating); err != nil {
		return nil, err
	}

	var (
		review *domain.Review
		agg    domain.Aggregate
	)
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.Books().LockForUpdate(ctx, input.BookID); err != nil {
			return err
		}
		existing, err := tx.Reviews().Get(ctx, input.UserID, input.BookID)
		if err != nil {
			return err
		}

		existing.Text = text
		existing.Rating = input.Rating
		existing.Date = s.now().UTC()
		if err := tx.Reviews().Update(ctx, existing); err != nil {
			return err
		}
		review = existing

		agg, err = Recompute(ctx, tx, input.BookID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.events.ReviewUpdated(ctx, review, agg); err != nil {
		s.logPublishFailure(ctx, "review.updated", input.BookID, err)
	}

	s.logger.InfoContext(ctx, "review edited",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.String("user_id", review.UserID),
		slog.Int("rating", review.Rating),
		slog.Float64("average_rating", agg.AverageRating),
	)

	return review, nil
}

// DeleteReview removes a user's review of a book. It returns NOT_FOUND when
// there is none.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, bookID string) (err error) {
	ctx, done := startOp(ctx, "delete_review", reviewAttrs(userID, bookID)...)
	defer func() { done(err) }()

	var agg domain.Aggregate
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := lockUserAndBook(ctx, tx, userID, bookID); err != nil {
			return err
		}
		if err := tx.Reviews().Delete(ctx, userID, bookID); err != nil {
			return err
		}
		if err := tx.Users().AdjustReviewCount(ctx, userID, -1); err != nil {
			return err
		}
		var txErr error
		agg, txErr = Recompute(ctx, tx, bookID)
		return txErr
	})
	if err != nil {
		return err
	}

	if err := s.events.ReviewDeleted(ctx, userID, bookID, agg); err != nil {
		s.logPublishFailure(ctx, "review.deleted", bookID, err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("book_id", bookID),
		slog.String("user_id", userID),
		slog.Int("review_count", agg.ReviewCount),
	)

	return nil
}

// DeleteAllForUser removes every review a user wrote and returns how many
// were removed.
func (s *ReviewService) DeleteAllForUser(ctx context.Context, userID string) (_ int, err error) {
	ctx, done := startOp(ctx, "delete_all_reviews", attribute.String("user.id", userID))
	defer func() { done(err) }()

	var (
		removed int
		books   []string
	)
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		var txErr error
		removed, books, txErr = deleteAllForUser(ctx, tx, userID)
		return txErr
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "reviews deleted for user",
		slog.String("user_id", userID),
		slog.Int("removed", removed),
		slog.Int("books_affected", len(books)),
	)

	return removed, nil
}

// deleteAllForUser runs inside tx. It returns the number of removed reviews
// and the books whose aggregates were recomputed. The user lock is taken
// before the book set is read, so no review of this user can appear between
// the read and the delete.
func deleteAllForUser(ctx context.Context, tx repository.Tx, userID string) (int, []string, error) {
	if err := tx.Users().LockForUpdate(ctx, userID); err != nil {
		return 0, nil, err
	}
	books, err := tx.Reviews().BookIDsByUser(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	if len(books) == 0 {
		return 0, books, nil
	}
	if err := tx.Books().LockForUpdate(ctx, books...); err != nil {
		return 0, nil, err
	}

	removed, err := tx.Reviews().DeleteByUser(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	if err := tx.Users().AdjustReviewCount(ctx, userID, -removed); err != nil {
		return 0, nil, err
	}

	for _, bookID := range books {
		if _, err := Recompute(ctx, tx, bookID); err != nil {
			return 0, nil, fmt.Errorf("recompute book %s: %w", bookID, err)
		}
	}
	return removed, books, nil
}

// lockUserAndBook locks the user row, then the book row. Writers that change
// a user's review set all lock in this order.
func lockUserAndBook(ctx context.Context, tx repository.Tx, userID, bookID string) error {
	if err := tx.Users().LockForUpdate(ctx, userID); err != nil {
		return err
	}
	return tx.Books().LockForUpdate(ctx, bookID)
}

func (s *ReviewService) logPublishFailure(ctx context.Context, topic, bookID string, err error) {
	s.logger.ErrorContext(ctx, "failed to publish event",
		slog.String("topic", topic),
		slog.String("book_id", bookID),
		slog.String("error", err.Error()),
	)
}

func reviewAttrs(userID, bookID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("user.id", userID),
		attribute.String("book.id", bookID),
	}
}
