package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/pkg/database"
	apperrors "github.com/utafrali/readrate/pkg/errors"
	"github.com/utafrali/readrate/pkg/pagination"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a review repository on a pool or transaction.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. The UNIQUE(user_id, book_id) constraint decides
// races between concurrent inserts for one pair.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, book_id, text, rating, date)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query, rv.ID, rv.UserID, rv.BookID, rv.Text, rv.Rating, rv.Date)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return apperrors.DuplicateReview(rv.UserID, rv.BookID)
		case isForeignKeyViolation(err) && constraintName(err) == reviewsUserFK:
			return apperrors.NotFound("user", rv.UserID)
		case isForeignKeyViolation(err):
			return apperrors.NotFound("book", rv.BookID)
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// Get retrieves the review a user wrote for a book.
func (r *ReviewRepository) Get(ctx context.Context, userID, bookID string) (*domain.Review, error) {
	query := `
		SELECT id, user_id, book_id, text, rating, date
		FROM reviews
		WHERE user_id = $1 AND book_id = $2`

	var rv domain.Review
	err := r.db.QueryRow(ctx, query, userID, bookID).Scan(
		&rv.ID, &rv.UserID, &rv.BookID, &rv.Text, &rv.Rating, &rv.Date,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reviewNotFound(userID, bookID)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &rv, nil
}

// Update overwrites the text, rating and date of an existing review.
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	query := `
		UPDATE reviews SET text = $3, rating = $4, date = $5
		WHERE user_id = $1 AND book_id = $2`

	tag, err := r.db.Exec(ctx, query, rv.UserID, rv.BookID, rv.Text, rv.Rating, rv.Date)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return reviewNotFound(rv.UserID, rv.BookID)
	}
	return nil
}

// Delete removes the review a user wrote for a book.
func (r *ReviewRepository) Delete(ctx context.Context, userID, bookID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return reviewNotFound(userID, bookID)
	}
	return nil
}

// BookIDsByUser returns the ids of the books a user reviewed, sorted.
func (r *ReviewRepository) BookIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT book_id FROM reviews WHERE user_id = $1 ORDER BY book_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviewed books: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan book id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book ids: %w", err)
	}
	return ids, nil
}

// DeleteByUser removes every review a user wrote.
func (r *ReviewRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user reviews: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListByBook returns a page of a book's reviews with the reviewer's username.
func (r *ReviewRepository) ListByBook(ctx context.Context, bookID string, params pagination.Params) ([]domain.Review, int, error) {
	query := `
		SELECT r.id, r.user_id, r.book_id, r.text, r.rating, r.date, u.username,
		       count(*) OVER() AS total_count
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.book_id = $1
		ORDER BY r.date DESC, r.id
		LIMIT $2 OFFSET $3`

	countQuery := `SELECT COUNT(*) FROM reviews WHERE book_id = $1`

	return r.list(ctx, query, countQuery, bookID, params, func(rv *domain.Review) any { return &rv.Username })
}

// ListByUser returns a page of a user's reviews with the book title.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Review, int, error) {
	query := `
		SELECT r.id, r.user_id, r.book_id, r.text, r.rating, r.date, b.title,
		       count(*) OVER() AS total_count
		FROM reviews r
		JOIN books b ON b.id = r.book_id
		WHERE r.user_id = $1
		ORDER BY r.date DESC, r.id
		LIMIT $2 OFFSET $3`

	countQuery := `SELECT COUNT(*) FROM reviews WHERE user_id = $1`

	return r.list(ctx, query, countQuery, userID, params, func(rv *domain.Review) any { return &rv.BookTitle })
}

// list runs a paginated review query whose seventh column is the joined
// display field returned by extra. countQuery supplies the total when the
// page lies past the end and carries no window count.
func (r *ReviewRepository) list(ctx context.Context, query, countQuery, key string, params pagination.Params, extra func(*domain.Review) any) ([]domain.Review, int, error) {
	params = params.Normalize()

	rows, err := r.db.Query(ctx, query, key, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews []domain.Review
		total   int
	)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.BookID, &rv.Text, &rv.Rating, &rv.Date, extra(&rv), &total); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if len(reviews) == 0 && params.Offset() > 0 {
		if err := r.db.QueryRow(ctx, countQuery, key).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count reviews: %w", err)
		}
	}
	return reviews, total, nil
}

// Stats returns the number of reviews of a book and the sum of their ratings.
func (r *ReviewRepository) Stats(ctx context.Context, bookID string) (domain.ReviewStats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(rating), 0) FROM reviews WHERE book_id = $1`

	var s domain.ReviewStats
	if err := r.db.QueryRow(ctx, query, bookID).Scan(&s.Count, &s.Sum); err != nil {
		return domain.ReviewStats{}, fmt.Errorf("review stats: %w", err)
	}
	return s, nil
}

func reviewNotFound(userID, bookID string) *apperrors.AppError {
	return apperrors.NotFoundBy("review", "user and book", userID+"/"+bookID)
}
