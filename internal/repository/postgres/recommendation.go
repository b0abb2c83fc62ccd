package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/pkg/database"
)

// RecommendationRepository implements repository.RecommendationRepository
// using PostgreSQL.
type RecommendationRepository struct {
	db database.DBTX
}

// NewRecommendationRepository creates a recommendation repository.
func NewRecommendationRepository(db database.DBTX) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// LikedBooks returns the books a user rated at least minRating, by title.
func (r *RecommendationRepository) LikedBooks(ctx context.Context, userID string, minRating int) ([]domain.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM reviews r
		JOIN books b ON b.id = r.book_id
		WHERE r.user_id = $1 AND r.rating >= $2
		ORDER BY b.title, b.id`

	rows, err := r.db.Query(ctx, query, userID, minRating)
	if err != nil {
		return nil, fmt.Errorf("list liked books: %w", err)
	}
	return collectBooks(rows)
}

// UnreviewedByAuthor returns up to limit random books by author that the
// user has not reviewed.
func (r *RecommendationRepository) UnreviewedByAuthor(ctx context.Context, userID, author string, limit int) ([]domain.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books b
		WHERE b.author = $2
		  AND NOT EXISTS (
		      SELECT 1 FROM reviews r WHERE r.book_id = b.id AND r.user_id = $1
		  )
		ORDER BY random()
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, userID, author, limit)
	if err != nil {
		return nil, fmt.Errorf("list books by author: %w", err)
	}
	return collectBooks(rows)
}

// NeighborFavorites ranks the books rated by the anchor's other fans.
func (r *RecommendationRepository) NeighborFavorites(ctx context.Context, userID, anchorID string, minRating, limit int) ([]domain.RankedBook, error) {
	query := `
		WITH neighbors AS (
		    SELECT user_id FROM reviews
		    WHERE book_id = $2 AND rating >= $3 AND user_id <> $1
		)
		SELECT ` + bookColumns + `,
		       SUM(r.rating) AS neighbor_sum,
		       COUNT(*) AS neighbor_ratings
		FROM reviews r
		JOIN neighbors n ON n.user_id = r.user_id
		JOIN books b ON b.id = r.book_id
		WHERE r.book_id <> $2
		  AND NOT EXISTS (
		      SELECT 1 FROM reviews mine WHERE mine.book_id = r.book_id AND mine.user_id = $1
		  )
		GROUP BY b.id
		ORDER BY SUM(r.rating)::numeric / COUNT(*) DESC, COUNT(*) DESC, b.title, b.id
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, userID, anchorID, minRating, limit)
	if err != nil {
		return nil, fmt.Errorf("rank neighbor favorites: %w", err)
	}
	defer rows.Close()

	var ranked []domain.RankedBook
	for rows.Next() {
		var (
			rb  domain.RankedBook
			sum int
		)
		if err := rows.Scan(
			&rb.ID, &rb.ISBN, &rb.Title, &rb.Author, &rb.Year, &rb.ReviewCount, &rb.AverageRating,
			&sum, &rb.NeighborRatings,
		); err != nil {
			return nil, fmt.Errorf("scan ranked book: %w", err)
		}
		rb.NeighborAverage = domain.RoundRating(sum, rb.NeighborRatings)
		ranked = append(ranked, rb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked books: %w", err)
	}
	return ranked, nil
}
