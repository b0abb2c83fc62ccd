package service

import (
	"context"
	"fmt"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/internal/repository"
)

// Recompute derives a book's review_count and average_rating from its
// current reviews and writes them back. It must run in the transaction that
// changed the review set, after the book row was locked.
func Recompute(ctx context.Context, tx repository.Tx, bookID string) (domain.Aggregate, error) {
	stats, err := tx.Reviews().Stats(ctx, bookID)
	if err != nil {
		return domain.Aggregate{}, fmt.Errorf("review stats: %w", err)
	}

	agg := stats.Aggregate()
	if err := tx.Books().UpdateAggregate(ctx, bookID, agg); err != nil {
		return domain.Aggregate{}, fmt.Errorf("update aggregate: %w", err)
	}
	return agg, nil
}
