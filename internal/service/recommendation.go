package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/internal/repository"
)

// Picker returns an index in [0, n).
type Picker func(n int) int

// RecommendationService builds the two recommendation lists for a user. It
// only reads from the store.
type RecommendationService struct {
	recs   repository.RecommendationRepository
	pick   Picker
	limit  int
	logger *slog.Logger
}

// NewRecommendationService creates a recommendation service returning up to
// limit books per list. A nil picker chooses anchors uniformly at random.
func NewRecommendationService(recs repository.RecommendationRepository, pick Picker, limit int, logger *slog.Logger) *RecommendationService {
	if pick == nil {
		pick = rand.IntN
	}
	if limit <= 0 {
		limit = domain.DefaultRecommendationLimit
	}
	return &RecommendationService{recs: recs, pick: pick, limit: limit, logger: logger}
}

// RecommendForUser picks two anchors among the books the user rated highly
// and returns more books by the first anchor's author and the favorites of
// other users who also liked the second anchor. Both lists are empty when
// the user has no highly rated book.
func (s *RecommendationService) RecommendForUser(ctx context.Context, userID string) (*domain.Recommendations, error) {
	result := &domain.Recommendations{
		ByAuthor:    []domain.Book{},
		ByNeighbors: []domain.RankedBook{},
	}

	liked, err := s.recs.LikedBooks(ctx, userID, domain.LikedRating)
	if err != nil {
		return nil, fmt.Errorf("liked books: %w", err)
	}
	if len(liked) == 0 {
		return result, nil
	}

	authorAnchor := liked[s.pick(len(liked))]
	byAuthor, err := s.recs.UnreviewedByAuthor(ctx, userID, authorAnchor.Author, s.limit)
	if err != nil {
		return nil, fmt.Errorf("books by author: %w", err)
	}
	result.AuthorAnchor = &authorAnchor
	if len(byAuthor) > 0 {
		result.ByAuthor = byAuthor
	}

	neighborAnchor := liked[s.pick(len(liked))]
	byNeighbors, err := s.recs.NeighborFavorites(ctx, userID, neighborAnchor.ID, domain.LikedRating, s.limit)
	if err != nil {
		return nil, fmt.Errorf("neighbor favorites: %w", err)
	}
	result.NeighborAnchor = &neighborAnchor
	if len(byNeighbors) > 0 {
		result.ByNeighbors = byNeighbors
	}

	s.logger.DebugContext(ctx, "recommendations built",
		slog.String("user_id", userID),
		slog.String("author_anchor", authorAnchor.ID),
		slog.String("neighbor_anchor", neighborAnchor.ID),
		slog.Int("by_author", len(result.ByAuthor)),
		slog.Int("by_neighbors", len(result.ByNeighbors)),
	)

	return result, nil
}
