package domain

// LikedRating is the lowest rating that counts as liking a book.
const LikedRating = 4

// DefaultRecommendationLimit caps each recommendation list.
const DefaultRecommendationLimit = 6

// RankedBook is a candidate from the neighbor list with the figures it was
// ranked by.
type RankedBook struct {
	Book
	NeighborAverage float64 `json:"neighbor_average"`
	NeighborRatings int     `json:"neighbor_ratings"`
}

// Recommendations holds both lists produced for a user. An anchor is nil when
// the user has no liked book to start from.
type Recommendations struct {
	AuthorAnchor   *Book        `json:"author_anchor"`
	ByAuthor       []Book       `json:"by_author"`
	NeighborAnchor *Book        `json:"neighbor_anchor"`
	ByNeighbors    []RankedBook `json:"by_neighbors"`
}
