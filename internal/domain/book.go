package domain

import (
	"fmt"
	"math"
)

// Book is a catalogue entry with its cached review aggregates.
type Book struct {
	ID            string  `json:"id"`
	ISBN          string  `json:"isbn"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Year          int     `json:"year"`
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

// StarImage returns the star bucket shown next to a rating: "no_rating" for
// an unrated book, otherwise "<n>_star" with n the rating rounded half to
// even, so 2.5 shows two stars and 3.5 shows four.
func StarImage(rating float64) string {
	if rating == 0 {
		return "no_rating"
	}
	return fmt.Sprintf("%d_star", int(math.RoundToEven(rating)))
}

// ExternalRating is the rating reported for an ISBN by the external rating
// service. Available is false when the lookup failed or found nothing.
type ExternalRating struct {
	Available     bool    `json:"available"`
	AverageRating float64 `json:"average_rating,omitempty"`
	RatingsCount  int     `json:"ratings_count,omitempty"`
}

// Unavailable is the ExternalRating returned whenever a lookup cannot answer.
var Unavailable = ExternalRating{}

// BookDetail is a book together with the presentation fields the web layer
// shows on a book page.
type BookDetail struct {
	Book
	StarImage      string         `json:"star_image"`
	ExternalRating ExternalRating `json:"external_rating"`
}
