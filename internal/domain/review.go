package domain

import (
	"strings"
	"time"

	apperrors "github.com/utafrali/readrate/pkg/errors"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating and text for one book. A user holds at most
// one review per book.
type Review struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	BookID string    `json:"book_id"`
	Text   string    `json:"text"`
	Rating int       `json:"rating"`
	Date   time.Time `json:"date"`

	// Filled by list queries for display.
	Username  string `json:"username,omitempty"`
	BookTitle string `json:"book_title,omitempty"`
}

// ValidateReview checks the user-supplied parts of a review.
func ValidateReview(text string, rating int) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.InvalidInput("review text must not be blank")
	}
	if rating < MinRating || rating > MaxRating {
		return apperrors.InvalidInput("rating must be between 1 and 5")
	}
	return nil
}
