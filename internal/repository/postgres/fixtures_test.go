package postgres

import (
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/readrate/internal/domain"
)

const (
	bookID  = "6f1c3a52-1d1f-4c55-9f1e-0c2d5d9b7a01"
	bookID2 = "6f1c3a52-1d1f-4c55-9f1e-0c2d5d9b7a02"
	userID  = "0b7e4f2a-9c8d-4e3f-8a1b-2c3d4e5f6a01"
	userID2 = "0b7e4f2a-9c8d-4e3f-8a1b-2c3d4e5f6a02"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func sampleBook() domain.Book {
	return domain.Book{
		ID:            bookID,
		ISBN:          "0380795272",
		Title:         "Krondor: The Betrayal",
		Author:        "Raymond E. Feist",
		Year:          1998,
		ReviewCount:   2,
		AverageRating: 4.5,
	}
}

var bookCols = []string{"id", "isbn", "title", "author", "year", "review_count", "average_rating"}

func bookRows(books ...domain.Book) *pgxmock.Rows {
	rows := pgxmock.NewRows(bookCols)
	for _, b := range books {
		rows.AddRow(b.ID, b.ISBN, b.Title, b.Author, b.Year, b.ReviewCount, b.AverageRating)
	}
	return rows
}

func sampleUser() *domain.User {
	return &domain.User{
		ID:           userID,
		Username:     "alice",
		PasswordHash: "$2a$12$hash",
		NumReviews:   3,
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleReview() *domain.Review {
	return &domain.Review{
		ID:     "9d8c7b6a-5f4e-4d3c-2b1a-0f9e8d7c6b01",
		UserID: userID,
		BookID: bookID,
		Text:   "Loved the ending",
		Rating: 5,
		Date:   time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}
}
