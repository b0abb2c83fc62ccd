package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/readrate/pkg/errors"
)

func TestRoundRating(t *testing.T) {
	tests := []struct {
		name       string
		sum, count int
		want       float64
	}{
		{"empty", 0, 0, 0},
		{"negative count", 5, -1, 0},
		{"single five", 5, 1, 5},
		{"exact half", 7, 2, 3.5},
		{"thirds round down", 10, 3, 3.33},
		{"two thirds round up", 11, 3, 3.67},
		{"half cent rounds up", 667, 200, 3.34}, // 3.335
		{"all ones", 4, 4, 1},
		{"mixed", 1 + 2 + 5, 3, 2.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundRating(tt.sum, tt.count))
		})
	}
}

func TestReviewStats_Aggregate(t *testing.T) {
	agg := ReviewStats{Count: 3, Sum: 12}.Aggregate()
	assert.Equal(t, Aggregate{ReviewCount: 3, AverageRating: 4}, agg)
	assert.Equal(t, Aggregate{}, ReviewStats{}.Aggregate())
}

func TestStarImage(t *testing.T) {
	assert.Equal(t, "no_rating", StarImage(0))
	assert.Equal(t, "1_star", StarImage(1.2))
	assert.Equal(t, "2_star", StarImage(2.5))
	assert.Equal(t, "4_star", StarImage(3.5))
	assert.Equal(t, "4_star", StarImage(4.49))
	assert.Equal(t, "4_star", StarImage(4.5))
	assert.Equal(t, "5_star", StarImage(5))
}

func TestValidateReview(t *testing.T) {
	assert.NoError(t, ValidateReview("Loved it", 5))

	for _, tc := range []struct {
		text   string
		rating int
	}{
		{"", 3},
		{"   \n\t", 3},
		{"ok", 0},
		{"ok", 6},
	} {
		err := ValidateReview(tc.text, tc.rating)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	}
}

func TestValidPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"abcdefg1", true},
		{"ABCDEFG1", true},
		{"passw0rd", true},
		{"short1a", false},
		{"abcdefgh", false},
		{"12345678", false},
		{"ümlautö1", true},
		{"éèêëàâîï1", false},
		{"passwordé٣", false},
		{"пароль١٢٣", false},
		{"€€€€€€a1", true},
		{string(make([]byte, 80)), false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPassword(tt.password))
		})
	}
}

func TestParseSearchField(t *testing.T) {
	for in, want := range map[string]SearchField{
		"":       SearchByTitle,
		"title":  SearchByTitle,
		"author": SearchByAuthor,
		"isbn":   SearchByISBN,
	} {
		got, err := ParseSearchField(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseSearchField("title; DROP TABLE books")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestSearchField_Match(t *testing.T) {
	b := &Book{ISBN: "0380795272", Title: "Krondor: The Betrayal", Author: "Raymond E. Feist"}

	assert.True(t, SearchByTitle.Match(b, "krondor"))
	assert.True(t, SearchByAuthor.Match(b, "FEIST"))
	assert.True(t, SearchByISBN.Match(b, "0795"))
	assert.False(t, SearchByTitle.Match(b, "feist"))
}
