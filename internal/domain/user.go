package domain

import (
	"time"
	"unicode/utf8"
)

// Username and password limits.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 64
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores anything longer
)

// User is a registered reader. NumReviews mirrors the number of reviews the
// user owns.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	NumReviews   int       `json:"num_reviews"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidPassword reports whether password is long enough and mixes at least
// one ASCII letter with at least one ASCII digit. Other characters are
// allowed but satisfy neither rule.
func ValidPassword(password string) bool {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || len(password) > MaxPasswordLength {
		return false
	}

	var letter, digit bool
	for _, r := range password {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
			letter = true
		case '0' <= r && r <= '9':
			digit = true
		}
	}
	return letter && digit
}
