package repository

import "crypto/rand"

// NewSessionToken returns an unguessable session token with 128 bits of
// entropy.
func NewSessionToken() string {
	return rand.Text()
}
