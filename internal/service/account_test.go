package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/readrate/internal/repository/memory"
	apperrors "github.com/utafrali/readrate/pkg/errors"
)

type accountFixture struct {
	svc      *AccountService
	ledger   *ReviewService
	store    *memory.Store
	sessions *memory.SessionStore
	events   *recordingPublisher
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	store := newTestStore(t)
	sessions := memory.NewSessionStore(fixedClock)
	events := &recordingPublisher{}
	cfg := AccountConfig{SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost}
	return &accountFixture{
		svc:      NewAccountService(store, sessions, events, cfg, fixedClock, newTestLogger()),
		ledger:   NewReviewService(store, events, fixedClock, newTestLogger()),
		store:    store,
		sessions: sessions,
		events:   events,
	}
}

func (f *accountFixture) register(t *testing.T, username, password string) *Session {
	t.Helper()
	sess, err := f.svc.Register(context.Background(), Credentials{Username: username, Password: password})
	require.NoError(t, err)
	return sess
}

func TestRegister_StartsSession(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	sess := f.register(t, "  reader  ", "passw0rd")

	assert.Equal(t, "reader", sess.User.Username)
	assert.NotEqual(t, "passw0rd", sess.User.PasswordHash)
	assert.Equal(t, fixedNow, sess.User.CreatedAt)
	assert.NotEmpty(t, sess.Token)

	userID, err := f.svc.ResolveSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, userID)
}

func TestRegister_Validation(t *testing.T) {
	f := newAccountFixture(t)

	tests := []struct {
		name string
		in   Credentials
	}{
		{"short username", Credentials{Username: "ab", Password: "passw0rd"}},
		{"blank username", Credentials{Username: "    ", Password: "passw0rd"}},
		{"short password", Credentials{Username: "reader", Password: "pa55"}},
		{"no digit", Credentials{Username: "reader", Password: "password"}},
		{"no letter", Credentials{Username: "reader", Password: "12345678"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.in)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "reader", "passw0rd")

	_, err := f.svc.Register(context.Background(), Credentials{Username: "reader", Password: "0therpass"})

	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestLogin(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	registered := f.register(t, "reader", "passw0rd")

	sess, err := f.svc.Login(ctx, Credentials{Username: "reader", Password: "passw0rd"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, sess.User.ID)
	assert.NotEqual(t, registered.Token, sess.Token)

	_, err = f.svc.Login(ctx, Credentials{Username: "reader", Password: "wrong"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = f.svc.Login(ctx, Credentials{Username: "nobody", Password: "passw0rd"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestLogout(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	sess := f.register(t, "reader", "passw0rd")

	require.NoError(t, f.svc.Logout(ctx, sess.Token))

	_, err := f.svc.ResolveSession(ctx, sess.Token)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, f.svc.Logout(ctx, sess.Token))
}

func TestMe(t *testing.T) {
	f := newAccountFixture(t)
	sess := f.register(t, "reader", "passw0rd")

	u, err := f.svc.Me(context.Background(), sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader", u.Username)
}

func TestDeleteAccount(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	sess := f.register(t, "reader", "passw0rd")
	second, err := f.svc.Login(ctx, Credentials{Username: "reader", Password: "passw0rd"})
	require.NoError(t, err)

	add(t, f.ledger, sess.User.ID, bookB, 5)
	add(t, f.ledger, sess.User.ID, bookC, 1)
	add(t, f.ledger, bob, bookB, 3)

	require.NoError(t, f.svc.DeleteAccount(ctx, sess.User.ID, "passw0rd"))

	_, err = f.svc.Me(ctx, sess.User.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	for _, token := range []string{sess.Token, second.Token} {
		_, err := f.svc.ResolveSession(ctx, token)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	}

	b := getBook(t, f.store, bookB)
	assert.Equal(t, 1, b.ReviewCount)
	assert.Equal(t, 3.0, b.AverageRating)
	assert.Zero(t, getBook(t, f.store, bookC).ReviewCount)
	assertConsistent(t, f.store)

	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, "user_deleted", last.kind)
	assert.Equal(t, 2, last.count)
	assert.ElementsMatch(t, []string{bookB, bookC}, last.books)

	_, err = f.svc.Register(ctx, Credentials{Username: "reader", Password: "passw0rd"})
	assert.NoError(t, err, "username is free again")
}

func TestDeleteAccount_WrongPasswordKeepsEverything(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	sess := f.register(t, "reader", "passw0rd")
	add(t, f.ledger, sess.User.ID, bookB, 5)

	err := f.svc.DeleteAccount(ctx, sess.User.ID, "wrong")

	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	_, err = f.svc.ResolveSession(ctx, sess.Token)
	assert.NoError(t, err)
	assert.Equal(t, 1, getBook(t, f.store, bookB).ReviewCount)
}
