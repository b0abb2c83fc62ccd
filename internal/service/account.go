package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/internal/repository"
	apperrors "github.com/utafrali/readrate/pkg/errors"
)

// DefaultBcryptCost is the cost factor for password hashes.
const DefaultBcryptCost = 12

// AccountConfig holds the account service settings.
type AccountConfig struct {
	SessionTTL time.Duration
	BcryptCost int
}

// Credentials holds a username and password.
type Credentials struct {
	Username string
	Password string
}

// Session is an authenticated user plus the token identifying the session.
type Session struct {
	User  *domain.User
	Token string
}

// AccountService handles registration, login and account deletion.
type AccountService struct {
	store    repository.Store
	sessions repository.SessionStore
	events   EventPublisher
	cfg      AccountConfig
	now      func() time.Time
	logger   *slog.Logger
}

// NewAccountService creates an account service.
func NewAccountService(
	store repository.Store,
	sessions repository.SessionStore,
	events EventPublisher,
	cfg AccountConfig,
	now func() time.Time,
	logger *slog.Logger,
) *AccountService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultBcryptCost
	}
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = NoopPublisher{}
	}
	return &AccountService{
		store:    store,
		sessions: sessions,
		events:   events,
		cfg:      cfg,
		now:      now,
		logger:   logger,
	}
}

// Register creates a user and starts a session for it.
func (s *AccountService) Register(ctx context.Context, in Credentials) (*Session, error) {
	username := strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(username); n < domain.MinUsernameLength || n > domain.MaxUsernameLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("username must be between %d and %d characters",
			domain.MinUsernameLength, domain.MaxUsernameLength))
	}
	if !domain.ValidPassword(in.Password) {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"password must be %d to %d bytes long and contain at least one letter and one digit",
			domain.MinPasswordLength, domain.MaxPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.sessions.Create(ctx, user.ID, s.cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &Session{User: user, Token: token}, nil
}

// Login checks the credentials and starts a session. Unknown usernames and
// wrong passwords produce the same UNAUTHORIZED error.
func (s *AccountService) Login(ctx context.Context, in Credentials) (*Session, error) {
	user, err := s.store.Users().GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid username or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid username or password")
	}

	token, err := s.sessions.Create(ctx, user.ID, s.cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return &Session{User: user, Token: token}, nil
}

// Logout ends the session identified by token.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ResolveSession returns the user id behind a session token.
func (s *AccountService) ResolveSession(ctx context.Context, token string) (string, error) {
	return s.sessions.Resolve(ctx, token)
}

// Me returns the user behind an authenticated request.
func (s *AccountService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.Users().GetByID(ctx, userID)
}

// DeleteAccount re-checks the password, then removes the user's reviews
// and the user in one transaction and ends all of the user's sessions.
func (s *AccountService) DeleteAccount(ctx context.Context, userID, password string) (err error) {
	ctx, done := startOp(ctx, "delete_account", attribute.String("user.id", userID))
	defer func() { done(err) }()

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return apperrors.Unauthorized("incorrect password")
	}

	var (
		removed int
		books   []string
	)
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		var txErr error
		removed, books, txErr = deleteAllForUser(ctx, tx, userID)
		if txErr != nil {
			return txErr
		}
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to end sessions of deleted user",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.UserDeleted(ctx, userID, removed, books); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", "user.deleted"),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account deleted",
		slog.String("user_id", userID),
		slog.Int("reviews_removed", removed),
		slog.Int("books_affected", len(books)),
	)

	return nil
}
