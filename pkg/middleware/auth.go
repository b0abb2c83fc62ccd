package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/readrate/pkg/errors"
	"github.com/utafrali/readrate/pkg/httputil"
)

type contextKey string

const (
	userIDKey       contextKey = "user_id"
	sessionTokenKey contextKey = "session_token"
)

// SessionCookie is the cookie holding the opaque session token.
const SessionCookie = "readrate_session"

// SessionResolver maps a session token to a user id. It returns an error
// wrapping apperrors.ErrNotFound for unknown or expired tokens.
type SessionResolver func(ctx context.Context, token string) (string, error)

// Session resolves the session cookie, when present, and stores the user id
// and token in the request context. Requests without a valid session pass
// through anonymously; use RequireUser to reject them. A resolver failure
// other than an unknown token is answered with 503.
func Session(resolve SessionResolver, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolve(r.Context(), c.Value)
			switch {
			case err == nil:
				ctx := WithUserID(r.Context(), userID)
				ctx = context.WithValue(ctx, sessionTokenKey, c.Value)
				r = r.WithContext(ctx)
			case errors.Is(err, apperrors.ErrNotFound):
				http.SetCookie(w, ExpiredSessionCookie())
			default:
				httputil.WriteError(w, r, apperrors.StoreUnavailable(err), l)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects requests without an authenticated user with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) == "" {
			httputil.WriteError(w, r, apperrors.Unauthorized("login required"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// SessionTokenFromContext returns the token of the current session, or "".
func SessionTokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(sessionTokenKey).(string)
	return tok
}

// NewSessionCookie builds the cookie for a freshly created session.
func NewSessionCookie(token string, maxAgeSeconds int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredSessionCookie builds a cookie that clears the session on the client.
func ExpiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
