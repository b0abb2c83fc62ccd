package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/readrate/internal/service"
	"github.com/utafrali/readrate/pkg/httputil"
	"github.com/utafrali/readrate/pkg/middleware"
	"github.com/utafrali/readrate/pkg/validator"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	service      *service.AccountService
	sessionTTL   time.Duration
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandler creates an auth HTTP handler. Session cookies live for
// sessionTTL.
func NewAuthHandler(svc *service.AccountService, sessionTTL time.Duration, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, sessionTTL: sessionTTL, cookieSecure: cookieSecure, logger: logger}
}

// CredentialsRequest is the JSON body for register and login.
type CredentialsRequest struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.startSession(w, r, http.StatusCreated, h.service.Register)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.startSession(w, r, http.StatusOK, h.service.Login)
}

type sessionOp func(ctx context.Context, in service.Credentials) (*service.Session, error)

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, op sessionOp) {
	var req CredentialsRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sess, err := op(r.Context(), service.Credentials{Username: req.Username, Password: req.Password})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, middleware.NewSessionCookie(sess.Token, int(h.sessionTTL.Seconds()), h.cookieSecure))
	httputil.WriteData(w, status, sess.User)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.SessionTokenFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, middleware.ExpiredSessionCookie())
	w.WriteHeader(http.StatusNoContent)
}
