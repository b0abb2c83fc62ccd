package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/readrate/internal/service"
	"github.com/utafrali/readrate/pkg/httputil"
	"github.com/utafrali/readrate/pkg/middleware"
	"github.com/utafrali/readrate/pkg/validator"
)

// AccountHandler handles the authenticated user's account.
type AccountHandler struct {
	accounts        *service.AccountService
	recommendations *service.RecommendationService
	logger          *slog.Logger
}

// NewAccountHandler creates an account HTTP handler.
func NewAccountHandler(accounts *service.AccountService, recs *service.RecommendationService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, recommendations: recs, logger: logger}
}

// DeleteAccountRequest is the JSON body for account deletion.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// Me handles GET /api/v1/account
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Me(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user)
}

// DeleteAccount handles DELETE /api/v1/account
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req DeleteAccountRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	if err := h.accounts.DeleteAccount(r.Context(), userID, req.Password); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, middleware.ExpiredSessionCookie())
	w.WriteHeader(http.StatusNoContent)
}

// Recommendations handles GET /api/v1/me/recommendations
func (h *AccountHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.recommendations.RecommendForUser(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, recs)
}
