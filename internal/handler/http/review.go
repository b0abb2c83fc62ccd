package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/internal/service"
	"github.com/utafrali/readrate/pkg/httputil"
	"github.com/utafrali/readrate/pkg/middleware"
	"github.com/utafrali/readrate/pkg/pagination"
	"github.com/utafrali/readrate/pkg/validator"
)

// ReviewHandler handles review mutations and per-user review lists.
type ReviewHandler struct {
	reviews *service.ReviewService
	books   *service.BookService
	logger  *slog.Logger
}

// NewReviewHandler creates a review HTTP handler.
func NewReviewHandler(reviews *service.ReviewService, books *service.BookService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, books: books, logger: logger}
}

// ReviewRequest is the JSON body for adding or editing a review.
type ReviewRequest struct {
	Text   string `json:"text" validate:"notblank,max=10000"`
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
}

type reviewOp func(ctx context.Context, in service.ReviewInput) (*domain.Review, error)

// AddReview handles POST /api/v1/books/{bookId}/reviews
func (h *ReviewHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusCreated, h.reviews.AddReview)
}

// EditReview handles PUT /api/v1/books/{bookId}/reviews
func (h *ReviewHandler) EditReview(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusOK, h.reviews.EditReview)
}

func (h *ReviewHandler) write(w http.ResponseWriter, r *http.Request, status int, op reviewOp) {
	bookID, ok := httputil.PathUUID(w, r, "bookId")
	if !ok {
		return
	}

	var req ReviewRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := op(r.Context(), service.ReviewInput{
		UserID: middleware.UserIDFromContext(r.Context()),
		BookID: bookID,
		Text:   req.Text,
		Rating: req.Rating,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, status, review)
}

// DeleteReview handles DELETE /api/v1/books/{bookId}/reviews
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.PathUUID(w, r, "bookId")
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	if err := h.reviews.DeleteReview(r.Context(), userID, bookID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListUserReviews handles GET /api/v1/users/{userId}/reviews
func (h *ReviewHandler) ListUserReviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.PathUUID(w, r, "userId")
	if !ok {
		return
	}
	h.listForUser(w, r, userID)
}

// ListMyReviews handles GET /api/v1/me/reviews
func (h *ReviewHandler) ListMyReviews(w http.ResponseWriter, r *http.Request) {
	h.listForUser(w, r, middleware.UserIDFromContext(r.Context()))
}

func (h *ReviewHandler) listForUser(w http.ResponseWriter, r *http.Request, userID string) {
	result, err := h.books.ListReviewsForUser(r.Context(), userID, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
