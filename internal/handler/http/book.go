package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/readrate/internal/service"
	apperrors "github.com/utafrali/readrate/pkg/errors"
	"github.com/utafrali/readrate/pkg/httputil"
	"github.com/utafrali/readrate/pkg/pagination"
)

// BookHandler handles catalogue reads.
type BookHandler struct {
	service *service.BookService
	logger  *slog.Logger
}

// NewBookHandler creates a book HTTP handler.
func NewBookHandler(svc *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{service: svc, logger: logger}
}

// ISBNLookupResponse is the body of GET /api/{isbn}.
type ISBNLookupResponse struct {
	Title        string  `json:"title"`
	Author       string  `json:"author"`
	Year         int     `json:"year"`
	ISBN         string  `json:"isbn"`
	ReviewCount  int     `json:"review_count"`
	AverageScore float64 `json:"average_score"`
}

// SearchBooks handles GET /api/v1/books?field=&q=&page=&per_page=
func (h *BookHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.service.SearchBooks(r.Context(), service.SearchInput{
		Field:  q.Get("field"),
		Query:  q.Get("q"),
		Params: pagination.FromRequest(r),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetBook handles GET /api/v1/books/{bookId}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.PathUUID(w, r, "bookId")
	if !ok {
		return
	}

	detail, err := h.service.GetBook(r.Context(), bookID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, detail)
}

// ListReviews handles GET /api/v1/books/{bookId}/reviews
func (h *BookHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.PathUUID(w, r, "bookId")
	if !ok {
		return
	}

	result, err := h.service.ListReviewsForBook(r.Context(), bookID, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// LookupISBN handles GET /api/{isbn}. The body is the bare book summary
// rather than the usual envelope.
func (h *BookHandler) LookupISBN(w http.ResponseWriter, r *http.Request) {
	isbn := chi.URLParam(r, "isbn")
	if isbn == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("isbn is required"), h.logger)
		return
	}

	book, err := h.service.GetBookByISBN(r.Context(), isbn)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ISBNLookupResponse{
		Title:        book.Title,
		Author:       book.Author,
		Year:         book.Year,
		ISBN:         book.ISBN,
		ReviewCount:  book.ReviewCount,
		AverageScore: book.AverageRating,
	})
}
