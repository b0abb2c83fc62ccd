package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/readrate/pkg/errors"
	"github.com/utafrali/readrate/pkg/logger"
	"github.com/utafrali/readrate/pkg/validator"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *ErrorResponse {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

// --- WriteJSON / WriteData ---

func TestWriteData_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusCreated, map[string]string{"id": "b1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	assert.JSONEq(t, `{"id":"b1"}`, string(raw["data"]))
	_, hasError := raw["error"]
	assert.False(t, hasError)
}

// --- WriteError ---

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app not found", apperrors.NotFound("book", "b1"), http.StatusNotFound, "NOT_FOUND"},
		{"duplicate review", apperrors.DuplicateReview("u1", "b1"), http.StatusConflict, "DUPLICATE_REVIEW"},
		{"store unavailable", apperrors.StoreUnavailable(errors.New("conn refused")), http.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
		{"sentinel not found", apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped already exists", fmt.Errorf("insert: %w", apperrors.ErrAlreadyExists), http.StatusConflict, "ALREADY_EXISTS"},
		{"sentinel invalid input", apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"sentinel unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/books/b1", nil)

			WriteError(rec, req, tt.err, logger.Discard())

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestWriteError_InternalMessageHidden(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteError(rec, req, errors.New("pq: password authentication failed"), logger.Discard())

	assert.Equal(t, "an internal error occurred", decodeError(t, rec).Message)
}

func TestWriteError_LogsServerErrorsWithRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	reqLogger := slog.New(slog.NewJSONHandler(&buf, nil))

	rec := httptest.NewRecorder()
	ctx := logger.NewContext(context.Background(), reqLogger)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/books/b1/reviews", nil).WithContext(ctx)

	WriteError(rec, req, errors.New("boom"), logger.Discard())

	assert.Contains(t, buf.String(), "request failed")
	assert.Contains(t, buf.String(), "/api/v1/books/b1/reviews")
}

func TestWriteError_ClientErrorsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	fallback := slog.New(slog.NewJSONHandler(&buf, nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	WriteError(rec, req, apperrors.NotFound("book", "b1"), fallback)

	assert.Empty(t, buf.String())
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx := logger.WithCorrelationID(context.Background(), "corr-123")
	req := httptest.NewRequest(http.MethodGet, "/x", nil).WithContext(ctx)

	WriteError(rec, req, apperrors.ErrNotFound, logger.Discard())

	assert.Equal(t, "corr-123", decodeError(t, rec).RequestID)
}

func TestWriteError_NoCorrelationIDOmitsField(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	WriteError(rec, req, apperrors.ErrNotFound, logger.Discard())

	var raw map[string]map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	_, has := raw["error"]["request_id"]
	assert.False(t, has)
}

// --- WriteValidationError ---

type ratingBody struct {
	Rating int `json:"rating" validate:"gte=1,lte=5"`
}

func TestWriteValidationError_Fields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteValidationError(rec, validator.Validate(ratingBody{Rating: 9}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Contains(t, body.Fields, "rating")
}

func TestWriteValidationError_DecodeError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteValidationError(rec, errors.New("decode request body: unexpected EOF"))

	body := decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", body.Code)
	assert.Contains(t, body.Message, "unexpected EOF")
}

// --- PathUUID ---

func servePathUUID(t *testing.T, path string) (*httptest.ResponseRecorder, string, bool) {
	t.Helper()
	var (
		got string
		ok  bool
	)
	r := chi.NewRouter()
	r.Get("/books/{bookId}", func(w http.ResponseWriter, r *http.Request) {
		got, ok = PathUUID(w, r, "bookId")
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec, got, ok
}

func TestPathUUID_Valid(t *testing.T) {
	rec, id, ok := servePathUUID(t, "/books/550E8400-E29B-41D4-A716-446655440000")
	assert.True(t, ok)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPathUUID_Invalid(t *testing.T) {
	rec, _, ok := servePathUUID(t, "/books/not-a-uuid")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "INVALID_PARAMETER", body.Code)
	assert.Contains(t, body.Message, "not-a-uuid")
}
