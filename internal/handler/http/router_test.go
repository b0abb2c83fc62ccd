package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/internal/repository/memory"
	"github.com/utafrali/readrate/internal/service"
	"github.com/utafrali/readrate/pkg/health"
	"github.com/utafrali/readrate/pkg/httputil"
	"github.com/utafrali/readrate/pkg/logger"
	"github.com/utafrali/readrate/pkg/middleware"
)

const (
	bookKrondor = "3f1a0a8e-6f0b-4c39-9d55-1b8f0a4c2e01"
	bookMagic   = "3f1a0a8e-6f0b-4c39-9d55-1b8f0a4c2e02"
	bookDune    = "3f1a0a8e-6f0b-4c39-9d55-1b8f0a4c2e03"
	unknownBook = "3f1a0a8e-6f0b-4c39-9d55-1b8f0a4c2eff"
)

type stubRatings struct{}

func (stubRatings) Lookup(_ context.Context, isbn string) domain.ExternalRating {
	if isbn == "0380795272" {
		return domain.ExternalRating{Available: true, AverageRating: 3.92, RatingsCount: 9000}
	}
	return domain.Unavailable
}

type testServer struct {
	handler http.Handler
	store   *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, configure func(*RouterConfig)) *testServer {
	t.Helper()
	log := logger.Discard()

	store := memory.NewStore()
	store.SetShuffle(func(int, func(i, j int)) {})
	for _, b := range []domain.Book{
		{ID: bookKrondor, ISBN: "0380795272", Title: "Krondor: The Betrayal", Author: "Raymond E. Feist", Year: 1998},
		{ID: bookMagic, ISBN: "1416949658", Title: "Magician", Author: "Raymond E. Feist", Year: 1982},
		{ID: bookDune, ISBN: "0441013597", Title: "Dune", Author: "Frank Herbert", Year: 1965},
	} {
		require.NoError(t, store.AddBook(b))
	}

	sessions := memory.NewSessionStore(nil)
	svcs := Services{
		Books:           service.NewBookService(store, stubRatings{}, log),
		Reviews:         service.NewReviewService(store, nil, nil, log),
		Recommendations: service.NewRecommendationService(store.Recommendations(), func(int) int { return 0 }, 6, log),
		Accounts: service.NewAccountService(store, sessions, nil,
			service.AccountConfig{SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost}, nil, log),
	}

	hh := health.NewHandler()
	hh.RegisterCritical("store", store.Ping)

	cfg := RouterConfig{
		ServiceName:     "readrate-test",
		CORSOrigins:     []string{"http://localhost:3000"},
		SessionTTL:      time.Hour,
		LoginRateLimit:  100,
		LoginRateWindow: time.Minute,
	}
	if configure != nil {
		configure(&cfg)
	}

	return &testServer{handler: NewRouter(svcs, hh, cfg, log), store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its session cookie and user id.
func (s *testServer) register(t *testing.T, username string) (*http.Cookie, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"username": username, "password": "passw0rd"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user domain.User
	decodeData(t, rec, &user)
	return sessionCookie(t, rec), user.ID
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", middleware.SessionCookie)
	return nil
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var env httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NotNil(t, env.Error, "expected an error envelope")
	return env.Error
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", nil, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", nil, nil).Code)

	rec := s.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouter_PprofNotMountedWithoutCIDRs(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/debug/pprof/", nil, nil).Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/books", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_CorrelationIDEchoed(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/books", nil, nil)
	assert.NotEmpty(t, rec.Header().Get(middleware.CorrelationIDHeader))
}

func newRawRequest(method, path, body, contentType string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", contentType)
	return req
}

func serve(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}
