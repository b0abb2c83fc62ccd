package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/readrate/internal/config"
	"github.com/utafrali/readrate/pkg/health"
	"github.com/utafrali/readrate/pkg/logger"
	"github.com/utafrali/readrate/pkg/middleware"
)

func newMemoryApp(t *testing.T) *App {
	t.Helper()
	cfg, err := config.LoadFrom(map[string]string{
		"STORE_DRIVER":      "memory",
		"BCRYPT_COST":       "4",
		"KAFKA_ENABLED":     "true",
		"HTTP_PORT":         "18080",
		"OTEL_ENABLED":      "false",
		"LOG_SLOW_QUERY_MS": "0",
	})
	require.NoError(t, err)

	a, err := NewApp(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })
	return a
}

func TestNewApp_MemoryDriverIsReady(t *testing.T) {
	a := newMemoryApp(t)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp health.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, health.StatusUp, resp.Status)
	assert.Contains(t, resp.Checks, "store")
	assert.NotContains(t, resp.Checks, "kafka", "memory driver never publishes")
	assert.Nil(t, a.pool)
	assert.Nil(t, a.redis)
}

func TestNewApp_MemoryDriverServesAccounts(t *testing.T) {
	a := newMemoryApp(t)
	h := a.Handler()

	body := `{"username":"reader","password":"letters123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/account", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reader"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/books?q=anything", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_count":0`)
}

func TestShutdown_WithoutRun(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{"STORE_DRIVER": "memory"})
	require.NoError(t, err)

	a, err := NewApp(cfg, logger.Discard())
	require.NoError(t, err)

	assert.NoError(t, a.Shutdown())
	assert.NoError(t, a.Shutdown(), "a second shutdown is harmless")
}
