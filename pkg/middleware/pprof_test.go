package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestIPAllowlist(t *testing.T) {
	var buf bytes.Buffer
	h := IPAllowlist([]string{"10.0.0.0/8", "not-a-cidr", "::1/128"}, newTestLogger(&buf))(okHandler(http.StatusOK))

	tests := []struct {
		remote string
		want   int
	}{
		{"10.1.2.3:999", http.StatusOK},
		{"[::1]:999", http.StatusOK},
		{"[::ffff:10.0.0.5]:999", http.StatusOK},
		{"192.168.1.1:999", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Contains(t, buf.String(), "invalid allowlist CIDR")
}

func TestRegisterPprof(t *testing.T) {
	var buf bytes.Buffer

	r := chi.NewRouter()
	assert.False(t, RegisterPprof(r, nil, newTestLogger(&buf)))

	r = chi.NewRouter()
	assert.True(t, RegisterPprof(r, []string{"127.0.0.0/8"}, newTestLogger(&buf)))

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "127.0.0.1:1"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req.RemoteAddr = "8.8.8.8:1"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
