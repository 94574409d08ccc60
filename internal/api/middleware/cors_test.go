package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Togather-Foundation/events-api/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_DevelopmentMode(t *testing.T) {
	cfg := config.CORSConfig{AllowAllOrigins: true}
	handler := CORS(cfg, zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Location")
}

func TestCORS_ProductionMode_AllowedOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}
	handler := CORS(cfg, zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Origin", "HTTPS://APP.EXAMPLE.COM")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "HTTPS://APP.EXAMPLE.COM", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ProductionMode_RejectedOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}
	handler := CORS(cfg, zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOriginPassesThrough(t *testing.T) {
	handler := CORS(config.CORSConfig{}, zerolog.Nop())(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS(config.CORSConfig{AllowAllOrigins: true}, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.False(t, called)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, corsAllowMethods, rec.Header().Get("Access-Control-Allow-Methods"))
}
