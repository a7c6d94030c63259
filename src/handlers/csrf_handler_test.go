package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/financeflow/backend/src/logger"
)

func init() {
	logger.InitLogger("error")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGetCSRFTokenSetsCookieAndHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil)

	GetCSRFToken(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	headerToken := rec.Header().Get("X-CSRF-Token")
	assert.NotEmpty(t, headerToken)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, csrfCookieName, cookies[0].Name)
	assert.Equal(t, headerToken, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestCSRFMiddlewareValidation(t *testing.T) {
	middleware := CSRFMiddleware()(okHandler())

	t.Run("GET passes without a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/portfolios", nil)
		middleware.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("POST without token is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/portfolios", nil)
		middleware.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("POST with matching header and cookie passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/portfolios", nil)
		req.Header.Set("X-CSRF-Token", "token-value")
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token-value"})
		middleware.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("POST with mismatched tokens is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/portfolios", nil)
		req.Header.Set("X-CSRF-Token", "token-value")
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "different"})
		middleware.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
