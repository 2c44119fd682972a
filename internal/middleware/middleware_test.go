package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xchangepos/backend/internal/utils"
)

const testSecret = "middleware-test-secret"

func serve(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthAndAdminMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()

	router := gin.New()
	router.GET("/protected", AuthMiddleware(testSecret), AdminMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.MustGet(ContextUserID),
			"email":   c.GetString(ContextEmail),
		})
	})

	admin, err := utils.GenerateAccessToken(testSecret, userID, "officer@example.com", true, time.Hour)
	require.NoError(t, err)
	user, err := utils.GenerateAccessToken(testSecret, userID, "teller@example.com", false, time.Hour)
	require.NoError(t, err)
	foreign, err := utils.GenerateAccessToken("other-secret", userID, "officer@example.com", true, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Bearer "+foreign).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, "Bearer "+user).Code)

	w := serve(router, "bearer "+admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "officer@example.com")
}

func TestRateLimiterPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(0.001, 1)
	defer limiter.Stop()

	router := gin.New()
	router.GET("/protected", limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, request("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, request("10.0.0.2"))
}

func TestSecureHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, production := range []bool{false, true} {
		router := gin.New()
		router.Use(SecureHeadersMiddleware(DefaultSecureHeadersConfig(production)))
		router.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := serve(router, "")
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
		if production {
			assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
		} else {
			assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
		}
	}
}
