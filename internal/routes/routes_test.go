package routes

import (
	"net/http"
	"strings"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xchangepos/backend/internal/events"
	"github.com/xchangepos/backend/internal/handlers"
	"github.com/xchangepos/backend/internal/jobs"
	"github.com/xchangepos/backend/internal/kvstore"
	"github.com/xchangepos/backend/internal/middleware"
	"github.com/xchangepos/backend/internal/services/compliance"
	"github.com/xchangepos/backend/internal/utils"
	"go.uber.org/zap"
)

const testSecret = "routes-test-secret"

func setupRouter(t *testing.T, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	metrics := compliance.NewMetrics(reg)
	store := compliance.NewReportStore(kvstore.NewMemoryStore(), zap.NewNop())
	svc := compliance.NewCryptoFINTRACService(store, events.NewLocalBroadcaster(4), zap.NewNop(), compliance.WithMetrics(metrics))
	monitor := jobs.NewDeadlineMonitor(svc, metrics, zap.NewNop(), time.Hour, 48*time.Hour)

	router := gin.New()
	RegisterRoutes(router, Handlers{
		FINTRAC: handlers.NewFINTRACHandler(svc, monitor),
		Health:  handlers.NewHealthHandler(),
		Webhook: handlers.NewWebhookHandler(svc, testSecret, zap.NewNop()),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, testSecret, limiter)
	return router
}

func token(t *testing.T, isAdmin bool) string {
	t.Helper()
	tok, err := utils.GenerateAccessToken(testSecret, uuid.New(), "officer@example.com", isAdmin, time.Hour)
	require.NoError(t, err)
	return tok
}

func get(router *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPublicRoutes(t *testing.T) {
	router := setupRouter(t, nil)

	assert.Equal(t, http.StatusOK, get(router, "/health", "").Code)

	w := get(router, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "compliance_fintrac_pending_reports")
}

func TestComplianceRoutesRequireAdmin(t *testing.T) {
	router := setupRouter(t, nil)
	path := "/api/compliance/fintrac/reports"

	assert.Equal(t, http.StatusUnauthorized, get(router, path, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, path, "not-a-jwt").Code)
	assert.Equal(t, http.StatusForbidden, get(router, path, token(t, false)).Code)
	assert.Equal(t, http.StatusOK, get(router, path, token(t, true)).Code)
	assert.Equal(t, http.StatusOK, get(router, "/api/compliance/fintrac/reports/deadlines", token(t, true)).Code)
}

func TestRateLimitedRoutes(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 2)
	defer limiter.Stop()
	router := setupRouter(t, limiter)
	admin := token(t, true)
	path := "/api/compliance/fintrac/reports/pending"

	assert.Equal(t, http.StatusOK, get(router, path, admin).Code)
	assert.Equal(t, http.StatusOK, get(router, path, admin).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, path, admin).Code)

	// Health checks are not rate limited
	assert.Equal(t, http.StatusOK, get(router, "/health", "").Code)
}

func TestWebhookRouteUsesSignature(t *testing.T) {
	router := setupRouter(t, nil)
	body := `{"report_id":"unknown","status":"accepted"}`

	post := func(signature string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/fintrac/acknowledgment", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if signature != "" {
			req.Header.Set(handlers.SignatureHeader, signature)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, post(""))
	assert.Equal(t, http.StatusOK, post(utils.SignHMAC(body, testSecret)))
}
