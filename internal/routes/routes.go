package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xchangepos/backend/internal/handlers"
	"github.com/xchangepos/backend/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	FINTRAC *handlers.FINTRACHandler
	Health  *handlers.HealthHandler
	Webhook *handlers.WebhookHandler
	Metrics http.Handler
}

// RegisterRoutes configures all API routes. Compliance endpoints require an
// admin bearer token signed with jwtSecret.
func RegisterRoutes(router *gin.Engine, h Handlers, jwtSecret string, rateLimiter *middleware.RateLimiter) {
	router.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api")
	if rateLimiter != nil {
		api.Use(rateLimiter.Middleware())
	}

	// Gateway callbacks authenticate with a payload signature instead of a bearer token
	if h.Webhook != nil {
		api.POST("/webhooks/fintrac/acknowledgment", h.Webhook.FINTRACAcknowledgmentWebhook)
	}

	fintrac := api.Group("/compliance/fintrac")
	fintrac.Use(middleware.AuthMiddleware(jwtSecret), middleware.AdminMiddleware())
	{
		fintrac.POST("/crypto-transactions", h.FINTRAC.ProcessCryptoTransaction)

		fintrac.GET("/reports", h.FINTRAC.ListReports)
		fintrac.GET("/reports/pending", h.FINTRAC.ListPendingReports)
		fintrac.GET("/reports/deadlines", h.FINTRAC.ListDeadlineAlerts)
		fintrac.GET("/reports/:id", h.FINTRAC.GetReport)
		fintrac.POST("/reports/:id/submit", h.FINTRAC.SubmitReport)
		fintrac.POST("/reports/:id/acknowledgment", h.FINTRAC.RecordAcknowledgment)
		fintrac.POST("/reports/export", h.FINTRAC.ExportReports)
	}
}
