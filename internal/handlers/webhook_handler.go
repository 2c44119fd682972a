package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xchangepos/backend/internal/models"
	"github.com/xchangepos/backend/internal/services/compliance"
	"github.com/xchangepos/backend/internal/utils"
	"go.uber.org/zap"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the raw webhook body
const SignatureHeader = "X-Webhook-Signature"

// AcknowledgmentRecorder applies a regulator acknowledgment to a submitted report
type AcknowledgmentRecorder interface {
	RecordAcknowledgment(ctx context.Context, reportID string, accepted bool, reason string) (*models.Report, error)
}

// WebhookHandler handles acknowledgment callbacks from the FINTRAC gateway
type WebhookHandler struct {
	recorder AcknowledgmentRecorder
	secret   string
	logger   *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(recorder AcknowledgmentRecorder, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		recorder: recorder,
		secret:   secret,
		logger:   logger,
	}
}

// AcknowledgmentPayload is the body posted by the gateway once a report is processed
type AcknowledgmentPayload struct {
	ReportID        string `json:"report_id" binding:"required"`
	ReportReference string `json:"report_reference"`
	Status          string `json:"status" binding:"required,oneof=accepted rejected"`
	Reason          string `json:"reason,omitempty"`
}

// FINTRACAcknowledgmentWebhook verifies the payload signature and records the outcome
func (h *WebhookHandler) FINTRACAcknowledgmentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if h.secret == "" || signature == "" || !utils.VerifyHMAC(string(body), signature, h.secret) {
		h.logger.Warn("Rejected acknowledgment webhook with invalid signature", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	var payload AcknowledgmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	h.logger.Info("Received FINTRAC acknowledgment",
		zap.String("report_id", payload.ReportID),
		zap.String("report_reference", payload.ReportReference),
		zap.String("status", payload.Status),
	)

	report, err := h.recorder.RecordAcknowledgment(c.Request.Context(), payload.ReportID, payload.Status == "accepted", payload.Reason)
	if err != nil {
		switch {
		case errors.Is(err, compliance.ErrReportNotFound):
			// Acknowledgments for reports we never filed are acknowledged and dropped
			h.logger.Warn("Acknowledgment for unknown report", zap.String("report_id", payload.ReportID))
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		case errors.Is(err, compliance.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to record acknowledgment", zap.String("report_id", payload.ReportID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record acknowledgment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   report,
	})
}
