package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xchangepos/backend/internal/jobs"
	"github.com/xchangepos/backend/internal/models"
	"github.com/xchangepos/backend/internal/services/compliance"
)

// DeadlineChecker reports pending reports close to their deadline
type DeadlineChecker interface {
	CheckDeadlines(ctx context.Context) []jobs.DeadlineAlert
}

// FINTRACHandler handles crypto FINTRAC reporting requests
type FINTRACHandler struct {
	service   *compliance.CryptoFINTRACService
	deadlines DeadlineChecker
}

// NewFINTRACHandler creates a new FINTRAC handler
func NewFINTRACHandler(service *compliance.CryptoFINTRACService, deadlines DeadlineChecker) *FINTRACHandler {
	return &FINTRACHandler{
		service:   service,
		deadlines: deadlines,
	}
}

// AcknowledgmentRequest is the regulator's response to a submitted report
type AcknowledgmentRequest struct {
	Accepted *bool  `json:"accepted" binding:"required"`
	Reason   string `json:"reason"`
}

// ExportRequest lists the reports to export
type ExportRequest struct {
	ReportIDs []string `json:"report_ids"`
}

// ProcessCryptoTransaction runs a completed crypto payment through FINTRAC classification
func (h *FINTRACHandler) ProcessCryptoTransaction(c *gin.Context) {
	var payment models.PaymentResult
	if err := c.ShouldBindJSON(&payment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.service.ProcessCompletedCryptoTransaction(c.Request.Context(), payment)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidPayment):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, compliance.ErrNotCryptoPayment), errors.Is(err, compliance.ErrCustomerDataRequired):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   result,
	})
}

// ListReports returns every stored report
func (h *FINTRACHandler) ListReports(c *gin.Context) {
	reports := h.service.GetReports(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   reports,
		"count":  len(reports),
	})
}

// ListPendingReports returns the reports still in draft
func (h *FINTRACHandler) ListPendingReports(c *gin.Context) {
	reports := h.service.GetPendingReports(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   reports,
		"count":  len(reports),
	})
}

// GetReport returns a single report
func (h *FINTRACHandler) GetReport(c *gin.Context) {
	report, err := h.service.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, compliance.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   report,
	})
}

// SubmitReport files a report with FINTRAC
func (h *FINTRACHandler) SubmitReport(c *gin.Context) {
	result := h.service.SubmitReport(c.Request.Context(), c.Param("id"))
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": result.Error,
			"data":  result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Report submitted successfully",
		"data":    result,
	})
}

// RecordAcknowledgment records the regulator's acceptance or rejection of a submitted report
func (h *FINTRACHandler) RecordAcknowledgment(c *gin.Context) {
	var req AcknowledgmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	report, err := h.service.RecordAcknowledgment(c.Request.Context(), c.Param("id"), *req.Accepted, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, compliance.ErrReportNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		case errors.Is(err, compliance.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record acknowledgment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   report,
	})
}

// ExportReports serializes the listed reports. With ?format=xml|json|csv
// the single document is returned as a file download instead.
func (h *FINTRACHandler) ExportReports(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.service.Export(c.Request.Context(), req.ReportIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export reports"})
		return
	}

	switch c.Query("format") {
	case "":
		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   result,
		})
	case "xml":
		attachment(c, "fintrac_reports.xml", "application/xml; charset=utf-8", result.XML)
	case "json":
		attachment(c, "fintrac_reports.json", "application/json; charset=utf-8", result.JSON)
	case "csv":
		attachment(c, "fintrac_reports.csv", "text/csv; charset=utf-8", result.CSV)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format"})
	}
}

// ListDeadlineAlerts returns draft reports that are overdue or due soon
func (h *FINTRACHandler) ListDeadlineAlerts(c *gin.Context) {
	alerts := h.deadlines.CheckDeadlines(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   alerts,
		"count":  len(alerts),
	})
}

func attachment(c *gin.Context, filename, contentType, body string) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, []byte(body))
}
