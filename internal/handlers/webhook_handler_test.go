package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/xchangepos/backend/internal/models"
	"github.com/xchangepos/backend/internal/services/compliance"
	"github.com/xchangepos/backend/internal/utils"
	"go.uber.org/zap"
)

const webhookSecret = "gateway-secret"

// MockAcknowledgmentRecorder is a mock implementation of AcknowledgmentRecorder
type MockAcknowledgmentRecorder struct {
	mock.Mock
}

func (m *MockAcknowledgmentRecorder) RecordAcknowledgment(ctx context.Context, reportID string, accepted bool, reason string) (*models.Report, error) {
	args := m.Called(ctx, reportID, accepted, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func postWebhook(recorder AcknowledgmentRecorder, body, signature string) *httptest.ResponseRecorder {
	router := setupTestRouter()
	h := NewWebhookHandler(recorder, webhookSecret, zap.NewNop())
	router.POST("/webhooks/fintrac/acknowledgment", h.FINTRACAcknowledgmentWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/fintrac/acknowledgment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAcknowledgmentWebhook(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		recorder := new(MockAcknowledgmentRecorder)
		report := &models.Report{}
		report.ID = "r-1"
		report.SubmissionStatus = models.SubmissionStatusAcknowledged
		recorder.On("RecordAcknowledgment", mock.Anything, "r-1", true, "").Return(report, nil)

		body := `{"report_id":"r-1","report_reference":"VCTR_1","status":"accepted"}`
		w := postWebhook(recorder, body, utils.SignHMAC(body, webhookSecret))

		assert.Equal(t, http.StatusOK, w.Code)
		recorder.AssertExpectations(t)
	})

	t.Run("rejected with reason", func(t *testing.T) {
		recorder := new(MockAcknowledgmentRecorder)
		recorder.On("RecordAcknowledgment", mock.Anything, "r-2", false, "missing address").Return(&models.Report{}, nil)

		body := `{"report_id":"r-2","status":"rejected","reason":"missing address"}`
		w := postWebhook(recorder, body, utils.SignHMAC(body, webhookSecret))

		assert.Equal(t, http.StatusOK, w.Code)
		recorder.AssertExpectations(t)
	})

	t.Run("invalid signature", func(t *testing.T) {
		recorder := new(MockAcknowledgmentRecorder)
		body := `{"report_id":"r-1","status":"accepted"}`

		assert.Equal(t, http.StatusUnauthorized, postWebhook(recorder, body, "").Code)
		assert.Equal(t, http.StatusUnauthorized, postWebhook(recorder, body, utils.SignHMAC(body, "wrong")).Code)
		recorder.AssertNotCalled(t, "RecordAcknowledgment")
	})

	t.Run("invalid status", func(t *testing.T) {
		recorder := new(MockAcknowledgmentRecorder)
		body := `{"report_id":"r-1","status":"pending"}`

		w := postWebhook(recorder, body, utils.SignHMAC(body, webhookSecret))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		recorder.AssertNotCalled(t, "RecordAcknowledgment")
	})

	t.Run("unknown report is ignored", func(t *testing.T) {
		recorder := new(MockAcknowledgmentRecorder)
		recorder.On("RecordAcknowledgment", mock.Anything, "gone", true, "").
			Return(nil, fmt.Errorf("report gone: %w", compliance.ErrReportNotFound))

		body := `{"report_id":"gone","status":"accepted"}`
		w := postWebhook(recorder, body, utils.SignHMAC(body, webhookSecret))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ignored")
	})

	t.Run("report not submitted", func(t *testing.T) {
		recorder := new(MockAcknowledgmentRecorder)
		recorder.On("RecordAcknowledgment", mock.Anything, "draft", true, "").
			Return(nil, fmt.Errorf("draft -> acknowledged: %w", compliance.ErrInvalidTransition))

		body := `{"report_id":"draft","status":"accepted"}`
		w := postWebhook(recorder, body, utils.SignHMAC(body, webhookSecret))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
