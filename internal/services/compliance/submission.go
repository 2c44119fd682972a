package compliance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/xchangepos/backend/internal/events"
	"github.com/xchangepos/backend/internal/models"
	"github.com/xchangepos/backend/internal/utils"
	"go.uber.org/zap"
)

// SubmissionResult is the outcome of a submission attempt. Failures are
// reported here instead of as an error so callers can retry.
type SubmissionResult struct {
	Success                 bool   `json:"success"`
	SubmissionID            string `json:"submissionId,omitempty"`
	AcknowledgmentReference string `json:"acknowledgmentReference,omitempty"`
	Error                   string `json:"error,omitempty"`
}

// SubmitReport simulates filing the report with FINTRAC: it renders the
// submission XML, marks the report submitted with a fresh acknowledgment
// reference and broadcasts the submission. Resubmitting a submitted report
// issues a new acknowledgment reference. If the broadcast fails the stored
// report is restored to its previous state unless a later submission has
// already replaced it.
func (s *CryptoFINTRACService) SubmitReport(ctx context.Context, reportID string) SubmissionResult {
	submissionID := uuid.NewString()
	now := s.now().UTC()

	var (
		previous  models.Report
		submitted models.Report
	)
	err := s.store.modify(ctx, reportID, func(report *models.Report) error {
		if !report.SubmissionStatus.CanTransitionTo(models.SubmissionStatusSubmitted) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, report.SubmissionStatus, models.SubmissionStatusSubmitted)
		}

		payload, err := ReportXML(*report)
		if err != nil {
			return err
		}
		s.logger.Debug("Submitting FINTRAC report",
			zap.String("report_reference", report.ReportReference),
			zap.String("submission_id", submissionID),
			zap.Int("payload_bytes", len(payload)),
		)

		previous = *report
		report.SubmissionStatus = models.SubmissionStatusSubmitted
		report.AcknowledgmentReference = utils.GenerateReference("ACK", now)
		report.UpdatedAt = now
		submitted = *report
		return nil
	})
	if err != nil {
		return s.submissionFailed(reportID, err)
	}

	event := events.Event{
		Type: events.EventCryptoFintracReportSubmitted,
		Data: map[string]interface{}{
			"reportType":      string(submitted.ReportType),
			"reportReference": submitted.ReportReference,
			"submissionId":    submissionID,
			"transactionId":   submitted.VirtualCurrencyTransaction.TransactionID,
			"amount":          submitted.VirtualCurrencyTransaction.CADEquivalent.String(),
			"cryptocurrency":  submitted.VirtualCurrencyTransaction.CurrencyType,
		},
		Timestamp: now,
	}
	if err := s.broadcaster.Publish(ctx, event); err != nil {
		s.rollbackSubmission(ctx, previous, submitted.AcknowledgmentReference)
		return s.submissionFailed(reportID, fmt.Errorf("failed to broadcast submission: %w", err))
	}

	s.metrics.submission(outcomeSubmitted)
	s.refreshPending(ctx)
	s.logger.Info("FINTRAC report submitted",
		zap.String("report_id", reportID),
		zap.String("report_reference", submitted.ReportReference),
		zap.String("acknowledgment_reference", submitted.AcknowledgmentReference),
	)

	return SubmissionResult{
		Success:                 true,
		SubmissionID:            submissionID,
		AcknowledgmentReference: submitted.AcknowledgmentReference,
	}
}

// rollbackSubmission restores the pre-submission state of a report whose
// broadcast failed. It is a no-op once a later submission has replaced the
// acknowledgment reference this attempt assigned.
func (s *CryptoFINTRACService) rollbackSubmission(ctx context.Context, previous models.Report, ackReference string) {
	err := s.store.modify(ctx, previous.ID, func(stored *models.Report) error {
		if stored.SubmissionStatus != models.SubmissionStatusSubmitted || stored.AcknowledgmentReference != ackReference {
			return errSubmissionSuperseded
		}
		stored.SubmissionStatus = previous.SubmissionStatus
		stored.AcknowledgmentReference = previous.AcknowledgmentReference
		stored.UpdatedAt = previous.UpdatedAt
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, errSubmissionSuperseded):
		s.logger.Info("Skipped rollback of superseded FINTRAC submission",
			zap.String("report_id", previous.ID),
			zap.String("acknowledgment_reference", ackReference),
		)
	default:
		s.logger.Error("Failed to roll back FINTRAC report after broadcast failure",
			zap.String("report_id", previous.ID),
			zap.Error(err),
		)
	}
}

func (s *CryptoFINTRACService) submissionFailed(reportID string, err error) SubmissionResult {
	s.metrics.submission(outcomeFailed)
	s.logger.Warn("FINTRAC report submission failed",
		zap.String("report_id", reportID),
		zap.Error(err),
	)
	return SubmissionResult{
		Success: false,
		Error:   err.Error(),
	}
}

// RecordAcknowledgment applies the regulator's response to a submitted
// report, moving it to acknowledged or rejected. Both are terminal.
func (s *CryptoFINTRACService) RecordAcknowledgment(ctx context.Context, reportID string, accepted bool, reason string) (*models.Report, error) {
	next := models.SubmissionStatusAcknowledged
	if !accepted {
		next = models.SubmissionStatusRejected
	}
	now := s.now().UTC()

	var updated models.Report
	err := s.store.modify(ctx, reportID, func(report *models.Report) error {
		if report.SubmissionStatus != models.SubmissionStatusSubmitted || !report.SubmissionStatus.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, report.SubmissionStatus, next)
		}
		report.SubmissionStatus = next
		if !accepted {
			report.RejectionReason = reason
		}
		report.UpdatedAt = now
		updated = *report
		return nil
	})
	if err != nil {
		return nil, err
	}

	if accepted {
		s.metrics.submission(outcomeAcknowledged)
	} else {
		s.metrics.submission(outcomeRejected)
	}
	s.logger.Info("FINTRAC acknowledgment recorded",
		zap.String("report_id", reportID),
		zap.String("status", string(next)),
	)
	return &updated, nil
}
