package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/xchangepos/backend/internal/models"
	"github.com/xchangepos/backend/internal/services/compliance"
	"go.uber.org/zap"
)

// PendingReportSource lists draft reports against a clock
type PendingReportSource interface {
	GetPendingReports(ctx context.Context) []models.Report
	Now() time.Time
}

// DeadlineAlert flags a draft report that is overdue or close to its reporting deadline
type DeadlineAlert struct {
	ReportID        string            `json:"reportId"`
	ReportReference string            `json:"reportReference"`
	ReportType      models.ReportType `json:"reportType"`
	Deadline        time.Time         `json:"deadline"`
	Overdue         bool              `json:"overdue"`
	TimeRemaining   time.Duration     `json:"timeRemaining"`
}

// DeadlineMonitor periodically checks pending FINTRAC reports against their
// statutory deadlines
type DeadlineMonitor struct {
	source    PendingReportSource
	metrics   *compliance.Metrics
	logger    *zap.Logger
	interval  time.Duration
	window    time.Duration
	scheduler *gocron.Scheduler
}

// NewDeadlineMonitor creates a monitor that runs every interval and warns
// about reports due within window
func NewDeadlineMonitor(source PendingReportSource, metrics *compliance.Metrics, logger *zap.Logger, interval, window time.Duration) *DeadlineMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeadlineMonitor{
		source:    source,
		metrics:   metrics,
		logger:    logger,
		interval:  interval,
		window:    window,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the deadline check and runs it once immediately
func (m *DeadlineMonitor) Start() error {
	m.logger.Info("Starting FINTRAC deadline monitor",
		zap.Duration("interval", m.interval),
		zap.Duration("warning_window", m.window),
	)

	_, err := m.scheduler.Every(m.interval).Do(func() {
		m.CheckDeadlines(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule deadline check: %w", err)
	}

	m.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler
func (m *DeadlineMonitor) Stop() {
	m.logger.Info("Stopping FINTRAC deadline monitor")
	m.scheduler.Stop()
}

// CheckDeadlines returns an alert for every draft report that is overdue or
// due within the warning window, most urgent first
func (m *DeadlineMonitor) CheckDeadlines(ctx context.Context) []DeadlineAlert {
	now := m.source.Now()
	alerts := make([]DeadlineAlert, 0)
	overdue := 0

	for _, report := range m.source.GetPendingReports(ctx) {
		if report.ReportingDeadline.IsZero() {
			continue
		}

		remaining := report.ReportingDeadline.Sub(now)
		if remaining > m.window {
			continue
		}

		alert := DeadlineAlert{
			ReportID:        report.ID,
			ReportReference: report.ReportReference,
			ReportType:      report.ReportType,
			Deadline:        report.ReportingDeadline,
			Overdue:         remaining < 0,
			TimeRemaining:   remaining,
		}
		alerts = append(alerts, alert)

		if alert.Overdue {
			overdue++
			m.logger.Error("FINTRAC report is past its reporting deadline",
				zap.String("report_reference", alert.ReportReference),
				zap.Time("deadline", alert.Deadline),
			)
		} else {
			m.logger.Warn("FINTRAC report deadline approaching",
				zap.String("report_reference", alert.ReportReference),
				zap.Duration("time_remaining", remaining),
			)
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].Deadline.Before(alerts[j].Deadline)
	})

	m.metrics.SetOverdue(overdue)
	return alerts
}
