package compliance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xchangepos/backend/internal/models"
)

// Submission outcomes recorded by the submissions counter
const (
	outcomeSubmitted    = "submitted"
	outcomeFailed       = "failed"
	outcomeAcknowledged = "acknowledged"
	outcomeRejected     = "rejected"
)

// Metrics contains the Prometheus metrics for FINTRAC reporting. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ReportsGenerated *prometheus.CounterVec
	Submissions      *prometheus.CounterVec
	PendingReports   prometheus.Gauge
	OverdueReports   prometheus.Gauge
}

// NewMetrics creates the FINTRAC metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReportsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "compliance",
				Subsystem: "fintrac",
				Name:      "reports_generated_total",
				Help:      "Total number of FINTRAC reports generated",
			},
			[]string{"report_type"},
		),

		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "compliance",
				Subsystem: "fintrac",
				Name:      "submissions_total",
				Help:      "Total number of FINTRAC submission attempts and acknowledgments",
			},
			[]string{"outcome"},
		),

		PendingReports: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "compliance",
				Subsystem: "fintrac",
				Name:      "pending_reports",
				Help:      "Number of FINTRAC reports still in draft",
			},
		),

		OverdueReports: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "compliance",
				Subsystem: "fintrac",
				Name:      "overdue_reports",
				Help:      "Number of draft FINTRAC reports past their reporting deadline",
			},
		),
	}
}

func (m *Metrics) reportGenerated(reportType models.ReportType) {
	if m == nil {
		return
	}
	m.ReportsGenerated.WithLabelValues(string(reportType)).Inc()
}

func (m *Metrics) submission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// SetPending records the current number of draft reports
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingReports.Set(float64(n))
}

// SetOverdue records the current number of overdue draft reports
func (m *Metrics) SetOverdue(n int) {
	if m == nil {
		return
	}
	m.OverdueReports.Set(float64(n))
}
