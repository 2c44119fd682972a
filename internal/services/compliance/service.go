package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/xchangepos/backend/internal/events"
	"github.com/xchangepos/backend/internal/models"
	"go.uber.org/zap"
)

// AggregationWindow is how far back an LVCTR looks for the conductor's earlier transactions
const AggregationWindow = 24 * time.Hour

const defaultPreparedBy = "Compliance System"

// ProcessingResult summarises the reports produced for one transaction.
// Report bodies are fetched from the store.
type ProcessingResult struct {
	ReportsGenerated []models.ReportType `json:"reportsGenerated"`
	ImmediateAction  bool                `json:"immediateAction"`
	Deadline         time.Time           `json:"deadline"`
	RiskLevel        models.RiskLevel    `json:"riskLevel"`
	RiskScore        int                 `json:"riskScore"`
}

// CryptoFINTRACService decides, generates, stores and submits FINTRAC
// reports for completed crypto payments
type CryptoFINTRACService struct {
	store       *ReportStore
	generator   *Generator
	broadcaster events.Broadcaster
	metrics     *Metrics
	logger      *zap.Logger
	now         func() time.Time

	entity     models.ReportingEntity
	preparedBy string
}

// Option configures a CryptoFINTRACService
type Option func(*CryptoFINTRACService)

// WithReportingEntity sets the registered business identity put on every report
func WithReportingEntity(entity models.ReportingEntity) Option {
	return func(s *CryptoFINTRACService) {
		s.entity = entity
	}
}

// WithPreparedBy sets the preparer recorded on generated reports
func WithPreparedBy(preparedBy string) Option {
	return func(s *CryptoFINTRACService) {
		if preparedBy != "" {
			s.preparedBy = preparedBy
		}
	}
}

// WithClock replaces the wall clock, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *CryptoFINTRACService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics enables Prometheus instrumentation
func WithMetrics(metrics *Metrics) Option {
	return func(s *CryptoFINTRACService) {
		s.metrics = metrics
	}
}

// NewCryptoFINTRACService creates a new crypto FINTRAC service
func NewCryptoFINTRACService(store *ReportStore, broadcaster events.Broadcaster, logger *zap.Logger, opts ...Option) *CryptoFINTRACService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CryptoFINTRACService{
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
		entity:      models.DefaultReportingEntity,
		preparedBy:  defaultPreparedBy,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.generator = NewGenerator(s.entity, s.preparedBy, s.now)
	return s
}

// ProcessCompletedCryptoTransaction is called once a crypto payment settles.
// It classifies the payment, generates every required report and then
// stores them. Nothing is stored if any report fails to generate.
func (s *CryptoFINTRACService) ProcessCompletedCryptoTransaction(ctx context.Context, payment models.PaymentResult) (*ProcessingResult, error) {
	if payment.Crypto == nil {
		return nil, ErrNotCryptoPayment
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	customer := payment.Customer
	riskScore := CalculateRiskScore(payment)
	riskFactors := DeriveRiskFactors(payment, customer)

	data := models.CryptoTransactionData{
		Payment:     payment,
		Customer:    customer,
		RiskScore:   riskScore,
		RiskFactors: riskFactors,
		Suspicious:  HasSuspiciousFactor(riskFactors),
	}

	analysis := Analyze(data, s.now())
	data.RequiresVCTR = analysis.RequiresVCTR
	data.RequiresLVCTR = analysis.RequiresLVCTR
	data.RequiresSTR = analysis.RequiresSTR

	result := &ProcessingResult{
		ReportsGenerated: make([]models.ReportType, 0, 3),
		ImmediateAction:  analysis.ImmediateAction,
		Deadline:         analysis.ReportingDeadline,
		RiskLevel:        analysis.RiskLevel,
		RiskScore:        riskScore,
	}

	if !analysis.RequiresAnyReport() {
		s.logger.Debug("No FINTRAC report required",
			zap.String("transaction_id", payment.TransactionID),
			zap.String("amount_cad", payment.Amount.String()),
		)
		return result, nil
	}

	if customer == nil {
		return nil, ErrCustomerDataRequired
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	reports, err := s.generateReports(ctx, data)
	if err != nil {
		return nil, err
	}

	for _, report := range reports {
		if err := s.store.Store(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to store %s report: %w", report.ReportType, err)
		}
		s.metrics.reportGenerated(report.ReportType)
		result.ReportsGenerated = append(result.ReportsGenerated, report.ReportType)

		s.logger.Info("FINTRAC report generated",
			zap.String("report_type", string(report.ReportType)),
			zap.String("report_reference", report.ReportReference),
			zap.String("transaction_id", payment.TransactionID),
			zap.Time("reporting_deadline", report.ReportingDeadline),
		)
	}
	s.refreshPending(ctx)

	if result.ImmediateAction {
		s.logger.Warn("FINTRAC report requires immediate action",
			zap.String("transaction_id", payment.TransactionID),
			zap.String("risk_level", string(result.RiskLevel)),
			zap.Strings("risk_factors", riskFactors),
		)
	}

	return result, nil
}

func (s *CryptoFINTRACService) generateReports(ctx context.Context, data models.CryptoTransactionData) ([]*models.Report, error) {
	reports := make([]*models.Report, 0, 3)

	if data.RequiresVCTR {
		report, err := s.generator.GenerateVCTR(data)
		if err != nil {
			return nil, fmt.Errorf("failed to generate VCTR: %w", err)
		}
		reports = append(reports, report)
	}

	if data.RequiresLVCTR {
		report, err := s.generator.GenerateLVCTR(data, s.relatedTransactions(ctx, data))
		if err != nil {
			return nil, fmt.Errorf("failed to generate LVCTR: %w", err)
		}
		reports = append(reports, report)
	}

	if data.RequiresSTR {
		report, err := s.generator.GenerateSTR(data, data.RiskFactors)
		if err != nil {
			return nil, fmt.Errorf("failed to generate STR: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// relatedTransactions collects the conductor's earlier VCTR transactions in
// the aggregation window before the current one. Conductors are matched on
// their identification number; rejected reports are ignored.
func (s *CryptoFINTRACService) relatedTransactions(ctx context.Context, data models.CryptoTransactionData) []models.AggregateTransaction {
	related := make([]models.AggregateTransaction, 0)
	if data.Customer == nil || data.Customer.IDNumber == "" {
		return related
	}

	current := data.Payment.Timestamp.UTC()
	windowStart := current.Add(-AggregationWindow)
	seen := map[string]struct{}{data.Payment.TransactionID: {}}

	for _, report := range s.store.GetAll(ctx) {
		if report.ReportType != models.ReportTypeVCTR ||
			report.SubmissionStatus == models.SubmissionStatusRejected ||
			report.Conductor.Identification.Number != data.Customer.IDNumber {
			continue
		}

		tx := report.VirtualCurrencyTransaction
		if tx.TransactionDate.Before(windowStart) || !tx.TransactionDate.Before(current) {
			continue
		}
		if _, ok := seen[tx.TransactionID]; ok {
			continue
		}
		seen[tx.TransactionID] = struct{}{}

		related = append(related, models.AggregateTransaction{
			TransactionID:   tx.TransactionID,
			TransactionDate: tx.TransactionDate,
			CurrencyType:    tx.CurrencyType,
			Amount:          tx.Amount,
			CADEquivalent:   tx.CADEquivalent,
		})
	}

	return related
}

// GetReports returns every stored report, most recent first
func (s *CryptoFINTRACService) GetReports(ctx context.Context) []models.Report {
	return s.store.GetAll(ctx)
}

// GetPendingReports returns the reports not yet submitted
func (s *CryptoFINTRACService) GetPendingReports(ctx context.Context) []models.Report {
	return s.store.GetPending(ctx)
}

// GetReport returns a single stored report
func (s *CryptoFINTRACService) GetReport(ctx context.Context, id string) (*models.Report, error) {
	return s.store.Get(ctx, id)
}

// Metrics returns the service's metrics, which may be nil
func (s *CryptoFINTRACService) Metrics() *Metrics {
	return s.metrics
}

// Now returns the service clock's current time
func (s *CryptoFINTRACService) Now() time.Time {
	return s.now()
}

func (s *CryptoFINTRACService) refreshPending(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	s.metrics.SetPending(len(s.store.GetPending(ctx)))
}
