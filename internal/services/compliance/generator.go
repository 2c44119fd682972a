package compliance

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xchangepos/backend/internal/models"
	"github.com/xchangepos/backend/internal/services/crypto"
	"github.com/xchangepos/backend/internal/utils"
)

// RetentionYears is how long FINTRAC reports must be kept
const RetentionYears = 5

const (
	transactionTypeCryptoPayment = "crypto_payment"
	submissionMethodElectronic   = "electronic"
	defaultPurpose               = "Currency exchange"
	strConductReason             = "Transaction exhibited indicators of possible money laundering or terrorist activity financing"
	strActionTaken               = "Transaction completed; report filed with FINTRAC and customer placed under enhanced monitoring"
)

// Generator builds fully populated FINTRAC reports from transaction data
type Generator struct {
	entity     models.ReportingEntity
	preparedBy string
	now        func() time.Time
}

// NewGenerator creates a report generator for the given reporting entity
func NewGenerator(entity models.ReportingEntity, preparedBy string, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		entity:     entity,
		preparedBy: preparedBy,
		now:        now,
	}
}

// GenerateVCTR builds a virtual currency transaction report
func (g *Generator) GenerateVCTR(data models.CryptoTransactionData) (*models.Report, error) {
	base, err := g.buildBase(data, models.ReportTypeVCTR)
	if err != nil {
		return nil, err
	}

	report := &models.Report{VCTRReport: base}
	if err := sealReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

// GenerateLVCTR builds a large virtual currency transaction report. Related
// transactions are rolled into the aggregate total alongside the triggering one.
func (g *Generator) GenerateLVCTR(data models.CryptoTransactionData, related []models.AggregateTransaction) (*models.Report, error) {
	base, err := g.buildBase(data, models.ReportTypeLVCTR)
	if err != nil {
		return nil, err
	}

	aggregates := make([]models.AggregateTransaction, len(related))
	copy(aggregates, related)

	start := base.VirtualCurrencyTransaction.TransactionDate
	for _, tx := range aggregates {
		if tx.TransactionDate.Before(start) {
			start = tx.TransactionDate
		}
	}

	report := &models.Report{
		VCTRReport: base,
		LVCTRDetails: &models.LVCTRDetails{
			AggregateTransactions: aggregates,
			TotalAggregateAmount:  data.Payment.Amount.Add(sumCAD(aggregates)),
			AggregationPeriod: models.AggregationPeriod{
				StartDate: start,
				EndDate:   base.CreatedAt,
			},
		},
	}
	if err := sealReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

// GenerateSTR builds a suspicious transaction report. Known reason codes set
// the matching indicator flags; unknown reasons are kept verbatim in Other.
func (g *Generator) GenerateSTR(data models.CryptoTransactionData, suspicionReasons []string) (*models.Report, error) {
	base, err := g.buildBase(data, models.ReportTypeSTR)
	if err != nil {
		return nil, err
	}
	base.Suspicious = true
	base.ReportingReason = models.ReportingReasonSuspicious

	report := &models.Report{
		VCTRReport: base,
		STRDetails: &models.STRDetails{
			SuspicionIndicators: expandSuspicionReasons(suspicionReasons),
			Narrative:           strNarrative(base.VirtualCurrencyTransaction, suspicionReasons),
			ConductReason:       strConductReason,
			ActionTaken:         strActionTaken,
		},
	}
	if err := sealReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

// buildBase derives the shared VCTR fields for a report of the given type
func (g *Generator) buildBase(data models.CryptoTransactionData, reportType models.ReportType) (models.VCTRReport, error) {
	customer := data.Customer
	if customer == nil {
		customer = data.Payment.Customer
	}
	if customer == nil {
		return models.VCTRReport{}, ErrCustomerDataRequired
	}
	if data.Payment.Crypto == nil {
		return models.VCTRReport{}, ErrNotCryptoPayment
	}

	now := g.now().UTC()
	submissionDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	reason := models.ReportingReasonThresholdAggregate
	if data.Payment.Amount.GreaterThanOrEqual(LVCTRThreshold) {
		reason = models.ReportingReasonLargeAmount
	}

	indicators := make([]string, len(data.RiskFactors))
	copy(indicators, data.RiskFactors)

	purpose := customer.Purpose
	if purpose == "" {
		purpose = defaultPurpose
	}

	var thirdParty *models.ThirdParty
	if customer.OnBehalfOf != nil {
		tp := *customer.OnBehalfOf
		thirdParty = &tp
	}

	tx := buildTransaction(data.Payment)

	return models.VCTRReport{
		ID:              uuid.NewString(),
		ReportReference: utils.GenerateReference(string(reportType), now),
		ReportType:      reportType,
		SubmissionDate:  submissionDate,

		ReportingEntity:            g.entity,
		VirtualCurrencyTransaction: tx,
		Conductor:                  buildConductor(customer),
		ThirdParty:                 thirdParty,

		SourceOfFunds:   customer.SourceOfFunds,
		Purpose:         purpose,
		Disposition:     fmt.Sprintf("Received %s %s into reporting entity wallet", tx.Amount.String(), tx.CurrencyType),
		RiskIndicators:  indicators,
		RiskScore:       data.RiskScore,
		RiskLevel:       RiskLevelForScore(data.RiskScore),
		Suspicious:      data.Suspicious,
		ReportingReason: reason,

		SubmissionMethod:  submissionMethodElectronic,
		SubmissionStatus:  models.SubmissionStatusDraft,
		PreparedBy:        g.preparedBy,
		ReportingDeadline: ReportingDeadline(now),
		RetentionDate:     submissionDate.AddDate(RetentionYears, 0, 0),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func buildTransaction(payment models.PaymentResult) models.VirtualCurrencyTransaction {
	c := payment.Crypto
	currency := strings.ToUpper(c.Cryptocurrency)

	return models.VirtualCurrencyTransaction{
		TransactionID:   payment.TransactionID,
		TransactionType: transactionTypeCryptoPayment,
		TransactionDate: payment.Timestamp.UTC(),
		CurrencyType:    currency,
		Amount:          c.AmountCrypto,
		CADEquivalent:   payment.Amount,
		ExchangeRate:    c.Rate,
		SenderWallet:    crypto.NormalizeWalletAddress(currency, c.FromAddress),
		ReceiverWallet:  crypto.NormalizeWalletAddress(currency, c.ToAddress),
		TransactionHash: crypto.NormalizeTxHash(currency, c.TxHash),
		NetworkFee:      c.NetworkFee,
		Confirmations:   c.Confirmations,
		IPAddress:       payment.IPAddress,
		DeviceID:        payment.DeviceID,
		SessionID:       payment.SessionID,
	}
}

func buildConductor(c *models.CustomerData) models.Conductor {
	conductor := models.Conductor{
		Type:              models.ConductorTypePerson,
		VerificationLevel: verificationLevel(c),
		PEPStatus:         pepStatus(c),
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		DateOfBirth:       c.DateOfBirth,
		Occupation:        c.Occupation,
		Address: models.Address{
			Street:     c.Address,
			City:       c.City,
			Province:   c.Province,
			PostalCode: c.PostalCode,
			Country:    c.Country,
		},
		Identification: models.Identification{
			Type:         c.IDType,
			Number:       c.IDNumber,
			Jurisdiction: c.IDJurisdiction,
			ExpiryDate:   c.IDExpiry,
		},
		Citizenship: c.Citizenship,
		Residence:   c.Residence,
		Email:       c.Email,
		Phone:       c.Phone,
	}

	if c.EntityName != "" {
		conductor.Type = models.ConductorTypeEntity
		conductor.EntityName = c.EntityName
		conductor.BusinessNumber = c.BusinessNumber
	}

	return conductor
}

func verificationLevel(c *models.CustomerData) models.VerificationLevel {
	if c.IDNumber == "" {
		return models.VerificationNone
	}
	switch c.VerificationMethod {
	case string(models.VerificationFullKYC):
		return models.VerificationFullKYC
	case string(models.VerificationEnhanced):
		return models.VerificationEnhanced
	default:
		return models.VerificationBasic
	}
}

// pepStatus takes an explicit status verbatim. Otherwise a government
// occupation is treated as PEP; this is not a real PEP screening.
func pepStatus(c *models.CustomerData) models.PEPStatus {
	if c.PEPStatus != "" {
		return models.PEPStatus(c.PEPStatus)
	}
	if strings.Contains(strings.ToLower(c.Occupation), "government") {
		return models.PEPStatusPEP
	}
	return models.PEPStatusNotPEP
}

func expandSuspicionReasons(reasons []string) models.SuspicionIndicators {
	indicators := models.SuspicionIndicators{Other: make([]string, 0)}

	for _, reason := range reasons {
		switch strings.ToLower(strings.TrimSpace(reason)) {
		case RiskFactorUnusualPatterns:
			indicators.UnusualPatterns = true
		case RiskFactorStructuring, "multiple_small_amounts":
			indicators.MultipleSmallAmounts = true
		case RiskFactorRapidTransactions, "rapid_succession":
			indicators.RapidSuccession = true
		case "unknown_source", "unknown_source_of_funds":
			indicators.UnknownSourceOfFunds = true
		case "profile_inconsistency", "inconsistent_with_profile":
			indicators.InconsistentWithProfile = true
		case RiskFactorHighRiskJurisdiction:
			indicators.HighRiskJurisdiction = true
		case RiskFactorMixerUsage, "tumbler_usage":
			indicators.MixerTumblerUsage = true
		case RiskFactorPrivacyCoin:
			indicators.PrivacyCoinUsage = true
		case "new_wallet":
			indicators.NewWallet = true
		case RiskFactorRoundNumbers:
			indicators.RoundNumbers = true
		default:
			indicators.Other = append(indicators.Other, reason)
		}
	}

	return indicators
}

func strNarrative(tx models.VirtualCurrencyTransaction, reasons []string) string {
	listed := "none recorded"
	if len(reasons) > 0 {
		listed = strings.Join(reasons, ", ")
	}
	return fmt.Sprintf(
		"Suspicious virtual currency transaction of CAD %s conducted in %s. Indicators identified: %s.",
		tx.CADEquivalent.StringFixed(2), tx.CurrencyType, listed,
	)
}

// ComputeAuditHash returns the SHA-256 digest of the report's JSON form with
// the hash field itself left empty
func ComputeAuditHash(report models.Report) (string, error) {
	report.AuditHash = ""
	payload, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to serialize report for audit hash: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// sealReport computes the audit hash; it must run after every other field is set
func sealReport(report *models.Report) error {
	hash, err := ComputeAuditHash(*report)
	if err != nil {
		return err
	}
	report.AuditHash = hash
	return nil
}

// sumCAD adds the CAD equivalents of the aggregated transactions
func sumCAD(txs []models.AggregateTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.CADEquivalent)
	}
	return total
}
