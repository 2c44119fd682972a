package compliance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xchangepos/backend/internal/models"
)

// Reporting thresholds in CAD
var (
	VCTRThreshold            = decimal.NewFromInt(1000)
	LVCTRThreshold           = decimal.NewFromInt(10000)
	ImmediateActionThreshold = decimal.NewFromInt(50000)
)

// ReportingDeadlineDays is counted in calendar days from the time of analysis
const ReportingDeadlineDays = 15

// Risk factor tags
const (
	RiskFactorRapidTransactions    = "rapid_transactions"
	RiskFactorStructuring          = "structuring"
	RiskFactorHighRiskJurisdiction = "high_risk_jurisdiction"
	RiskFactorMixerUsage           = "mixer_usage"
	RiskFactorPrivacyCoin          = "privacy_coin"
	RiskFactorUnusualPatterns      = "unusual_patterns"

	// Informational tags; never sufficient for an STR on their own
	RiskFactorLargeAmount        = "large_amount"
	RiskFactorRoundNumbers       = "round_numbers"
	RiskFactorUnverifiedCustomer = "unverified_customer"
)

var suspiciousRiskFactors = map[string]struct{}{
	RiskFactorRapidTransactions:    {},
	RiskFactorStructuring:          {},
	RiskFactorHighRiskJurisdiction: {},
	RiskFactorMixerUsage:           {},
	RiskFactorPrivacyCoin:          {},
	RiskFactorUnusualPatterns:      {},
}

var currencyRiskWeights = map[string]int{
	models.CryptoBTC: 5,
	models.CryptoETH: 3,
}

// AnalysisResult is the reporting verdict for one transaction
type AnalysisResult struct {
	RequiresVCTR      bool             `json:"requiresVctr"`
	RequiresLVCTR     bool             `json:"requiresLvctr"`
	RequiresSTR       bool             `json:"requiresStr"`
	ReportingDeadline time.Time        `json:"reportingDeadline"`
	RiskLevel         models.RiskLevel `json:"riskLevel"`
	ImmediateAction   bool             `json:"immediateAction"`
}

// RequiresAnyReport reports whether at least one report must be filed
func (a AnalysisResult) RequiresAnyReport() bool {
	return a.RequiresVCTR || a.RequiresLVCTR || a.RequiresSTR
}

// Analyze decides which reports a transaction requires. It has no side effects.
func Analyze(data models.CryptoTransactionData, now time.Time) AnalysisResult {
	amount := data.Payment.Amount
	riskLevel := RiskLevelForScore(data.RiskScore)
	requiresSTR := HasSuspiciousFactor(data.RiskFactors)

	return AnalysisResult{
		RequiresVCTR:      amount.GreaterThanOrEqual(VCTRThreshold),
		RequiresLVCTR:     amount.GreaterThanOrEqual(LVCTRThreshold),
		RequiresSTR:       requiresSTR,
		ReportingDeadline: ReportingDeadline(now),
		RiskLevel:         riskLevel,
		ImmediateAction: requiresSTR ||
			riskLevel == models.RiskLevelCritical ||
			amount.GreaterThanOrEqual(ImmediateActionThreshold),
	}
}

// ReportingDeadline returns the statutory filing deadline for an analysis made at now
func ReportingDeadline(now time.Time) time.Time {
	return now.AddDate(0, 0, ReportingDeadlineDays)
}

// CalculateRiskScore scores a payment from its CAD amount band and currency, capped at 100
func CalculateRiskScore(payment models.PaymentResult) int {
	score := 0

	// Anything at or above the LVCTR threshold starts at 20
	switch {
	case payment.Amount.GreaterThanOrEqual(decimal.NewFromInt(50000)):
		score += 30
	case payment.Amount.GreaterThanOrEqual(LVCTRThreshold):
		score += 20
	}

	if payment.Crypto != nil {
		score += currencyRiskWeights[strings.ToUpper(payment.Crypto.Cryptocurrency)]
	}

	if score > 100 {
		score = 100
	}
	return score
}

// RiskLevelForScore maps a 0-100 score onto a risk level
func RiskLevelForScore(score int) models.RiskLevel {
	switch {
	case score >= 90:
		return models.RiskLevelCritical
	case score >= 70:
		return models.RiskLevelHigh
	case score >= 40:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}

// IsSuspiciousFactor reports whether the tag alone requires an STR
func IsSuspiciousFactor(tag string) bool {
	_, ok := suspiciousRiskFactors[tag]
	return ok
}

// HasSuspiciousFactor reports whether any tag requires an STR
func HasSuspiciousFactor(tags []string) bool {
	for _, tag := range tags {
		if IsSuspiciousFactor(tag) {
			return true
		}
	}
	return false
}

// DeriveRiskFactors merges the checkout's screening tags with informational
// tags derived from the amount and the customer record. Tags are normalised
// to lower case and deduplicated, keeping first-seen order.
func DeriveRiskFactors(payment models.PaymentResult, customer *models.CustomerData) []string {
	factors := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		factors = append(factors, tag)
	}

	if payment.Crypto != nil {
		for _, tag := range payment.Crypto.RiskFactors {
			add(tag)
		}
	}

	if payment.Amount.GreaterThanOrEqual(LVCTRThreshold) {
		add(RiskFactorLargeAmount)
	}
	if payment.Amount.GreaterThanOrEqual(VCTRThreshold) && payment.Amount.Mod(VCTRThreshold).IsZero() {
		add(RiskFactorRoundNumbers)
	}
	if customer == nil || customer.IDNumber == "" {
		add(RiskFactorUnverifiedCustomer)
	}

	return factors
}
