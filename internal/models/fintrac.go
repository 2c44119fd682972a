package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportType identifies the FINTRAC report variant
type ReportType string

const (
	ReportTypeVCTR  ReportType = "VCTR"  // Virtual currency transaction report
	ReportTypeLVCTR ReportType = "LVCTR" // Large virtual currency transaction report
	ReportTypeSTR   ReportType = "STR"   // Suspicious transaction report
)

// SubmissionStatus is the lifecycle state of a report
type SubmissionStatus string

const (
	SubmissionStatusDraft        SubmissionStatus = "draft"
	SubmissionStatusSubmitted    SubmissionStatus = "submitted"
	SubmissionStatusAcknowledged SubmissionStatus = "acknowledged"
	SubmissionStatusRejected     SubmissionStatus = "rejected"
)

// CanTransitionTo reports whether the status may move to next.
// Status only moves forward; submitted may be resubmitted.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	switch s {
	case SubmissionStatusDraft:
		return next == SubmissionStatusSubmitted
	case SubmissionStatusSubmitted:
		return next == SubmissionStatusSubmitted ||
			next == SubmissionStatusAcknowledged ||
			next == SubmissionStatusRejected
	default:
		return false
	}
}

// IsTerminal reports whether no further transition exists
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionStatusAcknowledged || s == SubmissionStatusRejected
}

// VerificationLevel describes how thoroughly the conductor was identified
type VerificationLevel string

const (
	VerificationNone     VerificationLevel = "none"
	VerificationBasic    VerificationLevel = "basic"
	VerificationEnhanced VerificationLevel = "enhanced"
	VerificationFullKYC  VerificationLevel = "full_kyc"
)

// PEPStatus is the politically-exposed-person classification of a conductor
type PEPStatus string

const (
	PEPStatusPEP    PEPStatus = "pep"
	PEPStatusNotPEP PEPStatus = "not_pep"
)

// ReportingReason explains why the report was produced
type ReportingReason string

const (
	ReportingReasonLargeAmount        ReportingReason = "large_amount"
	ReportingReasonSuspicious         ReportingReason = "suspicious"
	ReportingReasonThresholdAggregate ReportingReason = "threshold_aggregate"
	ReportingReasonOther              ReportingReason = "other"
)

// ConductorType distinguishes natural persons from entities
type ConductorType string

const (
	ConductorTypePerson ConductorType = "person"
	ConductorTypeEntity ConductorType = "entity"
)

// ReportingEntity is the registered business filing the report
type ReportingEntity struct {
	Name               string `json:"name"`
	Identifier         string `json:"identifier"`
	RegistrationNumber string `json:"registrationNumber"`
	Address            string `json:"address"`
}

// DefaultReportingEntity is used when configuration does not override the entity identity
var DefaultReportingEntity = ReportingEntity{
	Name:               "XchangePOS Currency Exchange Inc.",
	Identifier:         "MSB-M00000000",
	RegistrationNumber: "M00000000",
	Address:            "100 King Street West, Toronto, ON M5X 1A9, Canada",
}

// Address is a postal address
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Identification is the identity document used to verify a conductor
type Identification struct {
	Type         string `json:"type"`
	Number       string `json:"number"`
	Jurisdiction string `json:"jurisdiction"`
	ExpiryDate   string `json:"expiryDate,omitempty"`
}

// VirtualCurrencyTransaction is the transaction snapshot carried by every report
type VirtualCurrencyTransaction struct {
	TransactionID   string          `json:"transactionId"`
	TransactionType string          `json:"transactionType"`
	TransactionDate time.Time       `json:"transactionDate"`
	CurrencyType    string          `json:"currencyType"`
	Amount          decimal.Decimal `json:"amount"`
	CADEquivalent   decimal.Decimal `json:"cadEquivalent"`
	ExchangeRate    decimal.Decimal `json:"exchangeRate"`
	SenderWallet    string          `json:"senderWallet"`
	ReceiverWallet  string          `json:"receiverWallet"`
	TransactionHash string          `json:"transactionHash"`
	NetworkFee      decimal.Decimal `json:"networkFee"`
	Confirmations   int             `json:"confirmations"`
	IPAddress       string          `json:"ipAddress,omitempty"`
	DeviceID        string          `json:"deviceId,omitempty"`
	SessionID       string          `json:"sessionId,omitempty"`
}

// Conductor is the person or entity that carried out the transaction
type Conductor struct {
	Type              ConductorType     `json:"type"`
	VerificationLevel VerificationLevel `json:"verificationLevel"`
	PEPStatus         PEPStatus         `json:"pepStatus"`

	// Person fields
	FirstName      string         `json:"firstName,omitempty"`
	LastName       string         `json:"lastName,omitempty"`
	DateOfBirth    string         `json:"dateOfBirth,omitempty"`
	Occupation     string         `json:"occupation,omitempty"`
	Address        Address        `json:"address"`
	Identification Identification `json:"identification"`
	Citizenship    string         `json:"citizenship,omitempty"`
	Residence      string         `json:"residence,omitempty"`
	Email          string         `json:"email,omitempty"`
	Phone          string         `json:"phone,omitempty"`

	// Entity fields
	EntityName     string `json:"entityName,omitempty"`
	BusinessNumber string `json:"businessNumber,omitempty"`
}

// DisplayName returns the name used in exports
func (c Conductor) DisplayName() string {
	if c.Type == ConductorTypeEntity {
		return c.EntityName
	}
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ThirdParty is present only when the conductor acted on behalf of someone else
type ThirdParty struct {
	Name         string  `json:"name"`
	Relationship string  `json:"relationship"`
	Address      Address `json:"address"`
	Occupation   string  `json:"occupation,omitempty"`
}

// VCTRReport is the base virtual currency transaction report
type VCTRReport struct {
	ID              string     `json:"id"`
	ReportReference string     `json:"reportReference"`
	ReportType      ReportType `json:"reportType"`
	SubmissionDate  time.Time  `json:"submissionDate"`

	ReportingEntity            ReportingEntity            `json:"reportingEntity"`
	VirtualCurrencyTransaction VirtualCurrencyTransaction `json:"virtualCurrencyTransaction"`
	Conductor                  Conductor                  `json:"conductor"`
	ThirdParty                 *ThirdParty                `json:"thirdParty,omitempty"`

	SourceOfFunds   string          `json:"sourceOfFunds"`
	Purpose         string          `json:"purpose"`
	Disposition     string          `json:"disposition"`
	RiskIndicators  []string        `json:"riskIndicators"`
	RiskScore       int             `json:"riskScore"`
	RiskLevel       RiskLevel       `json:"riskLevel"`
	Suspicious      bool            `json:"suspicious"`
	ReportingReason ReportingReason `json:"reportingReason"`

	SubmissionMethod        string           `json:"submissionMethod"`
	SubmissionStatus        SubmissionStatus `json:"submissionStatus"`
	AcknowledgmentReference string           `json:"acknowledgmentReference,omitempty"`
	RejectionReason         string           `json:"rejectionReason,omitempty"`
	PreparedBy              string           `json:"preparedBy"`
	ReviewedBy              string           `json:"reviewedBy,omitempty"`
	ReportingDeadline       time.Time        `json:"reportingDeadline"`
	RetentionDate           time.Time        `json:"retentionDate"`
	AuditHash               string           `json:"auditHash"`
	CreatedAt               time.Time        `json:"createdAt"`
	UpdatedAt               time.Time        `json:"updatedAt"`
}

// AggregateTransaction is a smaller transaction rolled into an LVCTR
type AggregateTransaction struct {
	TransactionID   string          `json:"transactionId"`
	TransactionDate time.Time       `json:"transactionDate"`
	CurrencyType    string          `json:"currencyType"`
	Amount          decimal.Decimal `json:"amount"`
	CADEquivalent   decimal.Decimal `json:"cadEquivalent"`
}

// AggregationPeriod bounds the aggregated transactions of an LVCTR
type AggregationPeriod struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// LVCTRDetails are the fields an LVCTR adds to the base report
type LVCTRDetails struct {
	AggregateTransactions []AggregateTransaction `json:"aggregateTransactions"`
	TotalAggregateAmount  decimal.Decimal        `json:"totalAggregateAmount"`
	AggregationPeriod     AggregationPeriod      `json:"aggregationPeriod"`
}

// SuspicionIndicators are the fixed STR indicator flags
type SuspicionIndicators struct {
	UnusualPatterns         bool     `json:"unusualPatterns"`
	MultipleSmallAmounts    bool     `json:"multipleSmallAmounts"`
	RapidSuccession         bool     `json:"rapidSuccession"`
	UnknownSourceOfFunds    bool     `json:"unknownSourceOfFunds"`
	InconsistentWithProfile bool     `json:"inconsistentWithProfile"`
	HighRiskJurisdiction    bool     `json:"highRiskJurisdiction"`
	MixerTumblerUsage       bool     `json:"mixerTumblerUsage"`
	PrivacyCoinUsage        bool     `json:"privacyCoinUsage"`
	NewWallet               bool     `json:"newWallet"`
	RoundNumbers            bool     `json:"roundNumbers"`
	Other                   []string `json:"other"`
}

// STRDetails are the fields an STR adds to the base report
type STRDetails struct {
	SuspicionIndicators SuspicionIndicators `json:"suspicionIndicators"`
	Narrative           string              `json:"narrative"`
	ConductReason       string              `json:"conductReason"`
	ActionTaken         string              `json:"actionTaken"`
	RelatedTransactions []string            `json:"relatedTransactions,omitempty"`
}

// Report is a stored FINTRAC report. ReportType tags the variant: LVCTR
// reports carry LVCTRDetails and STR reports carry STRDetails. The embedded
// parts are flattened in JSON.
type Report struct {
	VCTRReport
	*LVCTRDetails
	*STRDetails
}

// IsPending reports whether the report has not been sent to the regulator yet
func (r *Report) IsPending() bool {
	return r.SubmissionStatus == SubmissionStatusDraft
}
