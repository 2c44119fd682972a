package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supported cryptocurrencies
const (
	CryptoBTC  = "BTC"
	CryptoETH  = "ETH"
	CryptoSOL  = "SOL"
	CryptoAVAX = "AVAX"
	CryptoUSDC = "USDC"
)

// RiskLevel is the step classification of a 0-100 risk score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// PaymentResult is the record handed over by the payment layer once a payment completes
type PaymentResult struct {
	TransactionID string               `json:"transactionId" validate:"required"`
	Amount        decimal.Decimal      `json:"amount"` // CAD
	Timestamp     time.Time            `json:"timestamp"`
	PaymentMethod string               `json:"paymentMethod,omitempty"`
	Crypto        *CryptoPaymentResult `json:"crypto,omitempty" validate:"omitempty"`
	Customer      *CustomerData        `json:"customer,omitempty" validate:"omitempty"`

	IPAddress string `json:"ipAddress,omitempty" validate:"omitempty,ip"`
	DeviceID  string `json:"deviceId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// CryptoPaymentResult is the crypto-specific part of a completed payment
type CryptoPaymentResult struct {
	Cryptocurrency string          `json:"cryptocurrency" validate:"required,oneof=BTC ETH SOL AVAX USDC"`
	AmountCrypto   decimal.Decimal `json:"amountCrypto"`
	Rate           decimal.Decimal `json:"rate"`
	TxHash         string          `json:"txHash" validate:"required"`
	NetworkFee     decimal.Decimal `json:"networkFee"`
	Confirmations  int             `json:"confirmations" validate:"gte=0"`
	FromAddress    string          `json:"fromAddress,omitempty"`
	ToAddress      string          `json:"toAddress,omitempty"`
	// RiskFactors are tags raised by the checkout's own screening
	RiskFactors []string `json:"riskFactors,omitempty"`
}

// CustomerData is the identity of the customer who conducted the payment
type CustomerData struct {
	FirstName   string `json:"firstName" validate:"required_without=EntityName"`
	LastName    string `json:"lastName" validate:"required_without=EntityName"`
	DateOfBirth string `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Occupation  string `json:"occupation,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string `json:"phone,omitempty"`

	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`

	IDType         string `json:"idType,omitempty"`
	IDNumber       string `json:"idNumber,omitempty"`
	IDJurisdiction string `json:"idJurisdiction,omitempty"`
	IDExpiry       string `json:"idExpiry,omitempty" validate:"omitempty,datetime=2006-01-02"`

	Citizenship string `json:"citizenship,omitempty"`
	Residence   string `json:"residence,omitempty"`

	// VerificationMethod may be "enhanced" or "full_kyc"
	VerificationMethod string `json:"verificationMethod,omitempty" validate:"omitempty,oneof=basic enhanced full_kyc"`
	PEPStatus          string `json:"pepStatus,omitempty"`

	SourceOfFunds string `json:"sourceOfFunds,omitempty"`
	Purpose       string `json:"purpose,omitempty"`

	EntityName     string `json:"entityName,omitempty"`
	BusinessNumber string `json:"businessNumber,omitempty"`

	// OnBehalfOf is set when the customer acted for a third party
	OnBehalfOf *ThirdParty `json:"onBehalfOf,omitempty"`
}

// CryptoTransactionData is the unit of work for report generation
type CryptoTransactionData struct {
	Payment       PaymentResult `json:"payment"`
	Customer      *CustomerData `json:"customer,omitempty"`
	RiskScore     int           `json:"riskScore"`
	RiskFactors   []string      `json:"riskFactors"`
	Suspicious    bool          `json:"suspicious"`
	RequiresVCTR  bool          `json:"requiresVctr"`
	RequiresLVCTR bool          `json:"requiresLvctr"`
	RequiresSTR   bool          `json:"requiresStr"`
}
