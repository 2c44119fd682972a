package compliance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/xchangepos/backend/internal/events"
	"github.com/xchangepos/backend/internal/kvstore"
	"github.com/xchangepos/backend/internal/models"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 10, 17, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// MockBroadcaster is a testify mock of events.Broadcaster
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func testCustomer() *models.CustomerData {
	return &models.CustomerData{
		FirstName:          "Jane",
		LastName:           "Doe",
		DateOfBirth:        "1985-04-12",
		Occupation:         "Software Engineer",
		Email:              "jane.doe@example.com",
		Address:            "1 Front Street West",
		City:               "Toronto",
		Province:           "ON",
		PostalCode:         "M5J 2X5",
		Country:            "CA",
		IDType:             "drivers_license",
		IDNumber:           "D1234-56789-01234",
		IDJurisdiction:     "ON",
		VerificationMethod: "enhanced",
		SourceOfFunds:      "Employment income",
	}
}

func testPayment(id string, currency string, amountCAD int64, factors ...string) models.PaymentResult {
	return models.PaymentResult{
		TransactionID: id,
		Amount:        decimal.NewFromInt(amountCAD),
		Timestamp:     testNow.Add(-5 * time.Minute),
		PaymentMethod: "crypto",
		Crypto: &models.CryptoPaymentResult{
			Cryptocurrency: currency,
			AmountCrypto:   decimal.RequireFromString("0.15"),
			Rate:           decimal.NewFromInt(100000),
			TxHash:         fmt.Sprintf("hash-%s", id),
			NetworkFee:     decimal.RequireFromString("0.0002"),
			Confirmations:  6,
			FromAddress:    "bc1qsenderaddress",
			ToAddress:      "bc1qreceiveraddress",
			RiskFactors:    factors,
		},
		Customer:  testCustomer(),
		IPAddress: "203.0.113.10",
	}
}

func testTransactionData(payment models.PaymentResult) models.CryptoTransactionData {
	factors := DeriveRiskFactors(payment, payment.Customer)
	return models.CryptoTransactionData{
		Payment:     payment,
		Customer:    payment.Customer,
		RiskScore:   CalculateRiskScore(payment),
		RiskFactors: factors,
		Suspicious:  HasSuspiciousFactor(factors),
	}
}

func newTestService(t *testing.T, opts ...Option) (*CryptoFINTRACService, *events.LocalBroadcaster) {
	t.Helper()
	broadcaster := events.NewLocalBroadcaster(16)
	store := NewReportStore(kvstore.NewMemoryStore(), zap.NewNop())
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return NewCryptoFINTRACService(store, broadcaster, zap.NewNop(), opts...), broadcaster
}
