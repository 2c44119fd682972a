package compliance

import "errors"

var (
	// ErrNotCryptoPayment is returned when a payment result carries no crypto settlement
	ErrNotCryptoPayment = errors.New("payment result has no crypto settlement")
	// ErrCustomerDataRequired is returned when a report is required but no customer identity was supplied
	ErrCustomerDataRequired = errors.New("customer data is required for FINTRAC reporting")
	// ErrReportNotFound is returned when no stored report matches the requested id
	ErrReportNotFound = errors.New("report not found")
	// ErrInvalidTransition is returned when a submission status change would move backwards
	ErrInvalidTransition = errors.New("invalid submission status transition")
	// ErrCorruptReportStore is returned when the persisted collection cannot be decoded
	ErrCorruptReportStore = errors.New("persisted report collection is corrupt")

	errSubmissionSuperseded = errors.New("submission superseded")
)
