package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidPayment is returned when a payment result fails schema validation
var ErrInvalidPayment = errors.New("invalid payment result")

var validate = validator.New()

// Validate checks the payment result schema, including the nested crypto
// result and customer record when present
func (p *PaymentResult) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayment, err)
	}
	if p.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidPayment)
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}

	if p.Crypto != nil {
		if p.Crypto.AmountCrypto.IsNegative() {
			return fmt.Errorf("%w: crypto amount must not be negative", ErrInvalidPayment)
		}
		if p.Crypto.Rate.IsNegative() || p.Crypto.NetworkFee.IsNegative() {
			return fmt.Errorf("%w: rate and network fee must not be negative", ErrInvalidPayment)
		}
	}

	return nil
}

// Validate checks the customer record schema
func (c *CustomerData) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: customer: %v", ErrInvalidPayment, err)
	}
	return nil
}
