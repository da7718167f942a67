// Package credits tracks the report credit balance used to unlock premium
// risk reports.
//
// Flow:
//  1. Operator tops up credits (directly or through a Stripe payment)
//  2. Purchasing a report consumes exactly one credit
//  3. The paywall rejects purchases once the balance hits zero
package credits

import (
	"context"
	"errors"
)

var ErrInvalidAmount = errors.New("credit amount must be positive")

// Store persists the credit balance. ConsumeOne must be atomic
// (check-then-decrement) so concurrent purchases cannot oversell credits.
type Store interface {
	Balance(ctx context.Context) (int, error)
	Add(ctx context.Context, n int) (int, error)
	ConsumeOne(ctx context.Context) (bool, error)
}

// TopUpRequest is the request body for adding credits directly.
type TopUpRequest struct {
	Amount int `json:"amount" binding:"required"`
}

// CheckoutRequest is the request body for starting a paid top-up.
type CheckoutRequest struct {
	Pack string `json:"pack" binding:"required"`
}

// ConfirmRequest is the request body for confirming a paid top-up.
type ConfirmRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
}
