package domain

import (
	"context"
	"errors"
)

// Charge is a one-off card charge against a payment provider token.
type Charge struct {
	AmountCents int64
	Currency    string
	Description string
	Source      string
}

// PaymentGateway is the port to the card processor.
type PaymentGateway interface {
	// Charge captures c and returns the provider's charge ID.
	Charge(ctx context.Context, c Charge) (string, error)
}

// ErrPaymentDeclined is returned by gateways when the provider refuses a charge.
var ErrPaymentDeclined = errors.New("payment declined")
