// Package stripe charges payment tokens through the Stripe API.
package stripe

import (
	"context"
	"errors"
	"fmt"

	"emaily/internal/domain"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var _ domain.PaymentGateway = (*Gateway)(nil)

// Gateway implements domain.PaymentGateway with the Stripe Charges API.
type Gateway struct {
	newCharge func(*stripeapi.ChargeParams) (*stripeapi.Charge, error)
}

// New returns a gateway authenticated with secretKey.
func New(secretKey string) *Gateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Gateway{newCharge: sc.Charges.New}
}

// Charge creates a charge for c and returns its ID.
func (g *Gateway) Charge(ctx context.Context, c domain.Charge) (string, error) {
	params, err := chargeParams(ctx, c)
	if err != nil {
		return "", err
	}
	ch, err := g.newCharge(params)
	if err != nil {
		return "", classify(err)
	}
	if !ch.Paid {
		return ch.ID, fmt.Errorf("charge %s not paid (%s): %w", ch.ID, ch.Status, domain.ErrPaymentDeclined)
	}
	return ch.ID, nil
}

func chargeParams(ctx context.Context, c domain.Charge) (*stripeapi.ChargeParams, error) {
	if c.Source == "" {
		return nil, errors.New("charge source is required")
	}
	if c.AmountCents <= 0 {
		return nil, fmt.Errorf("invalid charge amount %d", c.AmountCents)
	}
	params := &stripeapi.ChargeParams{
		Amount:      stripeapi.Int64(c.AmountCents),
		Currency:    stripeapi.String(c.Currency),
		Description: stripeapi.String(c.Description),
	}
	params.Context = ctx
	if err := params.SetSource(c.Source); err != nil {
		return nil, fmt.Errorf("charge source: %w", err)
	}
	return params, nil
}

// classify marks card errors as declines so handlers can answer 402.
func classify(err error) error {
	var se *stripeapi.Error
	if errors.As(err, &se) && se.Type == stripeapi.ErrorTypeCard {
		return fmt.Errorf("%s: %w", se.Msg, domain.ErrPaymentDeclined)
	}
	return fmt.Errorf("stripe: %w", err)
}
