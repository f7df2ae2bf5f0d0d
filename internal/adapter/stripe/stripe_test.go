package stripe

import (
	"context"
	"errors"
	"testing"

	"emaily/internal/domain"

	stripeapi "github.com/stripe/stripe-go/v76"
)

var purchase = domain.Charge{
	AmountCents: 500,
	Currency:    "usd",
	Description: "$5.00 for 5 Emaily Credits",
	Source:      "tok_visa",
}

func TestCharge_BuildsParams(t *testing.T) {
	var got *stripeapi.ChargeParams
	g := &Gateway{newCharge: func(p *stripeapi.ChargeParams) (*stripeapi.Charge, error) {
		got = p
		return &stripeapi.Charge{ID: "ch_1", Paid: true}, nil
	}}

	id, err := g.Charge(context.Background(), purchase)
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if id != "ch_1" {
		t.Errorf("expected ch_1, got %s", id)
	}
	if *got.Amount != 500 || *got.Currency != "usd" || *got.Description != purchase.Description {
		t.Errorf("unexpected params amount=%d currency=%s description=%s", *got.Amount, *got.Currency, *got.Description)
	}
	if got.Source == nil || got.Source.Token == nil || *got.Source.Token != "tok_visa" {
		t.Errorf("source token not set: %+v", got.Source)
	}
	if got.Context == nil {
		t.Error("expected request context to be attached")
	}
}

func TestCharge_Declines(t *testing.T) {
	tests := []struct {
		name     string
		resp     *stripeapi.Charge
		err      error
		declined bool
	}{
		{"card error", nil, &stripeapi.Error{Type: stripeapi.ErrorTypeCard, Msg: "Your card was declined."}, true},
		{"unpaid", &stripeapi.Charge{ID: "ch_2", Paid: false, Status: "failed"}, nil, true},
		{"api error", nil, &stripeapi.Error{Type: stripeapi.ErrorTypeAPI, Msg: "boom"}, false},
		{"network", nil, errors.New("dial tcp: timeout"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := &Gateway{newCharge: func(*stripeapi.ChargeParams) (*stripeapi.Charge, error) {
				return tc.resp, tc.err
			}}
			_, err := g.Charge(context.Background(), purchase)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, domain.ErrPaymentDeclined) != tc.declined {
				t.Errorf("declined = %v; want %v (err %v)", !tc.declined, tc.declined, err)
			}
		})
	}
}

func TestCharge_RejectsBadInput(t *testing.T) {
	called := false
	g := &Gateway{newCharge: func(*stripeapi.ChargeParams) (*stripeapi.Charge, error) {
		called = true
		return nil, nil
	}}
	bad := []domain.Charge{
		{AmountCents: 500, Currency: "usd"},
		{AmountCents: 0, Currency: "usd", Source: "tok_visa"},
	}
	for _, c := range bad {
		if _, err := g.Charge(context.Background(), c); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
	if called {
		t.Error("stripe must not be called for invalid charges")
	}
}
