package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"emaily/internal/domain"
	"emaily/internal/observability"

	"github.com/rs/zerolog"
)

// A purchase charges $5.00 for 5 credits.
const (
	CreditsPerPurchase  = 5
	PurchaseAmountCents = 500
	PurchaseCurrency    = "usd"
	PurchaseDescription = "$5.00 for 5 Emaily Credits"
)

// ErrInvalidToken indicates a missing payment token.
var ErrInvalidToken = errors.New("payment token is required")

// BillingService turns payment tokens into credits.
type BillingService struct {
	users   domain.UserRepository
	gateway domain.PaymentGateway
	log     zerolog.Logger
}

// NewBillingService creates a BillingService charging through gateway.
func NewBillingService(users domain.UserRepository, gateway domain.PaymentGateway, log zerolog.Logger) *BillingService {
	return &BillingService{users: users, gateway: gateway, log: log}
}

// AddCredits charges token and, once the charge succeeds, adds
// CreditsPerPurchase to the user. It returns the updated user.
func (s *BillingService) AddCredits(ctx context.Context, userID, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	chargeID, err := s.gateway.Charge(ctx, domain.Charge{
		AmountCents: PurchaseAmountCents,
		Currency:    PurchaseCurrency,
		Description: PurchaseDescription,
		Source:      token,
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrPaymentDeclined) {
			outcome = "declined"
		}
		observability.RecordPurchase(outcome, 0)
		return nil, fmt.Errorf("charge: %w", err)
	}

	user, err := s.users.AddCredits(ctx, userID, CreditsPerPurchase)
	if err != nil {
		// The card was charged but the credit failed; keep the charge ID for reconciliation.
		s.log.Error().Err(err).Str("user_id", userID).Str("charge_id", chargeID).Msg("credit after charge failed")
		observability.RecordPurchase("error", 0)
		return nil, fmt.Errorf("add credits: %w", err)
	}
	if user == nil {
		observability.RecordPurchase("error", 0)
		return nil, ErrUserNotFound
	}

	observability.RecordPurchase("success", CreditsPerPurchase)
	s.log.Info().Str("user_id", userID).Str("charge_id", chargeID).Int("credits", user.Credits).Msg("credits purchased")
	return user, nil
}
