package domain

import "context"

// Identity is what the identity provider tells us about a signed-in person.
type Identity struct {
	Subject string
	Email   string
}

// IdentityProvider drives the OAuth authorization-code flow.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}
