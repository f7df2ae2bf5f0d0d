// Package google signs users in with Google's OpenID Connect provider.
package google

import (
	"context"
	"errors"
	"fmt"

	"emaily/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Issuer is Google's OIDC issuer URL.
const Issuer = "https://accounts.google.com"

// CallbackPath is where Google redirects after consent.
const CallbackPath = "/auth/google/callback"

var _ domain.IdentityProvider = (*Provider)(nil)

// Config holds the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	// RedirectURL is the absolute callback URL registered with Google.
	RedirectURL string
}

// Provider drives the authorization-code flow and verifies id_tokens.
type Provider struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// New discovers the provider at issuer (normally Issuer).
func New(ctx context.Context, issuer string, cfg Config) (*Provider, error) {
	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     p.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: p.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// AuthCodeURL returns the consent URL carrying state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for a verified identity.
func (p *Provider) Exchange(ctx context.Context, code string) (domain.Identity, error) {
	if code == "" {
		return domain.Identity{}, errors.New("missing authorization code")
	}
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return domain.Identity{}, errors.New("no id_token in token response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("verify id_token: %w", err)
	}

	var claims struct {
		Email string `json:"email"`
		Sub   string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return domain.Identity{}, fmt.Errorf("parse claims: %w", err)
	}
	return domain.Identity{Subject: claims.Sub, Email: claims.Email}, nil
}
