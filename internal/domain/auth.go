// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User is an Emaily account, keyed internally by ID and externally by the
// Google subject it signed up with.
type User struct {
	ID        string    `json:"id"`
	GoogleID  string    `json:"googleId"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session represents an active user session.
type Session struct {
	ID        string
	UserID    string
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
// Lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)
	Create(ctx context.Context, googleID string) (*User, error)
	AddCredits(ctx context.Context, id string, delta int) (*User, error)
}

// SessionRepository defines the port for session persistence operations.
// GetByID returns (nil, nil) for unknown or expired sessions.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) error
}
