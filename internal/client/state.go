// Package client keeps client-side session state in sync with the Emaily
// server. Remote calls resolve into events, events flow through a pure
// reducer, and the store notifies subscribers after each application.
package client

import (
	"errors"
	"fmt"
	"strconv"
)

// AuthStatus tags the variant held by Auth.
type AuthStatus int

const (
	// AuthUnknown is the initial status, before any fetch has resolved.
	AuthUnknown AuthStatus = iota
	// AuthUnauthenticated means the server answered that nobody is signed in.
	AuthUnauthenticated
	// AuthAuthenticated means Auth.User holds the signed-in user.
	AuthAuthenticated
)

func (s AuthStatus) String() string {
	switch s {
	case AuthUnknown:
		return "unknown"
	case AuthUnauthenticated:
		return "unauthenticated"
	case AuthAuthenticated:
		return "authenticated"
	default:
		return "AuthStatus(" + strconv.Itoa(int(s)) + ")"
	}
}

// UserRecord is the user document returned by the server.
type UserRecord struct {
	ID       string `json:"id"`
	GoogleID string `json:"googleId,omitempty"`
	Credits  int    `json:"credits"`
}

// ErrMalformedRecord is returned by UserRecord.Validate.
var ErrMalformedRecord = errors.New("malformed user record")

// Validate reports whether r is a well-formed record.
func (r UserRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if r.Credits < 0 {
		return fmt.Errorf("%w: negative credits %d", ErrMalformedRecord, r.Credits)
	}
	return nil
}

// Auth is Unknown, Unauthenticated or Authenticated(User).
type Auth struct {
	Status AuthStatus
	// User is set only when Status is AuthAuthenticated.
	User *UserRecord
}

// Unknown returns the pending variant.
func Unknown() Auth { return Auth{Status: AuthUnknown} }

// Unauthenticated returns the signed-out variant.
func Unauthenticated() Auth { return Auth{Status: AuthUnauthenticated} }

// Authenticated returns the signed-in variant holding a copy of u.
func Authenticated(u UserRecord) Auth {
	return Auth{Status: AuthAuthenticated, User: &u}
}

// Equal reports whether a and b hold the same variant and record.
func (a Auth) Equal(b Auth) bool {
	if a.Status != b.Status {
		return false
	}
	if a.Status != AuthAuthenticated {
		return true
	}
	if a.User == nil || b.User == nil {
		return a.User == b.User
	}
	return *a.User == *b.User
}

// State is the session-wide client state.
type State struct {
	Auth Auth
}

// InitialState is the state a store starts in.
func InitialState() State {
	return State{Auth: Unknown()}
}

// Equal reports whether s and o are equal.
func (s State) Equal(o State) bool {
	return s.Auth.Equal(o.Auth)
}

// Describe renders the header line for s: nothing while pending, a login
// prompt when signed out, the credit balance when signed in. An
// authenticated Auth without a user renders as pending.
func Describe(s State) string {
	switch s.Auth.Status {
	case AuthUnauthenticated:
		return "Login with Google"
	case AuthAuthenticated:
		if s.Auth.User == nil {
			return ""
		}
		return "Credits: " + strconv.Itoa(s.Auth.User.Credits)
	default:
		return ""
	}
}
