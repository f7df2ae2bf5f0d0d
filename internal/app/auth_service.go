// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"emaily/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionTTL matches the lifetime of the session cookie.
const SessionTTL = 30 * 24 * time.Hour

var (
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoIdentity indicates that the provider returned no subject.
	ErrNoIdentity = errors.New("identity has no subject")
)

// AuthService handles Google sign-in and session management.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	codec    *SessionCodec
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, codec *SessionCodec, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		codec:    codec,
		log:      log,
		now:      time.Now,
	}
}

// FindOrCreateUser returns the user linked to the identity's subject,
// creating one with zero credits on first sign-in.
func (s *AuthService) FindOrCreateUser(ctx context.Context, id domain.Identity) (*domain.User, error) {
	if id.Subject == "" {
		return nil, ErrNoIdentity
	}
	user, err := s.users.GetByGoogleID(ctx, id.Subject)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	user, err = s.users.Create(ctx, id.Subject)
	if err != nil {
		// Lost a race with a concurrent first sign-in; the row exists now.
		existing, getErr := s.users.GetByGoogleID(ctx, id.Subject)
		if getErr != nil || existing == nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return existing, nil
	}
	s.log.Info().Str("user_id", user.ID).Msg("user created")
	return user, nil
}

// LoginWithIdentity signs in the person behind id and returns the session
// cookie value.
func (s *AuthService) LoginWithIdentity(ctx context.Context, id domain.Identity, userAgent, ip string) (string, *domain.User, error) {
	user, err := s.FindOrCreateUser(ctx, id)
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	sess := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserAgent: userAgent,
		IP:        ip,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	cookie, err := s.codec.Encode(sess)
	if err != nil {
		return "", nil, fmt.Errorf("encode session: %w", err)
	}
	return cookie, user, nil
}

// ValidateSession resolves a session cookie to its user.
func (s *AuthService) ValidateSession(ctx context.Context, cookie string) (*domain.User, error) {
	sessionID, userID, err := s.codec.Decode(cookie)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	if s.now().After(sess.ExpiresAt) {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Logout invalidates the session behind cookie. Unknown or expired cookies
// are not an error.
func (s *AuthService) Logout(ctx context.Context, cookie string) error {
	sessionID, _, err := s.codec.Decode(cookie)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// PruneSessions removes expired sessions from storage.
func (s *AuthService) PruneSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

// GenerateState returns a random OAuth state value.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
