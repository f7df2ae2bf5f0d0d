package app

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"emaily/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	sessionIssuer     = "emaily"
	sessionKeyInfo    = "emaily session cookie v1"
	sessionKeyLength  = 32
	minCookieKeyBytes = 16
)

// ErrInvalidCookie indicates that a session cookie failed signature or claim checks.
var ErrInvalidCookie = errors.New("invalid session cookie")

// SessionCodec signs and verifies session cookies. The cookie is an HS256
// JWT whose ID is the session ID and whose subject is the user ID.
type SessionCodec struct {
	key []byte
	now func() time.Time
}

// NewSessionCodec derives a signing key from the configured cookie key.
func NewSessionCodec(cookieKey string) (*SessionCodec, error) {
	if len(cookieKey) < minCookieKeyBytes {
		return nil, fmt.Errorf("cookie key must be at least %d bytes", minCookieKeyBytes)
	}
	key := make([]byte, sessionKeyLength)
	r := hkdf.New(sha256.New, []byte(cookieKey), nil, []byte(sessionKeyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return &SessionCodec{key: key, now: time.Now}, nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// Encode returns the signed cookie value for s.
func (c *SessionCodec) Encode(s domain.Session) (string, error) {
	claims := sessionClaims{jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   s.UserID,
		ID:        s.ID,
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

// Decode verifies raw and returns the session and user IDs it carries.
func (c *SessionCodec) Decode(raw string) (sessionID, userID string, err error) {
	var claims sessionClaims
	_, err = jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return "", "", ErrSessionExpired
	}
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return "", "", fmt.Errorf("%w: missing claims", ErrInvalidCookie)
	}
	return claims.ID, claims.Subject, nil
}
