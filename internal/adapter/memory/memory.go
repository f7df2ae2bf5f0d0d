// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"emaily/internal/domain"

	"github.com/google/uuid"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	byGoogle map[string]string
	sessions map[string]*domain.Session
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		users:    make(map[string]*domain.User),
		byGoogle: make(map[string]string),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- UserRepository ---

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u, ok := db.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// GetByGoogleID retrieves a user by Google subject.
func (db *DB) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id, ok := db.byGoogle[googleID]
	if !ok {
		return nil, nil
	}
	cp := *db.users[id]
	return &cp, nil
}

// Create creates a new user with no credits.
func (db *DB) Create(ctx context.Context, googleID string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.byGoogle[googleID]; ok {
		return nil, errors.New("user already exists")
	}

	u := &domain.User{
		ID:        uuid.NewString(),
		GoogleID:  googleID,
		CreatedAt: time.Now().UTC(),
	}
	db.users[u.ID] = u
	db.byGoogle[googleID] = u.ID
	cp := *u
	return &cp, nil
}

// AddCredits adds delta to the user's balance and returns the updated user.
func (db *DB) AddCredits(ctx context.Context, id string, delta int) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return nil, nil
	}
	if u.Credits+delta < 0 {
		return nil, errors.New("credits would go negative")
	}
	u.Credits += delta
	cp := *u
	return &cp, nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cp := s
	r.db.sessions[s.ID] = &cp
	return nil
}

// GetByID retrieves a live session by ID.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[id]; ok {
		if time.Now().After(s.ExpiresAt) {
			delete(r.db.sessions, id)
			return nil, nil
		}
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, id)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
