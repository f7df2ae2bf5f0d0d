// Package redisstore stores sessions in Redis, letting key TTLs handle expiry.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"emaily/internal/domain"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "emaily:sess:"

var _ domain.SessionRepository = (*SessionRepo)(nil)

// SessionRepo implements domain.SessionRepository on Redis.
type SessionRepo struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionRepo returns a repository using rdb. An empty prefix uses the default.
func NewSessionRepo(rdb redis.UniversalClient, prefix string) *SessionRepo {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SessionRepo{rdb: rdb, prefix: prefix, now: time.Now}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

type sessionBlob struct {
	ID        string    `json:"id"`
	UserID    string    `json:"uid"`
	UserAgent string    `json:"ua,omitempty"`
	IP        string    `json:"ip,omitempty"`
	ExpiresAt time.Time `json:"exp"`
	CreatedAt time.Time `json:"iat"`
}

func (r *SessionRepo) key(id string) string { return r.prefix + id }

// Create stores s until its expiry.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	data, err := json.Marshal(sessionBlob(s))
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key(s.ID), data, ttl).Err()
}

// GetByID returns the session, or nil once Redis has expired it.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b sessionBlob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	s := domain.Session(b)
	return &s, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, r.key(id)).Err()
}

// DeleteExpired is a no-op: Redis evicts keys when their TTL runs out.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	return nil
}
