package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"emaily/internal/domain"
)

func TestSessionCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()
	raw, err := codec.Encode(domain.Session{ID: "s1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(SessionTTL)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	sid, uid, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sid != "s1" || uid != "u1" {
		t.Errorf("decoded (%q, %q); want (s1, u1)", sid, uid)
	}
}

func TestSessionCodec_Rejects(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()
	valid, _ := codec.Encode(domain.Session{ID: "s1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})

	other, err := NewSessionCodec("another-cookie-key-entirely")
	if err != nil {
		t.Fatalf("NewSessionCodec: %v", err)
	}
	foreign, _ := other.Encode(domain.Session{ID: "s1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong key", foreign},
		{"tampered", tampered},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := codec.Decode(tc.raw); !errors.Is(err, ErrInvalidCookie) {
				t.Errorf("expected ErrInvalidCookie, got %v", err)
			}
		})
	}
}

func TestSessionCodec_Expired(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()
	raw, _ := codec.Encode(domain.Session{ID: "s1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})

	codec.now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, _, err := codec.Decode(raw); err != ErrSessionExpired {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
}

func TestNewSessionCodec_ShortKey(t *testing.T) {
	if _, err := NewSessionCodec("short"); err == nil {
		t.Error("expected error for short cookie key")
	}
}
