package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"emaily/internal/domain"
)

// openTestDB connects to EMAILY_TEST_DATABASE_URL or skips.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	connStr := os.Getenv("EMAILY_TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("EMAILY_TEST_DATABASE_URL not set")
	}
	db, err := Open(connStr)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUsersAndSessions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	googleID := "g-" + time.Now().Format("20060102150405.000000000")

	u, err := db.Create(ctx, googleID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Credits != 0 {
		t.Errorf("expected 0 credits, got %d", u.Credits)
	}

	found, err := db.GetByGoogleID(ctx, googleID)
	if err != nil || found == nil || found.ID != u.ID {
		t.Fatalf("GetByGoogleID = %+v, %v", found, err)
	}

	updated, err := db.AddCredits(ctx, u.ID, 5)
	if err != nil {
		t.Fatalf("AddCredits: %v", err)
	}
	if updated.Credits != 5 {
		t.Errorf("expected 5 credits, got %d", updated.Credits)
	}

	repo := NewSessionRepo(db)
	now := time.Now()
	sess := domain.Session{ID: u.ID + "-s", UserID: u.ID, UserAgent: "test", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("Create session: %v", err)
	}
	got, err := repo.GetByID(ctx, sess.ID)
	if err != nil || got == nil || got.UserID != u.ID {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}
	if err := repo.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := repo.GetByID(ctx, sess.ID); got != nil {
		t.Error("expected session to be deleted")
	}
}
