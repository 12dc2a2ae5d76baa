package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dukerupert/savesmart/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	u, err := NewUserStore(db).Create(context.Background(), email, "Test", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func TestUserCreate(t *testing.T) {
	us := NewUserStore(setupTestDB(t))
	ctx := context.Background()

	u, err := us.Create(ctx, " Aisyah@Example.com ", "Aisyah", "secret-hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "aisyah@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "aisyah@example.com")
	}
	if u.Name != "Aisyah" {
		t.Errorf("name = %q, want %q", u.Name, "Aisyah")
	}
	if u.PasswordHash != "secret-hash" {
		t.Errorf("password hash = %q, want %q", u.PasswordHash, "secret-hash")
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	us := NewUserStore(setupTestDB(t))
	ctx := context.Background()

	if _, err := us.Create(ctx, "aisyah@example.com", "Aisyah", "h"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := us.Create(ctx, "AISYAH@example.com", "Other", "h")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := NewUserStore(setupTestDB(t))
	ctx := context.Background()

	created, _ := us.Create(ctx, "aisyah@example.com", "Aisyah", "h")

	u, err := us.GetByEmail(ctx, "Aisyah@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil || u.ID != created.ID {
		t.Fatalf("got %+v, want user %d", u, created.ID)
	}

	u, err = us.GetByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil for unknown email, got %+v", u)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	u, err := us.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil, got %+v", u)
	}
}
