package store

import (
	"testing"

	"agendaku/internal/database"
	"agendaku/internal/model"
)

func openTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// Ensure foreign keys are enforced (modernc/sqlite may not honor DSN param for :memory:)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreateAndGet(t *testing.T) {
	us := openTestDB(t)

	u, err := us.Create("Budi Santoso", "budi@example.com", model.RoleAdmin, "$2a$10$hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Name != "Budi Santoso" {
		t.Errorf("name = %q, want %q", u.Name, "Budi Santoso")
	}
	if u.Role != model.RoleAdmin {
		t.Errorf("role = %q, want %q", u.Role, model.RoleAdmin)
	}
	if u.PasswordHash != "$2a$10$hash" {
		t.Errorf("password hash = %q, want stored hash", u.PasswordHash)
	}

	got, err := us.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.Email != "budi@example.com" {
		t.Errorf("got %+v, want email budi@example.com", got)
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := openTestDB(t)

	created, err := us.Create("Siti", "siti@example.com", model.RoleViewer, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := us.GetByEmail("siti@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil {
		t.Fatal("expected user, got nil")
	}
	if got.ID != created.ID {
		t.Errorf("id = %d, want %d", got.ID, created.ID)
	}
}

func TestUserGetByEmailNotFound(t *testing.T) {
	us := openTestDB(t)

	got, err := us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	us := openTestDB(t)

	if _, err := us.Create("Budi", "budi@example.com", model.RoleAdmin, "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("Other Budi", "budi@example.com", model.RoleViewer, "hash2"); err == nil {
		t.Error("expected error for duplicate email")
	}
}
