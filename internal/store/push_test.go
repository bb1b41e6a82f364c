package store

import (
	"testing"

	"agendaku/internal/database"
	"agendaku/internal/model"
)

func setupPushTestDB(t *testing.T) (*PushStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := NewUserStore(db).Create("Budi", "budi@example.com", model.RoleAdmin, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewPushStore(db), u.ID
}

func TestPushCreateSubscription(t *testing.T) {
	ps, userID := setupPushTestDB(t)

	sub, err := ps.CreateSubscription(userID, "https://push.example.com/ep1", "p256dh-key", "auth-key", "Laptop")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.Endpoint != "https://push.example.com/ep1" {
		t.Errorf("endpoint = %q, want the subscribed endpoint", sub.Endpoint)
	}
	if sub.UserID != userID {
		t.Errorf("user_id = %d, want %d", sub.UserID, userID)
	}
}

func TestPushCreateSubscriptionUpsert(t *testing.T) {
	ps, userID := setupPushTestDB(t)

	first, _ := ps.CreateSubscription(userID, "https://push.example.com/ep1", "old-key", "old-auth", "Laptop")
	second, err := ps.CreateSubscription(userID, "https://push.example.com/ep1", "new-key", "new-auth", "Laptop")
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a new row: id %d != %d", second.ID, first.ID)
	}
	if second.P256dhKey != "new-key" {
		t.Errorf("p256dh = %q, want %q", second.P256dhKey, "new-key")
	}
}

func TestPushListAll(t *testing.T) {
	ps, userID := setupPushTestDB(t)

	ps.CreateSubscription(userID, "https://push.example.com/ep1", "k1", "a1", "")
	ps.CreateSubscription(userID, "https://push.example.com/ep2", "k2", "a2", "")

	subs, err := ps.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(subs) != 2 {
		t.Errorf("got %d subscriptions, want 2", len(subs))
	}
}

func TestPushDeleteByEndpoint(t *testing.T) {
	ps, userID := setupPushTestDB(t)

	ps.CreateSubscription(userID, "https://push.example.com/ep1", "k1", "a1", "")

	if err := ps.DeleteByEndpoint("https://push.example.com/ep1"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	sub, err := ps.GetByEndpoint("https://push.example.com/ep1")
	if err != nil {
		t.Fatalf("get by endpoint: %v", err)
	}
	if sub != nil {
		t.Error("expected nil after delete")
	}
}
